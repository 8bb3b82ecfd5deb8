package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests             *prometheus.CounterVec
	CounterRoundsCompleted      prometheus.Counter
	CounterSeriesCompleted      prometheus.Counter
	CounterWorkoutsFinished     prometheus.Counter
	CounterCatalogFetchFailures prometheus.Counter
	CounterSaveFailures         prometheus.Counter
	CounterLoadFailures         prometheus.Counter

	// gauges
	GaugeWorkspaces prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("gym", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("gym", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterRoundsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rounds_completed",
			Help:      "The total number of recorded exercise rounds",
		}),
		CounterSeriesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "series_completed",
			Help:      "The total number of fully completed series",
		}),
		CounterWorkoutsFinished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workouts_finished",
			Help:      "The total number of days whose last series was completed",
		}),
		CounterCatalogFetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "catalog_fetch_failures",
			Help:      "Number of failed catalog fetches on workspace open",
		}),
		CounterSaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "document_save_failures",
			Help:      "Number of tracker documents that could not be persisted",
		}),
		CounterLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "document_load_failures",
			Help:      "Number of workspaces not opened because the tracker document could not be read",
		}),
		GaugeWorkspaces: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "open_workspaces",
			Help:      "Current number of open user workspaces",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// GinMiddleware counts and times every request.
func (m *Manager) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.HistRequestDuration.Observe(time.Since(start).Seconds())
		m.CounterRequests.WithLabelValues(c.Request.Method, statusClass(c.Writer.Status())).Inc()
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
