package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/tracker"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrWorkspaceClosed  = errors.New("workspace is closed")
	ErrDayNotFound      = errors.New("day not found")
	ErrSeriesNotFound   = errors.New("series not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrSaveFailed       = errors.New("failed to save tracker document")
)

// statsTimeout bounds the stats write after a finished workout.
const statsTimeout = 5 * time.Second

// View is the screen a workspace is on.
type View string

const (
	ViewDays   View = "days"
	ViewDay    View = "day"
	ViewSeries View = "series"
)

// Navigation is the open screen with its selection.
type Navigation struct {
	View     View   `json:"view"`
	DayID    string `json:"dayId,omitempty"`
	SeriesID string `json:"seriesId,omitempty"`
}

// Snapshot is what a client renders after every event.
type Snapshot struct {
	Document        domain.Document `json:"document"`
	Navigation      Navigation      `json:"navigation"`
	Celebrating     bool            `json:"celebrating"`
	ProgressPercent int             `json:"progressPercent"`
	AwaitingRating  []string        `json:"awaitingRating"`
	CatalogReady    bool            `json:"catalogReady"`
}

type catalogSource interface {
	GetAll(ctx context.Context) ([]domain.ExerciseTemplate, error)
}

type workoutRecorder interface {
	RecordWorkout(ctx context.Context, userID primitive.ObjectID, exercises int, now time.Time) (domain.WorkoutStats, error)
}

// WorkspaceOptions configures a workspace. Zero values fall back to defaults.
type WorkspaceOptions struct {
	Dwell               time.Duration
	Scheduler           tracker.Scheduler
	RequireRating       bool
	CatalogFetchTimeout time.Duration
	Mutator             *tracker.Mutator
	Now                 func() time.Time
}

// Workspace is the tracker of one user while they are signed in: the
// document, the open screen, pending completions and the fetched catalog.
// Every event runs to completion under one mutex.
type Workspace struct {
	userID     primitive.ObjectID
	store      *tracker.PersistedStore
	mutator    *tracker.Mutator
	transition *tracker.CompletionTransition
	stats      workoutRecorder
	metrics    *metrics.Manager
	now        func() time.Time
	log        *logrus.Entry

	requireRating bool

	mu             sync.Mutex
	doc            domain.Document
	nav            Navigation
	awaitingRating map[string]bool
	catalog        []domain.ExerciseTemplate
	catalogReady   chan struct{}
	closed         bool

	cancelFetch context.CancelFunc
	wg          sync.WaitGroup
}

// NewWorkspace loads the user's document and starts the catalog fetch. A
// document that cannot be read is an error; nothing is opened.
func NewWorkspace(
	ctx context.Context,
	userID primitive.ObjectID,
	store *tracker.PersistedStore,
	catalog catalogSource,
	stats workoutRecorder,
	m *metrics.Manager,
	opts WorkspaceOptions,
) (*Workspace, error) {
	if opts.Mutator == nil {
		opts.Mutator = tracker.NewMutator()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.CatalogFetchTimeout <= 0 {
		opts.CatalogFetchTimeout = 10 * time.Second
	}

	w := &Workspace{
		userID:         userID,
		store:          store,
		mutator:        opts.Mutator,
		stats:          stats,
		metrics:        m,
		now:            opts.Now,
		log:            logrus.WithFields(logrus.Fields{"user": userID.Hex(), "key": store.Key()}),
		requireRating:  opts.RequireRating,
		nav:            Navigation{View: ViewDays},
		awaitingRating: make(map[string]bool),
		catalogReady:   make(chan struct{}),
	}
	doc, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	w.doc = doc
	w.transition = tracker.NewCompletionTransition(opts.Dwell, opts.Scheduler, w.onSeriesCompleted)
	for _, s := range w.doc.Series {
		w.transition.Settle(s.ID, tracker.SeriesComplete(w.doc, s.ID))
	}

	fetchCtx, cancel := context.WithTimeout(context.Background(), opts.CatalogFetchTimeout)
	w.cancelFetch = cancel
	w.wg.Add(1)
	go w.fetchCatalog(fetchCtx, catalog)

	return w, nil
}

func (w *Workspace) fetchCatalog(ctx context.Context, catalog catalogSource) {
	defer w.wg.Done()
	defer w.cancelFetch()
	defer close(w.catalogReady)

	templates, err := catalog.GetAll(ctx)
	if err != nil {
		w.log.WithError(err).Warn("catalog fetch failed, continuing without templates")
		w.metrics.CounterCatalogFetchFailures.Inc()
		return
	}

	w.mu.Lock()
	w.catalog = templates
	w.mu.Unlock()
	w.log.WithField("templates", len(templates)).Debug("catalog fetched")
}

// Close stops pending completions and the catalog fetch, and waits for a
// stats write already in flight. Late timer fires are ignored.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.transition.Close()
	w.cancelFetch()
	w.wg.Wait()
}

// Snapshot returns the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// Catalog returns the templates fetched on open. It is empty while the
// fetch is running or after it failed.
func (w *Workspace) Catalog() []domain.ExerciseTemplate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.ExerciseTemplate(nil), w.catalog...)
}

// --- Structural events ---

func (w *Workspace) AddDay(ctx context.Context) (Snapshot, string, error) {
	var id string
	snap, err := w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		var next domain.Document
		next, id = w.mutator.AddDay(doc)
		return next, nil
	})
	return snap, id, err
}

func (w *Workspace) UpdateDay(ctx context.Context, dayID string, p tracker.DayPatch) (Snapshot, error) {
	return w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.DayByID(dayID); !ok {
			return doc, ErrDayNotFound
		}
		return w.mutator.UpdateDay(doc, dayID, p), nil
	})
}

func (w *Workspace) DeleteDay(ctx context.Context, dayID string) (Snapshot, error) {
	return w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.DayByID(dayID); !ok {
			return doc, ErrDayNotFound
		}
		return w.mutator.DeleteDay(doc, dayID), nil
	})
}

func (w *Workspace) AddSeries(ctx context.Context, dayID string) (Snapshot, string, error) {
	var id string
	snap, err := w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.DayByID(dayID); !ok {
			return doc, ErrDayNotFound
		}
		var next domain.Document
		next, id = w.mutator.AddSeries(doc, dayID)
		return next, nil
	})
	return snap, id, err
}

func (w *Workspace) UpdateSeries(ctx context.Context, seriesID string, p tracker.SeriesPatch) (Snapshot, error) {
	return w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.SeriesByID(seriesID); !ok {
			return doc, ErrSeriesNotFound
		}
		return w.mutator.UpdateSeries(doc, seriesID, p), nil
	})
}

func (w *Workspace) DeleteSeries(ctx context.Context, seriesID, dayID string) (Snapshot, error) {
	return w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.SeriesByID(seriesID); !ok {
			return doc, ErrSeriesNotFound
		}
		return w.mutator.DeleteSeries(doc, seriesID, dayID), nil
	})
}

// ResetSeries clears the progress of a series so it can be trained again.
func (w *Workspace) ResetSeries(ctx context.Context, seriesID string) (Snapshot, error) {
	return w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.SeriesByID(seriesID); !ok {
			return doc, ErrSeriesNotFound
		}
		return w.mutator.ResetSeries(doc, seriesID), nil
	})
}

// AddExercise adds an exercise from scratch, or cloned from the catalog
// template templateID. A template lookup waits for the catalog fetch.
func (w *Workspace) AddExercise(ctx context.Context, seriesID, templateID string) (Snapshot, string, error) {
	var tmpl *domain.ExerciseTemplate
	if templateID != "" {
		found, err := w.template(ctx, templateID)
		if err != nil {
			return Snapshot{}, "", err
		}
		tmpl = found
	}

	var id string
	snap, err := w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.SeriesByID(seriesID); !ok {
			return doc, ErrSeriesNotFound
		}
		var next domain.Document
		next, id = w.mutator.AddExercise(doc, seriesID, tmpl)
		return next, nil
	})
	return snap, id, err
}

func (w *Workspace) template(ctx context.Context, templateID string) (*domain.ExerciseTemplate, error) {
	select {
	case <-w.catalogReady:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.catalog {
		if w.catalog[i].ID.Hex() == templateID {
			tmpl := w.catalog[i]
			return &tmpl, nil
		}
	}
	return nil, ErrTemplateNotFound
}

func (w *Workspace) UpdateExercise(ctx context.Context, exerciseID string, p tracker.ExercisePatch) (Snapshot, error) {
	if p.Rating != nil && !tracker.ValidRating(*p.Rating) {
		return Snapshot{}, ErrInvalidRating
	}
	return w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.ExerciseByID(exerciseID); !ok {
			return doc, ErrExerciseNotFound
		}
		if p.Rating != nil {
			delete(w.awaitingRating, exerciseID)
		}
		return w.mutator.UpdateExercise(doc, exerciseID, p), nil
	})
}

func (w *Workspace) DeleteExercise(ctx context.Context, exerciseID, seriesID string) (Snapshot, error) {
	return w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.ExerciseByID(exerciseID); !ok {
			return doc, ErrExerciseNotFound
		}
		return w.mutator.DeleteExercise(doc, exerciseID, seriesID), nil
	})
}

// --- Progress events ---

// RecordRound marks one more round of the exercise as done.
func (w *Workspace) RecordRound(ctx context.Context, exerciseID string) (Snapshot, error) {
	var becameCompleted bool
	snap, err := w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		before, ok := doc.ExerciseByID(exerciseID)
		if !ok {
			return doc, ErrExerciseNotFound
		}
		next := w.mutator.RecordRoundCompletion(doc, exerciseID)
		after, _ := next.ExerciseByID(exerciseID)
		becameCompleted = !before.Completed && after.Completed
		if becameCompleted && w.requireRating {
			w.awaitingRating[exerciseID] = true
		}
		return next, nil
	})
	if err == nil {
		w.metrics.CounterRoundsCompleted.Inc()
	}
	return snap, err
}

// RateExercise stores a 1..5 rating. With ratings required, rating the last
// awaiting exercise is what completes the series.
func (w *Workspace) RateExercise(ctx context.Context, exerciseID string, rating int) (Snapshot, error) {
	if !tracker.ValidRating(rating) {
		return Snapshot{}, ErrInvalidRating
	}
	return w.apply(ctx, func(doc domain.Document) (domain.Document, error) {
		if _, ok := doc.ExerciseByID(exerciseID); !ok {
			return doc, ErrExerciseNotFound
		}
		delete(w.awaitingRating, exerciseID)
		return w.mutator.UpdateExercise(doc, exerciseID, tracker.ExercisePatch{Rating: &rating}), nil
	})
}

// --- Navigation events ---

func (w *Workspace) OpenDay(dayID string) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Snapshot{}, ErrWorkspaceClosed
	}
	if _, ok := w.doc.DayByID(dayID); !ok {
		return Snapshot{}, ErrDayNotFound
	}
	w.nav = Navigation{View: ViewDay, DayID: dayID}
	return w.snapshot(), nil
}

func (w *Workspace) OpenSeries(seriesID string) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Snapshot{}, ErrWorkspaceClosed
	}
	day, ok := tracker.DayOf(w.doc, seriesID)
	if !ok {
		return Snapshot{}, ErrSeriesNotFound
	}
	w.nav = Navigation{View: ViewSeries, DayID: day.ID, SeriesID: seriesID}
	return w.snapshot(), nil
}

// Back goes from a series to its day and from a day to the day list.
func (w *Workspace) Back() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Snapshot{}, ErrWorkspaceClosed
	}
	switch w.nav.View {
	case ViewSeries:
		w.nav = Navigation{View: ViewDay, DayID: w.nav.DayID}
	default:
		w.nav = Navigation{View: ViewDays}
	}
	return w.snapshot(), nil
}

// --- internals ---

// apply runs one mutation, saves the result and only then makes it current.
// A failed save leaves the in-memory document untouched.
func (w *Workspace) apply(ctx context.Context, mutate func(domain.Document) (domain.Document, error)) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Snapshot{}, ErrWorkspaceClosed
	}

	awaitingBefore := make(map[string]bool, len(w.awaitingRating))
	for id := range w.awaitingRating {
		awaitingBefore[id] = true
	}

	next, err := mutate(w.doc)
	if err != nil {
		w.awaitingRating = awaitingBefore
		return Snapshot{}, err
	}
	if err := w.store.Save(ctx, next); err != nil {
		w.awaitingRating = awaitingBefore
		w.metrics.CounterSaveFailures.Inc()
		w.log.WithError(err).Error("tracker document not saved")
		return Snapshot{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	w.doc = next
	w.pruneAwaiting()
	w.fixNavigation()
	w.observe()
	return w.snapshot(), nil
}

// pruneAwaiting drops exercises that are gone or no longer completed.
func (w *Workspace) pruneAwaiting() {
	for id := range w.awaitingRating {
		ex, ok := w.doc.ExerciseByID(id)
		if !ok || !ex.Completed {
			delete(w.awaitingRating, id)
		}
	}
}

// fixNavigation leaves screens whose day or series was deleted.
func (w *Workspace) fixNavigation() {
	if w.nav.View == ViewDays {
		return
	}
	day, ok := w.doc.DayByID(w.nav.DayID)
	if !ok {
		w.nav = Navigation{View: ViewDays}
		return
	}
	if w.nav.View == ViewSeries && !containsID(day.SeriesIDs, w.nav.SeriesID) {
		w.nav = Navigation{View: ViewDay, DayID: day.ID}
	}
}

// observe feeds every series into the completion machine.
func (w *Workspace) observe() {
	for _, s := range w.doc.Series {
		w.transition.Observe(s.ID, w.seriesComplete(s))
	}
}

func (w *Workspace) seriesComplete(s domain.Series) bool {
	if !tracker.SeriesComplete(w.doc, s.ID) {
		return false
	}
	for _, id := range s.ExerciseIDs {
		if w.awaitingRating[id] {
			return false
		}
	}
	return true
}

// onSeriesCompleted runs on the dwell timer. It opens the next series of the
// day, or returns to the day and records a finished workout after the last.
func (w *Workspace) onSeriesCompleted(seriesID string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.metrics.CounterSeriesCompleted.Inc()

	adv, ok := tracker.ResolveAdvance(w.doc, seriesID)
	if !ok {
		w.mu.Unlock()
		return
	}
	if w.nav.View == ViewSeries && w.nav.SeriesID == seriesID {
		if adv.NextSeriesID != "" {
			w.nav = Navigation{View: ViewSeries, DayID: adv.DayID, SeriesID: adv.NextSeriesID}
		} else {
			w.nav = Navigation{View: ViewDay, DayID: adv.DayID}
		}
	}

	finished := adv.NextSeriesID == ""
	exercises := 0
	if finished {
		day, _ := w.doc.DayByID(adv.DayID)
		for _, s := range w.doc.SeriesOf(day) {
			exercises += len(s.ExerciseIDs)
		}
	}
	now := w.now()
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	w.log.WithFields(logrus.Fields{"series": seriesID, "next": adv.NextSeriesID}).Info("series completed")
	if !finished || w.stats == nil {
		return
	}

	w.metrics.CounterWorkoutsFinished.Inc()
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()
	if _, err := w.stats.RecordWorkout(ctx, w.userID, exercises, now); err != nil {
		w.log.WithError(err).Warn("failed to record finished workout")
	}
}

func (w *Workspace) snapshot() Snapshot {
	snap := Snapshot{
		Document:       w.doc.Clone(),
		Navigation:     w.nav,
		AwaitingRating: []string{},
	}
	if w.nav.View == ViewSeries {
		if s, ok := w.doc.SeriesByID(w.nav.SeriesID); ok {
			snap.ProgressPercent = tracker.ProgressPercent(s.Progress)
			snap.Celebrating = w.transition.State(s.ID) == tracker.AllComplete
		}
	}
	for _, ex := range w.doc.Exercises {
		if w.awaitingRating[ex.ID] {
			snap.AwaitingRating = append(snap.AwaitingRating, ex.ID)
		}
	}
	select {
	case <-w.catalogReady:
		snap.CatalogReady = true
	default:
	}
	return snap
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
