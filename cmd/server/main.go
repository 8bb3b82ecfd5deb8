package main

import (
	"alcyxob/gym-tracker/internal/api"
	"alcyxob/gym-tracker/internal/config"
	"alcyxob/gym-tracker/internal/logging"
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/repository/memory"
	"alcyxob/gym-tracker/internal/repository/mongo"
	"alcyxob/gym-tracker/internal/service"
	"alcyxob/gym-tracker/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// repositories are the persistence backends selected by configuration.
type repositories struct {
	users     repository.UserRepository
	catalog   repository.CatalogRepository
	documents repository.DocumentRepository
	media     storage.MediaStorage
	close     func()
}

// @title Gym Tracker API
// @version 1.0
// @description API for planning training days, tracking series and rounds, and browsing the exercise catalog.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("could not load config: %v", err)
	}
	logging.Setup(cfg.Log)
	logrus.Info("starting gym tracker server...")

	if cfg.JWT.Secret == "" {
		logrus.Fatal("jwt.secret must be set (JWT_SECRET)")
	}

	// --- Repositories ---
	repos, err := openRepositories(cfg)
	if err != nil {
		logrus.Fatalf("could not open storage: %v", err)
	}
	defer repos.close()

	// --- Metrics ---
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("gym", "tracker", promRegistry)

	// --- Services ---
	authService := service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration)
	userService := service.NewUserService(repos.users)
	catalogService := service.NewCatalogService(repos.catalog, repos.media)
	trackerService := service.NewTrackerService(repos.documents, catalogService, userService, metricsManager, service.TrackerOptions{
		StorageKey:          cfg.Tracker.StorageKey,
		Dwell:               cfg.Tracker.CompletionDwell,
		RequireRating:       cfg.Tracker.RequireRating,
		SeedInitialData:     cfg.Tracker.SeedInitialData,
		CatalogFetchTimeout: cfg.Catalog.FetchTimeout,
		LoadTimeout:         cfg.Tracker.LoadTimeout,
	})

	if cfg.Admin.Email != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := authService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		cancel()
		if err != nil {
			logrus.Fatalf("could not bootstrap admin %s: %v", cfg.Admin.Email, err)
		}
	}

	// --- Gin Engine ---
	if logging.GetLevel(cfg.Log.Level) < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logging.GinLogger(), gin.Recovery(), metricsManager.GinMiddleware())
	router.GET("/metrics", gin.WrapH(metrics.Handler(promRegistry)))

	api.SetupRoutes(router, api.Services{
		Auth:    authService,
		Users:   userService,
		Catalog: catalogService,
		Tracker: trackerService,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.Infof(" > server listening on: [%s]", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("listen and serve: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logrus.Errorf("server forced to shutdown: %v", err)
	}
	// Pending completions are dropped; every event was already saved.
	trackerService.Close()

	logrus.Info("server exiting")
}

func openRepositories(cfg config.Config) (*repositories, error) {
	repos := &repositories{close: func() {}}

	// 1. Users, catalog and (by default) tracker documents
	if cfg.Database.InMemory {
		logrus.Warn("using in-memory storage, all data is lost on restart")
		store := memory.NewStore()
		repos.users = store.Users()
		repos.catalog = store.Catalog()
		repos.documents = store.Documents()
	} else {
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		repos.close = func() {
			logrus.Info("disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				logrus.Errorf("failed to disconnect MongoDB: %v", err)
			}
		}
		appDB := dbClient.Database(cfg.Database.Name)
		logrus.WithField("database", cfg.Database.Name).Info("database connection established")

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			mongo.EnsureIndexes(ctx, appDB)
		}()

		repos.users = mongo.NewMongoUserRepository(appDB)
		repos.catalog = mongo.NewMongoCatalogRepository(appDB)
		repos.documents = mongo.NewMongoDocumentRepository(appDB)
	}

	// 2. Object storage is optional unless tracker documents live there
	var s3Client *s3.Client
	if cfg.S3.BucketName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := storage.NewS3Client(ctx, cfg.S3)
		cancel()
		if err != nil {
			repos.close()
			return nil, fmt.Errorf("initialize S3: %w", err)
		}
		s3Client = client
		repos.media = storage.NewS3MediaStorage(s3Client, cfg.S3.BucketName)
	}

	switch cfg.Tracker.Backend {
	case config.BackendS3:
		if s3Client == nil {
			repos.close()
			return nil, fmt.Errorf("tracker.backend is %q but s3.bucket_name is empty", config.BackendS3)
		}
		repos.documents = storage.NewS3DocumentRepository(s3Client, cfg.S3.BucketName)
	case config.BackendMongo, "":
	default:
		repos.close()
		return nil, fmt.Errorf("unknown tracker.backend %q", cfg.Tracker.Backend)
	}
	logrus.WithFields(logrus.Fields{
		"backend":   cfg.Tracker.Backend,
		"in_memory": cfg.Database.InMemory,
		"media":     repos.media != nil,
	}).Info("storage ready")

	return repos, nil
}
