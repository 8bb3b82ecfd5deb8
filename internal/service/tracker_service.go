package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/tracker"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

// defaultLoadTimeout bounds the document read when a workspace opens.
const defaultLoadTimeout = 10 * time.Second

// TrackerOptions configures every workspace opened by the tracker service.
type TrackerOptions struct {
	StorageKey          string
	Dwell               time.Duration
	RequireRating       bool
	SeedInitialData     bool
	CatalogFetchTimeout time.Duration
	LoadTimeout         time.Duration

	// Test hooks; nil means real time and random ids.
	Scheduler tracker.Scheduler
	Mutator   *tracker.Mutator
	Now       func() time.Time
}

// TrackerService keeps one open Workspace per signed-in user.
type TrackerService interface {
	// Workspace returns the user's open workspace, loading it on first use.
	// A failed load is not cached; the next call tries again.
	Workspace(ctx context.Context, userID primitive.ObjectID) (*Workspace, error)
	// Evict closes the user's workspace. The next call to Workspace reloads it.
	Evict(userID primitive.ObjectID)
	// Close closes every workspace.
	Close()
}

type trackerService struct {
	documents repository.DocumentRepository
	catalog   CatalogService
	users     UserService
	metrics   *metrics.Manager
	opts      TrackerOptions

	loads singleflight.Group

	mu         sync.Mutex
	workspaces map[primitive.ObjectID]*Workspace
	closed     bool
}

func NewTrackerService(
	documents repository.DocumentRepository,
	catalog CatalogService,
	users UserService,
	m *metrics.Manager,
	opts TrackerOptions,
) TrackerService {
	if opts.StorageKey == "" {
		opts.StorageKey = "gym-tracker-data"
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	return &trackerService{
		documents:  documents,
		catalog:    catalog,
		users:      users,
		metrics:    m,
		opts:       opts,
		workspaces: make(map[primitive.ObjectID]*Workspace),
	}
}

// SlotKey is the document slot of one user.
func SlotKey(storageKey string, userID primitive.ObjectID) string {
	return fmt.Sprintf("%s:%s", storageKey, userID.Hex())
}

func (s *trackerService) Workspace(ctx context.Context, userID primitive.ObjectID) (*Workspace, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrWorkspaceClosed
	}
	if ws, ok := s.workspaces[userID]; ok {
		s.mu.Unlock()
		return ws, nil
	}
	s.mu.Unlock()

	// Concurrent opens of one user share a load detached from the caller's ctx.
	ch := s.loads.DoChan(userID.Hex(), func() (interface{}, error) {
		return s.open(userID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Workspace), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// open loads the user's workspace outside s.mu and registers it.
func (s *trackerService) open(userID primitive.ObjectID) (*Workspace, error) {
	s.mu.Lock()
	if ws, ok := s.workspaces[userID]; ok {
		s.mu.Unlock()
		return ws, nil
	}
	s.mu.Unlock()

	fallback := tracker.EmptyDocument
	if s.opts.SeedInitialData {
		now := s.opts.Now
		if now == nil {
			now = time.Now
		}
		fallback = func() domain.Document { return tracker.InitialDocument(now().UTC()) }
	}
	store := tracker.NewPersistedStore(s.documents, SlotKey(s.opts.StorageKey, userID), fallback)

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.LoadTimeout)
	defer cancel()
	ws, err := NewWorkspace(ctx, userID, store, s.catalog, s.users, s.metrics, WorkspaceOptions{
		Dwell:               s.opts.Dwell,
		Scheduler:           s.opts.Scheduler,
		RequireRating:       s.opts.RequireRating,
		CatalogFetchTimeout: s.opts.CatalogFetchTimeout,
		Mutator:             s.opts.Mutator,
		Now:                 s.opts.Now,
	})
	if err != nil {
		s.metrics.CounterLoadFailures.Inc()
		logrus.WithError(err).WithField("user", userID.Hex()).Error("workspace not opened")
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ws.Close()
		return nil, ErrWorkspaceClosed
	}
	s.workspaces[userID] = ws
	s.metrics.GaugeWorkspaces.Set(float64(len(s.workspaces)))
	s.mu.Unlock()

	logrus.WithField("user", userID.Hex()).Debug("workspace opened")
	return ws, nil
}

func (s *trackerService) Evict(userID primitive.ObjectID) {
	s.mu.Lock()
	ws, ok := s.workspaces[userID]
	delete(s.workspaces, userID)
	s.metrics.GaugeWorkspaces.Set(float64(len(s.workspaces)))
	s.mu.Unlock()

	if ok {
		ws.Close()
		logrus.WithField("user", userID.Hex()).Debug("workspace closed")
	}
}

func (s *trackerService) Close() {
	s.mu.Lock()
	s.closed = true
	open := s.workspaces
	s.workspaces = make(map[primitive.ObjectID]*Workspace)
	s.metrics.GaugeWorkspaces.Set(0)
	s.mu.Unlock()

	for _, ws := range open {
		ws.Close()
	}
	logrus.WithField("workspaces", len(open)).Info("tracker workspaces closed")
}
