package service_test

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/tracker"
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2024, 3, 11, 18, 30, 0, 0, time.UTC)

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = testNow
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := []domain.User{}
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (r *fakeUserRepo) update(id primitive.ObjectID, f func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	f(&u)
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id primitive.ObjectID, role domain.Role) error {
	return r.update(id, func(u *domain.User) { u.Role = role })
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id primitive.ObjectID) error {
	return r.update(id, func(u *domain.User) { now := testNow; u.LastLogin = &now })
}

func (r *fakeUserRepo) UpdateStats(_ context.Context, id primitive.ObjectID, stats domain.WorkoutStats) error {
	return r.update(id, func(u *domain.User) { u.Stats = stats })
}

// --- catalog ---

type fakeCatalogRepo struct {
	mu        sync.Mutex
	templates map[primitive.ObjectID]domain.ExerciseTemplate
	listErr   error
	block     chan struct{} // List waits on it when set
}

func newFakeCatalogRepo(templates ...domain.ExerciseTemplate) *fakeCatalogRepo {
	r := &fakeCatalogRepo{templates: make(map[primitive.ObjectID]domain.ExerciseTemplate)}
	for _, t := range templates {
		r.templates[t.ID] = t
	}
	return r
}

func (r *fakeCatalogRepo) Create(_ context.Context, tmpl *domain.ExerciseTemplate) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tmpl.ID = primitive.NewObjectID()
	r.templates[tmpl.ID] = *tmpl
	return tmpl.ID, nil
}

func (r *fakeCatalogRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *fakeCatalogRepo) List(ctx context.Context, f repository.CatalogFilter) ([]domain.ExerciseTemplate, error) {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []domain.ExerciseTemplate{}
	for _, t := range r.templates {
		if f.MuscleGroup != "" && t.MuscleGroup != f.MuscleGroup {
			continue
		}
		if f.Difficulty != "" && t.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCatalogRepo) Update(_ context.Context, tmpl *domain.ExerciseTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[tmpl.ID]; !ok {
		return repository.ErrNotFound
	}
	r.templates[tmpl.ID] = *tmpl
	return nil
}

func (r *fakeCatalogRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

// --- documents ---

type fakeDocumentRepo struct {
	mu      sync.Mutex
	docs    map[string]domain.Document
	getErrs []error // returned by the next Gets, one each
	putErr  error
	puts    int

	blockKey string
	block    chan struct{} // Get of blockKey waits on it when set
	entered  chan struct{} // receives once Get of blockKey is waiting
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[string]domain.Document)}
}

func (r *fakeDocumentRepo) Get(ctx context.Context, key string) (*domain.Document, error) {
	r.mu.Lock()
	block := r.block
	if key != r.blockKey {
		block = nil
	}
	entered := r.entered
	r.mu.Unlock()
	if block != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.getErrs) > 0 {
		err := r.getErrs[0]
		r.getErrs = r.getErrs[1:]
		return nil, err
	}
	doc, ok := r.docs[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	doc = doc.Clone()
	return &doc, nil
}

func (r *fakeDocumentRepo) Put(_ context.Context, key string, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.puts++
	r.docs[key] = doc.Clone()
	return nil
}

func (r *fakeDocumentRepo) failNextGet(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getErrs = append(r.getErrs, err)
}

func (r *fakeDocumentRepo) blockGet(key string) (release func(), entered <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blockKey = key
	r.block = make(chan struct{})
	r.entered = make(chan struct{}, 1)
	return func() { close(r.block) }, r.entered
}

func (r *fakeDocumentRepo) setPutErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putErr = err
}

// --- dwell timer ---

type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

type manualTimer struct{}

func (manualTimer) Stop() bool { return true }

func (s *manualScheduler) Schedule(_ time.Duration, f func()) tracker.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
	return manualTimer{}
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *manualScheduler) FireAll() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

// sequentialMutator produces ids id-1, id-2, ... at testNow.
func sequentialMutator() *tracker.Mutator {
	n := 0
	return &tracker.Mutator{
		NewID: func() string {
			n++
			return "id-" + strconv.Itoa(n)
		},
		Now: func() time.Time { return testNow },
	}
}
