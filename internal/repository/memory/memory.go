// Package memory provides map-backed repositories for running the server
// without MongoDB. Data lives only as long as the process.
package memory

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind one lock.
type Store struct {
	mu        sync.RWMutex
	users     map[primitive.ObjectID]domain.User
	templates map[primitive.ObjectID]domain.ExerciseTemplate
	documents map[string]domain.Document
}

func NewStore() *Store {
	return &Store{
		users:     map[primitive.ObjectID]domain.User{},
		templates: map[primitive.ObjectID]domain.ExerciseTemplate{},
		documents: map[string]domain.Document{},
	}
}

// Users returns the store as a repository.UserRepository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Catalog returns the store as a repository.CatalogRepository.
func (s *Store) Catalog() repository.CatalogRepository { return catalogRepo{s} }

// Documents returns the store as a repository.DocumentRepository.
func (s *Store) Documents() repository.DocumentRepository { return documentRepo{s} }

// --- users ---

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return user.ID, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r userRepo) update(id primitive.ObjectID, apply func(*domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	apply(&u)
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

func (r userRepo) UpdateRole(_ context.Context, id primitive.ObjectID, role domain.Role) error {
	return r.update(id, func(u *domain.User) { u.Role = role })
}

func (r userRepo) UpdateLastLogin(_ context.Context, id primitive.ObjectID) error {
	return r.update(id, func(u *domain.User) {
		now := time.Now().UTC()
		u.LastLogin = &now
	})
}

func (r userRepo) UpdateStats(_ context.Context, id primitive.ObjectID, stats domain.WorkoutStats) error {
	return r.update(id, func(u *domain.User) { u.Stats = stats })
}

// --- catalog ---

type catalogRepo struct{ s *Store }

func (r catalogRepo) Create(_ context.Context, tmpl *domain.ExerciseTemplate) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	tmpl.ID = primitive.NewObjectID()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	r.s.templates[tmpl.ID] = *tmpl
	return tmpl.ID, nil
}

func (r catalogRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r catalogRepo) List(_ context.Context, f repository.CatalogFilter) ([]domain.ExerciseTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.ExerciseTemplate{}
	for _, t := range r.s.templates {
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

func (r catalogRepo) Update(_ context.Context, tmpl *domain.ExerciseTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.templates[tmpl.ID]
	if !ok {
		return repository.ErrNotFound
	}
	tmpl.CreatedAt = existing.CreatedAt
	tmpl.UpdatedAt = time.Now().UTC()
	r.s.templates[tmpl.ID] = *tmpl
	return nil
}

func (r catalogRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.templates, id)
	return nil
}

// --- tracker documents ---

type documentRepo struct{ s *Store }

func (r documentRepo) Get(_ context.Context, key string) (*domain.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	doc, ok := r.s.documents[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	doc = doc.Clone()
	return &doc, nil
}

func (r documentRepo) Put(_ context.Context, key string, doc *domain.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.documents[key] = doc.Clone()
	return nil
}
