package repository

import (
	"alcyxob/gym-tracker/internal/domain" // Import our defined domain models
	"context"                             // Standard for request-scoped deadlines, cancellation signals, etc.

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrCorrupt      = RepositoryError("stored document is corrupt")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error
	UpdateStats(ctx context.Context, id primitive.ObjectID, stats domain.WorkoutStats) error
}

// CatalogFilter narrows a catalog listing. Empty fields match everything.
type CatalogFilter struct {
	MuscleGroup string
	Difficulty  domain.Difficulty
}

// CatalogRepository defines the interface for the shared exercise catalog.
type CatalogRepository interface {
	Create(ctx context.Context, tmpl *domain.ExerciseTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error)
	List(ctx context.Context, filter CatalogFilter) ([]domain.ExerciseTemplate, error)
	Update(ctx context.Context, tmpl *domain.ExerciseTemplate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// DocumentRepository is a key-value slot holding whole tracker documents.
// Get returns ErrNotFound for an empty slot and wraps ErrCorrupt when the
// stored bytes cannot be decoded. Put replaces the slot atomically.
type DocumentRepository interface {
	Get(ctx context.Context, key string) (*domain.Document, error)
	Put(ctx context.Context, key string, doc *domain.Document) error
}
