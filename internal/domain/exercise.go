// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty grades a catalog exercise.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ExerciseTemplate is an admin-curated exercise definition in the shared catalog.
// Templates are cloned into a series, never referenced.
type ExerciseTemplate struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	MuscleGroup  string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g., "Chest", "Legs", "Back"
	Equipment    []string           `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Difficulty   Difficulty         `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Instructions []string           `bson:"instructions,omitempty" json:"instructions,omitempty"`
	VideoURL     string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	ImageURL     string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
