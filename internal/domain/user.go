package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account of the tracker (regular user or administrator).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`

	Stats WorkoutStats `bson:"stats" json:"stats"`
}

// WorkoutStats aggregates finished workouts of a user.
type WorkoutStats struct {
	TotalWorkouts   int        `bson:"totalWorkouts" json:"totalWorkouts"`
	TotalExercises  int        `bson:"totalExercises" json:"totalExercises"`
	Streak          int        `bson:"streak" json:"streak"` // Consecutive calendar days with a finished workout
	LastWorkoutDate *time.Time `bson:"lastWorkoutDate,omitempty" json:"lastWorkoutDate,omitempty"`
}

// RecordWorkout returns the stats after a workout with the given number of
// exercises finished at now. A workout on the day after the last one extends
// the streak, a second workout on the same day keeps it, anything else
// restarts it at 1.
func (s WorkoutStats) RecordWorkout(exercises int, now time.Time) WorkoutStats {
	today := truncateDay(now)
	streak := 1
	if s.LastWorkoutDate != nil {
		last := truncateDay(s.LastWorkoutDate.In(now.Location()))
		switch {
		case last.Equal(today):
			streak = s.Streak
		case last.AddDate(0, 0, 1).Equal(today):
			streak = s.Streak + 1
		}
	}
	if streak < 1 {
		streak = 1
	}
	return WorkoutStats{
		TotalWorkouts:   s.TotalWorkouts + 1,
		TotalExercises:  s.TotalExercises + exercises,
		Streak:          streak,
		LastWorkoutDate: &now,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Helper methods (Optional but can be useful)
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
