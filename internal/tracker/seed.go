package tracker

import (
	"time"

	"alcyxob/gym-tracker/internal/domain"
)

// InitialDocument is the sample workout a new user starts with.
func InitialDocument(now time.Time) domain.Document {
	return domain.Document{
		Days: []domain.Day{
			{
				ID:        "day-1",
				Name:      "Upper Body Day",
				Date:      now,
				SeriesIDs: []string{"series-1", "series-2"},
			},
		},
		Series: []domain.Series{
			{
				ID:          "series-1",
				Name:        "Warm-up",
				Rounds:      2,
				ExerciseIDs: []string{"exercise-1", "exercise-2"},
				Icon:        domain.IconLayers,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
			{
				ID:          "series-2",
				Name:        "Main Workout",
				Rounds:      3,
				ExerciseIDs: []string{"exercise-3"},
				Icon:        domain.IconDumbbell,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		},
		Exercises: []domain.Exercise{
			{
				ID:        "exercise-1",
				Name:      "Push-ups",
				Reps:      10,
				Bilateral: true,
				VideoURL:  "https://www.youtube.com/watch?v=IODxDxX7oi4",
				CreatedAt: now,
				UpdatedAt: now,
			},
			{
				ID:        "exercise-2",
				Name:      "Arm Circles",
				Duration:  30,
				Bilateral: true,
				VideoURL:  "https://www.youtube.com/shorts/Xyd_fa5zoEU",
				CreatedAt: now,
				UpdatedAt: now,
			},
			{
				ID:        "exercise-3",
				Name:      "Dumbbell Bench Press",
				Reps:      12,
				Load:      20,
				Bilateral: true,
				VideoURL:  "https://www.youtube.com/watch?v=VmB1G1K7v94",
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}
}
