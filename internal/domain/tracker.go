// internal/domain/tracker.go
package domain

import "time"

// Day is a named, dated workout session. It owns its series by reference.
type Day struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Date      time.Time `bson:"date" json:"date"`
	SeriesIDs []string  `bson:"seriesIds" json:"seriesIds"` // Ordered; completion advances through this order
}

// SeriesIcon names the icon shown next to a series.
type SeriesIcon string

const (
	IconLayers   SeriesIcon = "layers"
	IconDumbbell SeriesIcon = "dumbbell"
	IconRunning  SeriesIcon = "running"
	IconHeart    SeriesIcon = "heart"
	IconZap      SeriesIcon = "zap"
	IconTarget   SeriesIcon = "target"
	IconFlame    SeriesIcon = "flame"
	IconActivity SeriesIcon = "activity"
)

// Valid reports whether the icon is one of the known icons.
func (i SeriesIcon) Valid() bool {
	switch i {
	case IconLayers, IconDumbbell, IconRunning, IconHeart, IconZap, IconTarget, IconFlame, IconActivity:
		return true
	}
	return false
}

// Series is a group of exercises performed together for a fixed number of rounds.
type Series struct {
	ID          string     `bson:"id" json:"id"`
	Name        string     `bson:"name" json:"name"`
	Rounds      int        `bson:"rounds" json:"rounds"` // Target rounds per exercise, >= 1
	ExerciseIDs []string   `bson:"exerciseIds" json:"exerciseIds"`
	Icon        SeriesIcon `bson:"icon" json:"icon"`
	Progress    float64    `bson:"progress" json:"progress"` // Derived from member exercises, never set directly
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Exercise is a single movement instance inside one series.
type Exercise struct {
	ID            string    `bson:"id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	VideoURL      string    `bson:"videoUrl" json:"videoUrl"`
	Bilateral     bool      `bson:"bilateral" json:"bilateral"`
	Reps          int       `bson:"reps" json:"reps"`
	Duration      int       `bson:"duration" json:"duration"` // Seconds
	Load          float64   `bson:"load" json:"load"`         // Kilograms
	Completed     bool      `bson:"completed" json:"completed"`
	CompletedReps int       `bson:"completedReps" json:"completedReps"` // Rounds executed so far
	Rating        *int      `bson:"rating,omitempty" json:"rating,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Document is the whole tracker state of one user, persisted as a unit.
type Document struct {
	Days      []Day      `bson:"days" json:"days"`
	Series    []Series   `bson:"series" json:"series"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

// Clone returns a deep copy so callers can derive a new document without
// touching the receiver.
func (d Document) Clone() Document {
	out := Document{
		Days:      make([]Day, len(d.Days)),
		Series:    make([]Series, len(d.Series)),
		Exercises: make([]Exercise, len(d.Exercises)),
	}
	for i, day := range d.Days {
		day.SeriesIDs = cloneIDs(day.SeriesIDs)
		out.Days[i] = day
	}
	for i, s := range d.Series {
		s.ExerciseIDs = cloneIDs(s.ExerciseIDs)
		out.Series[i] = s
	}
	for i, e := range d.Exercises {
		if e.Rating != nil {
			r := *e.Rating
			e.Rating = &r
		}
		out.Exercises[i] = e
	}
	return out
}

// cloneIDs copies ids, keeping an empty list empty rather than nil.
func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	return append(make([]string, 0, len(ids)), ids...)
}

// DayByID returns the day with the given id.
func (d Document) DayByID(id string) (Day, bool) {
	for _, day := range d.Days {
		if day.ID == id {
			return day, true
		}
	}
	return Day{}, false
}

// SeriesByID returns the series with the given id.
func (d Document) SeriesByID(id string) (Series, bool) {
	for _, s := range d.Series {
		if s.ID == id {
			return s, true
		}
	}
	return Series{}, false
}

// ExerciseByID returns the exercise with the given id.
func (d Document) ExerciseByID(id string) (Exercise, bool) {
	for _, e := range d.Exercises {
		if e.ID == id {
			return e, true
		}
	}
	return Exercise{}, false
}

// ExercisesOf returns the exercises of a series in declared order.
// Dangling ids are skipped.
func (d Document) ExercisesOf(s Series) []Exercise {
	out := make([]Exercise, 0, len(s.ExerciseIDs))
	for _, id := range s.ExerciseIDs {
		if e, ok := d.ExerciseByID(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// SeriesOf returns the series of a day in declared order.
func (d Document) SeriesOf(day Day) []Series {
	out := make([]Series, 0, len(day.SeriesIDs))
	for _, id := range day.SeriesIDs {
		if s, ok := d.SeriesByID(id); ok {
			out = append(out, s)
		}
	}
	return out
}
