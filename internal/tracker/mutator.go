// Package tracker holds the workout-progress core: structural edits of the
// day → series → exercise hierarchy, round completion and series progress,
// and the series completion state machine.
//
// Every operation takes a domain.Document and returns a new one. The input is
// never modified, and an id that does not exist turns the operation into a
// no-op that hands back the input unchanged.
package tracker

import (
	"fmt"
	"time"

	"alcyxob/gym-tracker/internal/domain"

	"github.com/google/uuid"
)

// DefaultRounds is the number of rounds a new series starts with.
const DefaultRounds = 3

// Mutator applies structural and progress changes to a document.
// NewID and Now are injectable so tests can pin ids and timestamps.
type Mutator struct {
	NewID func() string
	Now   func() time.Time
}

// NewMutator returns a Mutator generating UUIDs and UTC timestamps.
func NewMutator() *Mutator {
	return &Mutator{
		NewID: uuid.NewString,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// DayPatch lists the day fields to change. Nil fields are left alone.
type DayPatch struct {
	Name *string
	Date *time.Time
}

// SeriesPatch lists the series fields to change. Nil fields are left alone.
// Progress and membership are not patchable.
type SeriesPatch struct {
	Name   *string
	Rounds *int
	Icon   *domain.SeriesIcon
}

// ExercisePatch lists the exercise fields to change. Nil fields are left alone.
// Completion state is not patchable.
type ExercisePatch struct {
	Name      *string
	VideoURL  *string
	Bilateral *bool
	Reps      *int
	Duration  *int
	Load      *float64
	Rating    *int
}

// AddDay appends an empty day and returns its id.
func (m *Mutator) AddDay(doc domain.Document) (domain.Document, string) {
	out := doc.Clone()
	day := domain.Day{
		ID:        m.NewID(),
		Name:      fmt.Sprintf("Day %d", len(doc.Days)+1),
		Date:      m.Now(),
		SeriesIDs: []string{},
	}
	out.Days = append(out.Days, day)
	return out, day.ID
}

// AddSeries appends a new series to the day and returns its id.
func (m *Mutator) AddSeries(doc domain.Document, dayID string) (domain.Document, string) {
	di := dayIndex(doc, dayID)
	if di < 0 {
		return doc, ""
	}

	out := doc.Clone()
	now := m.Now()
	s := domain.Series{
		ID:          m.NewID(),
		Name:        fmt.Sprintf("Series %d", len(doc.Days[di].SeriesIDs)+1),
		Rounds:      DefaultRounds,
		ExerciseIDs: []string{},
		Icon:        domain.IconLayers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	out.Series = append(out.Series, s)
	out.Days[di].SeriesIDs = append(out.Days[di].SeriesIDs, s.ID)
	return out, s.ID
}

// AddExercise appends a new exercise to the series and returns its id.
// With a template the exercise is a fresh copy of it; the template itself is
// never touched.
func (m *Mutator) AddExercise(doc domain.Document, seriesID string, tmpl *domain.ExerciseTemplate) (domain.Document, string) {
	si := seriesIndex(doc, seriesID)
	if si < 0 {
		return doc, ""
	}

	out := doc.Clone()
	now := m.Now()
	ex := domain.Exercise{
		ID:        m.NewID(),
		Name:      fmt.Sprintf("Exercise %d", len(doc.Exercises)+1),
		Bilateral: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if tmpl != nil {
		ex.Name = tmpl.Name
		ex.VideoURL = tmpl.VideoURL
	}

	out.Exercises = append(out.Exercises, ex)
	out.Series[si].ExerciseIDs = append(out.Series[si].ExerciseIDs, ex.ID)
	out.Series[si].UpdatedAt = now
	recomputeProgress(&out, si)
	return out, ex.ID
}

// UpdateDay merges the patch into the day.
func (m *Mutator) UpdateDay(doc domain.Document, dayID string, p DayPatch) domain.Document {
	di := dayIndex(doc, dayID)
	if di < 0 {
		return doc
	}

	out := doc.Clone()
	day := &out.Days[di]
	if p.Name != nil {
		day.Name = *p.Name
	}
	if p.Date != nil {
		day.Date = *p.Date
	}
	return out
}

// UpdateSeries merges the patch into the series. A rounds value below 1 and
// an unknown icon are ignored. Changing rounds re-derives the completion of
// every member exercise and the series progress.
func (m *Mutator) UpdateSeries(doc domain.Document, seriesID string, p SeriesPatch) domain.Document {
	si := seriesIndex(doc, seriesID)
	if si < 0 {
		return doc
	}

	out := doc.Clone()
	s := &out.Series[si]
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Icon != nil && p.Icon.Valid() {
		s.Icon = *p.Icon
	}
	if p.Rounds != nil && *p.Rounds >= 1 && *p.Rounds != s.Rounds {
		s.Rounds = *p.Rounds
		for _, id := range s.ExerciseIDs {
			if ei := exerciseIndex(out, id); ei >= 0 {
				out.Exercises[ei].Completed = out.Exercises[ei].CompletedReps >= s.Rounds
			}
		}
		recomputeProgress(&out, si)
	}
	s.UpdatedAt = m.Now()
	return out
}

// UpdateExercise merges the patch into the exercise. A rating outside 1..5
// is ignored.
func (m *Mutator) UpdateExercise(doc domain.Document, exerciseID string, p ExercisePatch) domain.Document {
	ei := exerciseIndex(doc, exerciseID)
	if ei < 0 {
		return doc
	}

	out := doc.Clone()
	ex := &out.Exercises[ei]
	if p.Name != nil {
		ex.Name = *p.Name
	}
	if p.VideoURL != nil {
		ex.VideoURL = *p.VideoURL
	}
	if p.Bilateral != nil {
		ex.Bilateral = *p.Bilateral
	}
	if p.Reps != nil {
		ex.Reps = *p.Reps
	}
	if p.Duration != nil {
		ex.Duration = *p.Duration
	}
	if p.Load != nil {
		ex.Load = *p.Load
	}
	if p.Rating != nil && ValidRating(*p.Rating) {
		r := *p.Rating
		ex.Rating = &r
	}
	ex.UpdatedAt = m.Now()
	return out
}

// ValidRating reports whether r is an accepted exercise rating.
func ValidRating(r int) bool {
	return r >= 1 && r <= 5
}

// DeleteExercise removes the exercise and every reference to it, then
// recomputes the progress of the series it was taken from.
func (m *Mutator) DeleteExercise(doc domain.Document, exerciseID, seriesID string) domain.Document {
	if exerciseIndex(doc, exerciseID) < 0 {
		return doc
	}

	out := doc.Clone()
	out.Exercises = filterExercises(out.Exercises, map[string]struct{}{exerciseID: {}})
	for i := range out.Series {
		if !contains(out.Series[i].ExerciseIDs, exerciseID) {
			continue
		}
		out.Series[i].ExerciseIDs = without(out.Series[i].ExerciseIDs, exerciseID)
		out.Series[i].UpdatedAt = m.Now()
		recomputeProgress(&out, i)
	}
	return out
}

// DeleteSeries removes the series, its reference in the day and every
// exercise it owns.
func (m *Mutator) DeleteSeries(doc domain.Document, seriesID, dayID string) domain.Document {
	si := seriesIndex(doc, seriesID)
	if si < 0 {
		return doc
	}

	exerciseIDs := toSet(doc.Series[si].ExerciseIDs)

	out := doc.Clone()
	out.Series = filterSeries(out.Series, map[string]struct{}{seriesID: {}})
	out.Exercises = filterExercises(out.Exercises, exerciseIDs)
	for i := range out.Days {
		// The named day is the owner; any other day still listing the series
		// would be left dangling, so it is cleaned as well.
		if out.Days[i].ID == dayID || contains(out.Days[i].SeriesIDs, seriesID) {
			out.Days[i].SeriesIDs = without(out.Days[i].SeriesIDs, seriesID)
		}
	}
	return out
}

// DeleteDay removes the day, every series it references and every exercise
// of those series. Descendants are collected before anything is removed.
func (m *Mutator) DeleteDay(doc domain.Document, dayID string) domain.Document {
	di := dayIndex(doc, dayID)
	if di < 0 {
		return doc
	}

	seriesIDs := toSet(doc.Days[di].SeriesIDs)
	exerciseIDs := make(map[string]struct{})
	for _, s := range doc.Series {
		if _, ok := seriesIDs[s.ID]; !ok {
			continue
		}
		for _, id := range s.ExerciseIDs {
			exerciseIDs[id] = struct{}{}
		}
	}

	out := doc.Clone()
	out.Days = append(out.Days[:di:di], out.Days[di+1:]...)
	out.Series = filterSeries(out.Series, seriesIDs)
	out.Exercises = filterExercises(out.Exercises, exerciseIDs)
	return out
}

// ResetSeries clears the completion state and ratings of every exercise in
// the series so it can be trained again.
func (m *Mutator) ResetSeries(doc domain.Document, seriesID string) domain.Document {
	si := seriesIndex(doc, seriesID)
	if si < 0 {
		return doc
	}

	out := doc.Clone()
	now := m.Now()
	for _, id := range out.Series[si].ExerciseIDs {
		ei := exerciseIndex(out, id)
		if ei < 0 {
			continue
		}
		ex := &out.Exercises[ei]
		ex.CompletedReps = 0
		ex.Completed = false
		ex.Rating = nil
		ex.UpdatedAt = now
	}
	out.Series[si].UpdatedAt = now
	recomputeProgress(&out, si)
	return out
}

func dayIndex(doc domain.Document, id string) int {
	for i := range doc.Days {
		if doc.Days[i].ID == id {
			return i
		}
	}
	return -1
}

func seriesIndex(doc domain.Document, id string) int {
	for i := range doc.Series {
		if doc.Series[i].ID == id {
			return i
		}
	}
	return -1
}

func exerciseIndex(doc domain.Document, id string) int {
	for i := range doc.Exercises {
		if doc.Exercises[i].ID == id {
			return i
		}
	}
	return -1
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func filterSeries(series []domain.Series, drop map[string]struct{}) []domain.Series {
	out := make([]domain.Series, 0, len(series))
	for _, s := range series {
		if _, ok := drop[s.ID]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func filterExercises(exercises []domain.Exercise, drop map[string]struct{}) []domain.Exercise {
	out := make([]domain.Exercise, 0, len(exercises))
	for _, e := range exercises {
		if _, ok := drop[e.ID]; !ok {
			out = append(out, e)
		}
	}
	return out
}
