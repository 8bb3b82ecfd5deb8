package tracker

import (
	"math"

	"alcyxob/gym-tracker/internal/domain"
)

// RecordRoundCompletion counts one executed round for the exercise. The
// exercise becomes completed once its count reaches the rounds of the series
// that lists it; further rounds keep counting and keep it completed. An
// exercise that no series lists is left alone, since there are no rounds to
// compare against.
func (m *Mutator) RecordRoundCompletion(doc domain.Document, exerciseID string) domain.Document {
	ei := exerciseIndex(doc, exerciseID)
	si := ownerIndex(doc, exerciseID)
	if ei < 0 || si < 0 {
		return doc
	}

	out := doc.Clone()
	ex := &out.Exercises[ei]
	ex.CompletedReps++
	ex.Completed = ex.CompletedReps >= out.Series[si].Rounds
	ex.UpdatedAt = m.Now()
	recomputeProgress(&out, si)
	return out
}

// RecomputeSeriesProgress refreshes the cached progress of the series.
func RecomputeSeriesProgress(doc domain.Document, seriesID string) domain.Document {
	si := seriesIndex(doc, seriesID)
	if si < 0 {
		return doc
	}
	out := doc.Clone()
	recomputeProgress(&out, si)
	return out
}

// SeriesProgress computes the completed fraction of the series:
// completed rounds over exercises × rounds, or 0 for an empty series.
func SeriesProgress(doc domain.Document, s domain.Series) float64 {
	exercises := doc.ExercisesOf(s)
	total := len(exercises) * s.Rounds
	if total <= 0 {
		return 0
	}
	done := 0
	for _, e := range exercises {
		done += e.CompletedReps
	}
	return float64(done) / float64(total)
}

// ProgressPercent renders a progress fraction as a whole percentage,
// truncated rather than rounded.
func ProgressPercent(p float64) int {
	return int(math.Floor(p * 100))
}

// SeriesComplete reports whether every exercise of the series is completed.
// A series without exercises is never complete.
func SeriesComplete(doc domain.Document, seriesID string) bool {
	s, ok := doc.SeriesByID(seriesID)
	if !ok {
		return false
	}
	exercises := doc.ExercisesOf(s)
	if len(exercises) == 0 {
		return false
	}
	for _, e := range exercises {
		if !e.Completed {
			return false
		}
	}
	return true
}

// OwnerOf returns the series that lists the exercise.
func OwnerOf(doc domain.Document, exerciseID string) (domain.Series, bool) {
	si := ownerIndex(doc, exerciseID)
	if si < 0 {
		return domain.Series{}, false
	}
	return doc.Series[si], true
}

func ownerIndex(doc domain.Document, exerciseID string) int {
	for i := range doc.Series {
		if contains(doc.Series[i].ExerciseIDs, exerciseID) {
			return i
		}
	}
	return -1
}

// recomputeProgress updates doc.Series[si] in place; callers own doc.
func recomputeProgress(doc *domain.Document, si int) {
	doc.Series[si].Progress = SeriesProgress(*doc, doc.Series[si])
}
