package tracker

import "alcyxob/gym-tracker/internal/domain"

// Advance says where to go after a series is completed.
// An empty NextSeriesID means the day has no further series.
type Advance struct {
	DayID        string
	NextSeriesID string
}

// ResolveAdvance finds the day listing the completed series and the series
// that follows it in that day's declared order. It reports false when no day
// lists the series.
func ResolveAdvance(doc domain.Document, completedSeriesID string) (Advance, bool) {
	for _, day := range doc.Days {
		for i, id := range day.SeriesIDs {
			if id != completedSeriesID {
				continue
			}
			adv := Advance{DayID: day.ID}
			if i+1 < len(day.SeriesIDs) {
				adv.NextSeriesID = day.SeriesIDs[i+1]
			}
			return adv, true
		}
	}
	return Advance{}, false
}

// DayOf returns the day listing the series.
func DayOf(doc domain.Document, seriesID string) (domain.Day, bool) {
	for _, day := range doc.Days {
		if contains(day.SeriesIDs, seriesID) {
			return day, true
		}
	}
	return domain.Day{}, false
}
