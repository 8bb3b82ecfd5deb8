package domain_test

import (
	"alcyxob/gym-tracker/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_CloneIsDeep(t *testing.T) {
	rating := 3
	doc := domain.Document{
		Days:      []domain.Day{{ID: "d1", SeriesIDs: []string{"s1"}}, {ID: "d2", SeriesIDs: []string{}}},
		Series:    []domain.Series{{ID: "s1", ExerciseIDs: []string{"e1"}}},
		Exercises: []domain.Exercise{{ID: "e1", Rating: &rating}},
	}

	out := doc.Clone()
	out.Days[0].SeriesIDs[0] = "changed"
	out.Series[0].ExerciseIDs = append(out.Series[0].ExerciseIDs, "e2")
	*out.Exercises[0].Rating = 5

	assert.Equal(t, "s1", doc.Days[0].SeriesIDs[0])
	assert.Equal(t, []string{"e1"}, doc.Series[0].ExerciseIDs)
	assert.Equal(t, 3, *doc.Exercises[0].Rating)
	assert.NotNil(t, out.Days[1].SeriesIDs)
}

func TestDocument_Lookups(t *testing.T) {
	doc := domain.Document{
		Days:      []domain.Day{{ID: "d1", SeriesIDs: []string{"s2", "s1"}}},
		Series:    []domain.Series{{ID: "s1", ExerciseIDs: []string{"e2", "e1"}}, {ID: "s2"}},
		Exercises: []domain.Exercise{{ID: "e1"}, {ID: "e2"}},
	}

	day, ok := doc.DayByID("d1")
	require.True(t, ok)
	series := doc.SeriesOf(day)
	require.Len(t, series, 2)
	assert.Equal(t, "s2", series[0].ID)

	s1, ok := doc.SeriesByID("s1")
	require.True(t, ok)
	exercises := doc.ExercisesOf(s1)
	require.Len(t, exercises, 2)
	assert.Equal(t, "e2", exercises[0].ID)

	_, ok = doc.ExerciseByID("missing")
	assert.False(t, ok)
}

func TestSeriesIcon_Valid(t *testing.T) {
	assert.True(t, domain.IconFlame.Valid())
	assert.False(t, domain.SeriesIcon("rocket").Valid())
}
