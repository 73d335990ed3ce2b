package recommend

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kdimtricp/moviematch/internal/models"
)

func profileWith(genres models.GenreScores, keywords []string, runtime float64, years models.YearRange, rating float64) *models.PreferenceProfile {
	return &models.PreferenceProfile{
		GenreScores:        genres,
		Keywords:           keywords,
		PreferredRuntime:   runtime,
		PreferredYearRange: years,
		MinRating:          rating,
	}
}

func TestAggregateProfiles_YearRangeIsUnion(t *testing.T) {
	a := profileWith(models.GenreScores{{GenreID: 28, Score: 10}}, nil, 120, models.YearRange{Min: 1990, Max: 2000}, 6)
	b := profileWith(models.GenreScores{{GenreID: 28, Score: 10}}, nil, 120, models.YearRange{Min: 2010, Max: 2020}, 6)

	group, err := AggregateProfiles([]*models.PreferenceProfile{a, b})
	if err != nil {
		t.Fatalf("AggregateProfiles failed: %v", err)
	}
	if group.PreferredYearRange != (models.YearRange{Min: 1990, Max: 2020}) {
		t.Errorf("PreferredYearRange = %+v, want [1990 2020]", group.PreferredYearRange)
	}
}

func TestAggregateProfiles_GenreMeanOverAllParticipants(t *testing.T) {
	a := profileWith(models.GenreScores{{GenreID: 28, Score: 16}, {GenreID: 12, Score: 5}}, nil, 120, models.YearRange{Min: 2000, Max: 2010}, 6)
	b := profileWith(models.GenreScores{{GenreID: 35, Score: 10}, {GenreID: 28, Score: 8}}, nil, 120, models.YearRange{Min: 2000, Max: 2010}, 6)

	group, err := AggregateProfiles([]*models.PreferenceProfile{a, b})
	if err != nil {
		t.Fatalf("AggregateProfiles failed: %v", err)
	}

	want := models.GenreScores{
		{GenreID: 28, Score: 12},
		{GenreID: 12, Score: 2.5},
		{GenreID: 35, Score: 5},
	}
	if !reflect.DeepEqual(group.GenreScores, want) {
		t.Errorf("GenreScores = %v, want %v", group.GenreScores, want)
	}
}

func TestAggregateProfiles_KeywordQuorum(t *testing.T) {
	years := models.YearRange{Min: 2000, Max: 2010}
	tests := []struct {
		name     string
		keywords [][]string
		want     []string
	}{
		{
			name:     "two users need one",
			keywords: [][]string{{"heist"}, {"space"}},
			want:     []string{"heist", "space"},
		},
		{
			name:     "three users need two",
			keywords: [][]string{{"heist", "space"}, {"space"}, {"robot"}},
			want:     []string{"space"},
		},
		{
			name:     "four users need two",
			keywords: [][]string{{"heist"}, {"heist", "robot"}, {"space"}, {"time travel"}},
			want:     []string{"heist"},
		},
		{
			name:     "single user keeps all",
			keywords: [][]string{{"heist", "robot"}},
			want:     []string{"heist", "robot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var profiles []*models.PreferenceProfile
			for _, kws := range tt.keywords {
				profiles = append(profiles, profileWith(nil, kws, 100, years, 6))
			}
			group, err := AggregateProfiles(profiles)
			if err != nil {
				t.Fatalf("AggregateProfiles failed: %v", err)
			}
			if !reflect.DeepEqual(group.Keywords, tt.want) {
				t.Errorf("Keywords = %v, want %v", group.Keywords, tt.want)
			}
		})
	}
}

func TestAggregateProfiles_RuntimeAndRating(t *testing.T) {
	years := models.YearRange{Min: 2000, Max: 2010}
	group, err := AggregateProfiles([]*models.PreferenceProfile{
		profileWith(nil, nil, 100, years, 6.0),
		profileWith(nil, nil, 125, years, 7.3),
	})
	if err != nil {
		t.Fatalf("AggregateProfiles failed: %v", err)
	}

	if group.PreferredRuntime != 113 {
		t.Errorf("PreferredRuntime = %v, want 113", group.PreferredRuntime)
	}
	if math.Abs(group.MinRating-6.65) > 1e-9 {
		t.Errorf("MinRating = %v, want 6.65", group.MinRating)
	}
}

func TestAggregateProfiles_DoesNotMutateInputs(t *testing.T) {
	a := profileWith(models.GenreScores{{GenreID: 28, Score: 10}}, nil, 100, models.YearRange{Min: 2000, Max: 2010}, 6)
	b := profileWith(models.GenreScores{{GenreID: 28, Score: 20}}, nil, 100, models.YearRange{Min: 1990, Max: 2020}, 6)

	if _, err := AggregateProfiles([]*models.PreferenceProfile{a, b}); err != nil {
		t.Fatalf("AggregateProfiles failed: %v", err)
	}
	if a.GenreScores.Get(28) != 10 || a.PreferredYearRange.Min != 2000 {
		t.Errorf("Input profile was mutated: %+v", a)
	}
}

func TestAggregateProfiles_Empty(t *testing.T) {
	if _, err := AggregateProfiles(nil); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}
