package recommend

import (
	"math"

	"github.com/kdimtricp/moviematch/internal/models"
)

// AggregateProfiles merges per-participant profiles into one group profile.
// Genre weights are averaged over every participant (absent counts as 0),
// keywords survive when at least half the group shares them, and the year
// range is the union of all ranges.
func AggregateProfiles(profiles []*models.PreferenceProfile) (*models.PreferenceProfile, error) {
	n := len(profiles)
	if n == 0 {
		return nil, validationErr("profiles", "at least one profile is required")
	}

	sums := models.GenreScores{}
	keywordCounts := map[string]int{}
	var keywordOrder []string
	runtimeTotal, ratingTotal := 0.0, 0.0
	years := profiles[0].PreferredYearRange

	for _, p := range profiles {
		for _, gs := range p.GenreScores {
			sums = sums.Add(gs.GenreID, gs.Score)
		}

		seen := map[string]bool{}
		for _, kw := range p.Keywords {
			if seen[kw] {
				continue
			}
			seen[kw] = true
			if keywordCounts[kw] == 0 {
				keywordOrder = append(keywordOrder, kw)
			}
			keywordCounts[kw]++
		}

		runtimeTotal += p.PreferredRuntime
		ratingTotal += p.MinRating

		if p.PreferredYearRange.Min < years.Min {
			years.Min = p.PreferredYearRange.Min
		}
		if p.PreferredYearRange.Max > years.Max {
			years.Max = p.PreferredYearRange.Max
		}
	}

	genres := make(models.GenreScores, 0, len(sums))
	for _, gs := range sums {
		genres = append(genres, models.GenreScore{GenreID: gs.GenreID, Score: gs.Score / float64(n)})
	}

	quorum := (n + 1) / 2
	keywords := []string{}
	for _, kw := range keywordOrder {
		if keywordCounts[kw] >= quorum {
			keywords = append(keywords, kw)
		}
	}

	return &models.PreferenceProfile{
		GenreScores:        genres,
		Keywords:           keywords,
		PreferredRuntime:   math.Round(runtimeTotal / float64(n)),
		PreferredYearRange: years,
		MinRating:          ratingTotal / float64(n),
	}, nil
}
