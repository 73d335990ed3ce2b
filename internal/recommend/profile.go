package recommend

import (
	"math"
	"time"

	"github.com/kdimtricp/moviematch/internal/models"
)

const (
	SeedMovieCount = 3

	explicitGenreScore  = 10.0
	seedGenreFirstScore = 5.0
	seedGenreRepeat     = 3.0

	keywordMinMovies = 2

	yearLookBack  = 5
	yearLookAhead = 3
	yearFloor     = 1980

	ratingSlack = 1.5
	ratingFloor = 6.0
)

// ProfileBuilder builds preference profiles against an injectable clock.
type ProfileBuilder struct {
	Now func() time.Time
}

func NewProfileBuilder() *ProfileBuilder {
	return &ProfileBuilder{Now: time.Now}
}

func (b *ProfileBuilder) Build(genres []int, seeds []models.SeedMovie) (*models.PreferenceProfile, error) {
	now := time.Now
	if b != nil && b.Now != nil {
		now = b.Now
	}
	return BuildProfile(genres, seeds, now().Year())
}

// BuildProfile turns explicit genre picks and exactly three seed movies into a
// preference profile. The result depends only on its arguments.
func BuildProfile(genres []int, seeds []models.SeedMovie, currentYear int) (*models.PreferenceProfile, error) {
	if len(seeds) != SeedMovieCount {
		return nil, validationErr("seedMovies", "expected %d seed movies, got %d", SeedMovieCount, len(seeds))
	}
	if len(genres) == 0 {
		return nil, validationErr("genres", "at least one genre is required")
	}

	return &models.PreferenceProfile{
		GenreScores:        genreScores(genres, seeds),
		Keywords:           sharedKeywords(seeds),
		PreferredRuntime:   preferredRuntime(seeds),
		PreferredYearRange: yearRange(seeds, currentYear),
		MinRating:          minRating(seeds),
	}, nil
}

// genreScores runs explicit picks first, then seed genres in input order.
// The +5/+3 split depends on map membership at the time of each write, so the
// two passes must not be merged or reordered.
func genreScores(genres []int, seeds []models.SeedMovie) models.GenreScores {
	scores := models.GenreScores{}
	for _, g := range genres {
		if scores.Has(g) {
			continue
		}
		scores = scores.Add(g, explicitGenreScore)
	}

	for _, seed := range seeds {
		for _, g := range seed.GenreIDs {
			if scores.Has(g) {
				scores = scores.Add(g, seedGenreRepeat)
			} else {
				scores = scores.Add(g, seedGenreFirstScore)
			}
		}
	}
	return scores
}

func sharedKeywords(seeds []models.SeedMovie) []string {
	counts := map[string]int{}
	var order []string

	for _, seed := range seeds {
		seen := map[string]bool{}
		for _, kw := range seed.Keywords {
			if seen[kw] {
				continue
			}
			seen[kw] = true
			if counts[kw] == 0 {
				order = append(order, kw)
			}
			counts[kw]++
		}
	}

	keywords := []string{}
	for _, kw := range order {
		if counts[kw] >= keywordMinMovies {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func preferredRuntime(seeds []models.SeedMovie) float64 {
	total := 0
	for _, s := range seeds {
		total += s.RuntimeMinutes
	}
	return math.Round(float64(total) / float64(len(seeds)))
}

// yearRange clamps both bounds into [1980, currentYear+1], which keeps
// Min <= Max even for seeds far outside that span. Seeds without a known
// year are ignored.
func yearRange(seeds []models.SeedMovie, currentYear int) models.YearRange {
	ceiling := currentYear + 1
	minYear, maxYear := 0, 0
	for _, s := range seeds {
		if s.ReleaseYear <= 0 {
			continue
		}
		if minYear == 0 || s.ReleaseYear < minYear {
			minYear = s.ReleaseYear
		}
		if s.ReleaseYear > maxYear {
			maxYear = s.ReleaseYear
		}
	}
	if minYear == 0 {
		return models.YearRange{Min: yearFloor, Max: ceiling}
	}

	return models.YearRange{
		Min: clampInt(minYear-yearLookBack, yearFloor, ceiling),
		Max: clampInt(maxYear+yearLookAhead, yearFloor, ceiling),
	}
}

func minRating(seeds []models.SeedMovie) float64 {
	total := 0.0
	for _, s := range seeds {
		total += s.RatingAverage
	}
	return math.Max(total/float64(len(seeds))-ratingSlack, ratingFloor)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
