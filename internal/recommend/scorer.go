package recommend

import (
	"math"

	"github.com/kdimtricp/moviematch/internal/models"
)

const (
	genreMatchCap    = 30.0
	runtimeMax       = 10.0
	runtimeDivisor   = 10.0
	yearMax          = 10.0
	yearDivisor      = 5.0
	ratingMultiplier = 2.0
	ratingMax        = 10.0
	popularityScale  = 100.0
	popularityMax    = 5.0
)

// ScoreBreakdown holds the components summed into a movie's score.
type ScoreBreakdown struct {
	Genre      float64 `json:"genre"`
	Runtime    float64 `json:"runtime"`
	Year       float64 `json:"year"`
	Rating     float64 `json:"rating"`
	Popularity float64 `json:"popularity"`
}

func (b ScoreBreakdown) Total() float64 {
	return b.Genre + b.Runtime + b.Year + b.Rating + b.Popularity
}

// ScoreMovie returns the relevance of movie for profile. It is pure: the same
// inputs always produce the same float.
func ScoreMovie(movie models.Movie, profile *models.PreferenceProfile) float64 {
	return Explain(movie, profile).Total()
}

func Explain(movie models.Movie, profile *models.PreferenceProfile) ScoreBreakdown {
	return ScoreBreakdown{
		Genre:      genreMatch(movie, profile),
		Runtime:    runtimeSimilarity(movie, profile),
		Year:       yearProximity(movie, profile),
		Rating:     ratingBonus(movie, profile),
		Popularity: popularityBonus(movie),
	}
}

func genreMatch(movie models.Movie, profile *models.PreferenceProfile) float64 {
	score := 0.0
	for _, g := range movie.GenreIDs {
		score += profile.GenreScores.Get(g)
	}
	return math.Min(score, genreMatchCap)
}

func runtimeSimilarity(movie models.Movie, profile *models.PreferenceProfile) float64 {
	if movie.Runtime <= 0 {
		return 0
	}
	diff := math.Abs(float64(movie.Runtime) - profile.PreferredRuntime)
	return math.Max(runtimeMax-diff/runtimeDivisor, 0)
}

func yearProximity(movie models.Movie, profile *models.PreferenceProfile) float64 {
	year := movie.ReleaseYear()
	if year == 0 {
		return 0
	}
	diff := math.Abs(float64(year) - profile.PreferredYearRange.Mid())
	return math.Max(yearMax-diff/yearDivisor, 0)
}

func ratingBonus(movie models.Movie, profile *models.PreferenceProfile) float64 {
	bonus := (movie.VoteAverage - profile.MinRating) * ratingMultiplier
	return math.Min(math.Max(bonus, 0), ratingMax)
}

func popularityBonus(movie models.Movie) float64 {
	if movie.Popularity <= 0 {
		return 0
	}
	return math.Min(movie.Popularity/popularityScale, popularityMax)
}
