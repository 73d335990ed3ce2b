package models

import (
	"sort"
	"time"
)

type GenreScore struct {
	GenreID int     `json:"genreId" bson:"genreId"`
	Score   float64 `json:"score" bson:"score"`
}

// GenreScores keeps genre weights in first-insertion order. Ties in Top are
// broken by that order, so it must survive serialization.
type GenreScores []GenreScore

func (gs GenreScores) index(id int) int {
	for i, s := range gs {
		if s.GenreID == id {
			return i
		}
	}
	return -1
}

func (gs GenreScores) Has(id int) bool {
	return gs.index(id) >= 0
}

func (gs GenreScores) Get(id int) float64 {
	if i := gs.index(id); i >= 0 {
		return gs[i].Score
	}
	return 0
}

// Add increments the score of id, appending it when absent.
func (gs GenreScores) Add(id int, delta float64) GenreScores {
	if i := gs.index(id); i >= 0 {
		gs[i].Score += delta
		return gs
	}
	return append(gs, GenreScore{GenreID: id, Score: delta})
}

// Top returns up to n genre ids ordered by descending score.
func (gs GenreScores) Top(n int) []int {
	sorted := make(GenreScores, len(gs))
	copy(sorted, gs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	ids := make([]int, 0, n)
	for _, s := range sorted[:n] {
		ids = append(ids, s.GenreID)
	}
	return ids
}

type YearRange struct {
	Min int `json:"min" bson:"min"`
	Max int `json:"max" bson:"max"`
}

func (r YearRange) Mid() float64 {
	return float64(r.Min+r.Max) / 2
}

type PreferenceProfile struct {
	GenreScores        GenreScores `json:"genreScores" bson:"genreScores"`
	Keywords           []string    `json:"keywords" bson:"keywords"`
	PreferredRuntime   float64     `json:"preferredRuntime" bson:"preferredRuntime"`
	PreferredYearRange YearRange   `json:"preferredYearRange" bson:"preferredYearRange"`
	MinRating          float64     `json:"minRating" bson:"minRating"`
}

type UserPreferences struct {
	ParticipantID  string             `json:"participantId" bson:"participantId"`
	SelectedGenres []int              `json:"selectedGenres" bson:"selectedGenres"`
	SeedMovies     []SeedMovie        `json:"seedMovies" bson:"seedMovies"`
	Profile        *PreferenceProfile `json:"profile,omitempty" bson:"profile,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
}

type RankedMovie struct {
	Movie Movie   `json:"movie"`
	Score float64 `json:"score"`
}
