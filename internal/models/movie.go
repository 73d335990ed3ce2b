package models

import (
	"strconv"
)

type Movie struct {
	ID          int      `json:"id" bson:"id"`
	Title       string   `json:"title" bson:"title"`
	Overview    string   `json:"overview,omitempty" bson:"overview,omitempty"`
	PosterPath  string   `json:"posterPath,omitempty" bson:"posterPath,omitempty"`
	GenreIDs    []int    `json:"genreIds" bson:"genreIds"`
	ReleaseDate string   `json:"releaseDate,omitempty" bson:"releaseDate,omitempty"`
	VoteAverage float64  `json:"voteAverage" bson:"voteAverage"`
	VoteCount   int      `json:"voteCount,omitempty" bson:"voteCount,omitempty"`
	Runtime     int      `json:"runtime,omitempty" bson:"runtime,omitempty"`
	Popularity  float64  `json:"popularity,omitempty" bson:"popularity,omitempty"`
	Keywords    []string `json:"keywords,omitempty" bson:"keywords,omitempty"`
}

// ReleaseYear returns the year part of ReleaseDate, or 0 when the date is
// absent or malformed.
func (m Movie) ReleaseYear() int {
	return yearOf(m.ReleaseDate)
}

func (m Movie) HasGenre(id int) bool {
	for _, g := range m.GenreIDs {
		if g == id {
			return true
		}
	}
	return false
}

// SeedMovie is a snapshot of a movie a participant already likes. It is taken
// once when preferences are saved and never re-synced with the catalog.
type SeedMovie struct {
	ID             int      `json:"id" bson:"id"`
	Title          string   `json:"title" bson:"title"`
	PosterPath     string   `json:"posterPath,omitempty" bson:"posterPath,omitempty"`
	GenreIDs       []int    `json:"genreIds" bson:"genreIds"`
	Keywords       []string `json:"keywords" bson:"keywords"`
	RuntimeMinutes int      `json:"runtimeMinutes" bson:"runtimeMinutes"`
	ReleaseYear    int      `json:"releaseYear" bson:"releaseYear"`
	RatingAverage  float64  `json:"ratingAverage" bson:"ratingAverage"`
}

func NewSeedMovie(m Movie) SeedMovie {
	genres := make([]int, len(m.GenreIDs))
	copy(genres, m.GenreIDs)
	keywords := make([]string, len(m.Keywords))
	copy(keywords, m.Keywords)

	return SeedMovie{
		ID:             m.ID,
		Title:          m.Title,
		PosterPath:     m.PosterPath,
		GenreIDs:       genres,
		Keywords:       keywords,
		RuntimeMinutes: m.Runtime,
		ReleaseYear:    m.ReleaseYear(),
		RatingAverage:  m.VoteAverage,
	}
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
