package recommend

import (
	"sort"

	"github.com/kdimtricp/moviematch/internal/models"
)

// RankByRating orders an already fetched pool for rooms without seed-movie
// profiles: rating first, then newer releases, then overlap with the selected
// genres. The input slice is not modified.
func RankByRating(movies []models.Movie, selectedGenres []int) []models.Movie {
	selected := make(map[int]bool, len(selectedGenres))
	for _, g := range selectedGenres {
		selected[g] = true
	}

	overlap := func(m models.Movie) int {
		n := 0
		for _, g := range m.GenreIDs {
			if selected[g] {
				n++
			}
		}
		return n
	}

	ranked := make([]models.Movie, len(movies))
	copy(ranked, movies)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.VoteAverage != b.VoteAverage {
			return a.VoteAverage > b.VoteAverage
		}
		if ya, yb := a.ReleaseYear(), b.ReleaseYear(); ya != yb {
			return ya > yb
		}
		return overlap(a) > overlap(b)
	})
	return ranked
}
