package rooms

import (
	"context"

	"github.com/kdimtricp/moviematch/internal/models"
)

// Watchlist is the outcome of a room's swiping round in movie list order.
// Matches were liked by everyone. Maybes were voted on by everyone with no
// discard but at least one maybe.
type Watchlist struct {
	Matches []models.Movie `json:"matches"`
	Maybes  []models.Movie `json:"maybes"`
}

func (s *Service) Watchlist(ctx context.Context, code string) (*Watchlist, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	return BuildWatchlist(room), nil
}

func BuildWatchlist(room *models.Room) *Watchlist {
	list := &Watchlist{Matches: []models.Movie{}, Maybes: []models.Movie{}}
	if len(room.Participants) == 0 {
		return list
	}

	for _, movie := range room.MovieList {
		allVoted, anyMaybe, discarded := true, false, false
		for _, p := range room.Participants {
			vote, ok := room.Votes[p.ID][movie.ID]
			if !ok {
				allVoted = false
				break
			}
			switch vote {
			case models.VoteDiscard:
				discarded = true
			case models.VoteMaybe:
				anyMaybe = true
			}
			if discarded {
				break
			}
		}

		switch {
		case !allVoted || discarded:
		case anyMaybe:
			list.Maybes = append(list.Maybes, movie)
		default:
			list.Matches = append(list.Matches, movie)
		}
	}
	return list
}
