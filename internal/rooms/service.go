package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kdimtricp/moviematch/internal/catalog"
	"github.com/kdimtricp/moviematch/internal/logging"
	"github.com/kdimtricp/moviematch/internal/models"
	"github.com/kdimtricp/moviematch/internal/recommend"
)

const (
	codeLength      = 6
	maxCodeAttempts = 5
)

type Service struct {
	store         Store
	catalog       catalog.Client
	recommender   *recommend.Recommender
	retriever     *recommend.Retriever
	genres        *catalog.GenreTable
	genrePoolSize int
}

type Config struct {
	GenrePoolSize int
}

func NewService(
	store Store,
	client catalog.Client,
	recommender *recommend.Recommender,
	retriever *recommend.Retriever,
	genres *catalog.GenreTable,
	config Config,
) *Service {
	if config.GenrePoolSize <= 0 {
		config.GenrePoolSize = recommend.DefaultGroupPoolSize
	}
	if genres == nil {
		genres = catalog.DefaultGenres()
	}

	return &Service{
		store:         store,
		catalog:       client,
		recommender:   recommender,
		retriever:     retriever,
		genres:        genres,
		genrePoolSize: config.GenrePoolSize,
	}
}

func newRoomCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:codeLength])
}

func persistErr(op string, err error) error {
	if errors.Is(err, ErrRoomNotFound) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func invalid(field, format string, args ...any) error {
	return &recommend.ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (s *Service) CreateRoom(ctx context.Context, hostName string) (*models.Room, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, invalid("hostName", "must not be empty")
	}

	host := models.NewParticipant(hostName)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		room := models.NewRoom(newRoomCode(), host)
		err := s.store.CreateRoom(ctx, room)
		if errors.Is(err, ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, persistErr("creating room", err)
		}

		logging.Ctx(ctx).Info().Str("room", room.Code).Str("host", host.ID).Msg("room created")
		return room, nil
	}
	return nil, &PersistenceError{Op: "creating room", Err: ErrRoomExists}
}

func (s *Service) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	room, err := s.store.GetRoom(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, persistErr("getting room", err)
	}
	return room, nil
}

func (s *Service) JoinRoom(ctx context.Context, code, name string) (*models.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}

	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	p := models.NewParticipant(name)
	if err := s.store.UpdateRoom(ctx, room.Code, models.RoomUpdate{Participants: []models.Participant{p}}); err != nil {
		return nil, persistErr("joining room", err)
	}

	logging.Ctx(ctx).Info().Str("room", room.Code).Str("participant", p.ID).Msg("participant joined")
	return &p, nil
}

func (s *Service) participantRoom(ctx context.Context, code, participantID string) (*models.Room, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, ok := room.Participant(participantID); !ok {
		return nil, fmt.Errorf("room %s: %w", room.Code, ErrParticipantNotFound)
	}
	return room, nil
}

func (s *Service) validateGenres(genres []int) error {
	if len(genres) == 0 {
		return invalid("genres", "at least one genre is required")
	}
	for _, g := range genres {
		if !s.genres.Valid(g) {
			return invalid("genres", "unknown genre %d", g)
		}
	}
	return nil
}

// SavePreferences resolves the three seed movies against the catalog, builds
// the participant's profile and stores it. If any seed cannot be fetched
// nothing is written.
func (s *Service) SavePreferences(ctx context.Context, code, participantID string, genres, seedIDs []int) (*models.UserPreferences, error) {
	if err := s.validateGenres(genres); err != nil {
		return nil, err
	}
	if len(seedIDs) != recommend.SeedMovieCount {
		return nil, invalid("seedMovieIds", "expected %d seed movies, got %d", recommend.SeedMovieCount, len(seedIDs))
	}
	seen := map[int]bool{}
	for _, id := range seedIDs {
		if id <= 0 {
			return nil, invalid("seedMovieIds", "invalid movie id %d", id)
		}
		if seen[id] {
			return nil, invalid("seedMovieIds", "duplicate movie id %d", id)
		}
		seen[id] = true
	}

	room, err := s.participantRoom(ctx, code, participantID)
	if err != nil {
		return nil, err
	}

	seeds, err := s.fetchSeeds(ctx, seedIDs)
	if err != nil {
		return nil, err
	}

	profile, err := s.recommender.ProfileFor(models.UserPreferences{SelectedGenres: genres, SeedMovies: seeds})
	if err != nil {
		return nil, err
	}

	prefs := models.UserPreferences{
		ParticipantID:  participantID,
		SelectedGenres: append([]int(nil), genres...),
		SeedMovies:     seeds,
		Profile:        profile,
		CreatedAt:      time.Now().UTC(),
	}

	update := models.RoomUpdate{UserPreferences: map[string]models.UserPreferences{participantID: prefs}}

	// Promote a waiting room once this submission completes the set.
	if room.UserPreferences == nil {
		room.UserPreferences = map[string]models.UserPreferences{}
	}
	room.UserPreferences[participantID] = prefs
	if ready, total := room.Readiness(); room.Status == models.RoomWaiting && ready == total {
		status := models.RoomReady
		update.Status = &status
	}

	if err := s.store.UpdateRoom(ctx, room.Code, update); err != nil {
		return nil, persistErr("saving preferences", err)
	}

	logging.Ctx(ctx).Info().Str("room", room.Code).Str("participant", participantID).
		Int("genres", len(genres)).Msg("preferences saved")
	return &prefs, nil
}

func (s *Service) fetchSeeds(ctx context.Context, ids []int) ([]models.SeedMovie, error) {
	seeds := make([]models.SeedMovie, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			movie, err := s.catalog.GetMovie(ctx, id)
			if err != nil {
				errs[i] = err
				return
			}
			seeds[i] = models.NewSeedMovie(*movie)
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, invalid("seedMovieIds", "movie %d not found", ids[i])
		}
		return nil, fmt.Errorf("fetching seed movie %d: %w", ids[i], recommend.ErrUpstreamUnavailable)
	}
	return seeds, nil
}

func (s *Service) RecommendForParticipant(ctx context.Context, code, participantID string) ([]models.RankedMovie, error) {
	room, err := s.participantRoom(ctx, code, participantID)
	if err != nil {
		return nil, err
	}

	prefs, ok := room.UserPreferences[participantID]
	if !ok {
		ready, total := room.Readiness()
		return nil, &recommend.IncompleteProfileError{Ready: ready, Total: total}
	}
	return s.recommender.RecommendForUser(ctx, prefs)
}

// ParticipantProfile returns the stored profile of a participant, rebuilding
// it from the raw preferences when none was stored.
func (s *Service) ParticipantProfile(ctx context.Context, code, participantID string) (*models.PreferenceProfile, error) {
	room, err := s.participantRoom(ctx, code, participantID)
	if err != nil {
		return nil, err
	}

	prefs, ok := room.UserPreferences[participantID]
	if !ok {
		ready, total := room.Readiness()
		return nil, &recommend.IncompleteProfileError{Ready: ready, Total: total}
	}
	return s.recommender.ProfileFor(prefs)
}

// GenerateRecommendations runs the group pipeline and persists the movie
// list, scores and swiping status in a single update. Votes are untouched.
func (s *Service) GenerateRecommendations(ctx context.Context, code string) (*models.Room, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	ready, total := room.Readiness()
	if total == 0 || ready < total {
		return nil, &recommend.IncompleteProfileError{Ready: ready, Total: total}
	}

	prefs := make([]models.UserPreferences, 0, total)
	for _, p := range room.Participants {
		prefs = append(prefs, room.UserPreferences[p.ID])
	}

	result, err := s.recommender.RecommendForGroup(ctx, prefs)
	if err != nil {
		return nil, err
	}

	movies := result.Movies()
	scores := result.Scores
	status := models.RoomSwiping
	update := models.RoomUpdate{
		Status:               &status,
		MovieList:            &movies,
		RecommendationScores: &scores,
	}
	if err := s.store.UpdateRoom(ctx, room.Code, update); err != nil {
		return nil, persistErr("saving recommendations", err)
	}

	update.Apply(room)
	logging.Ctx(ctx).Info().Str("room", room.Code).Int("movies", len(movies)).Msg("group recommendations generated")
	return room, nil
}

// GenreOnlyRecommendations fills the movie list from genre discovery ordered
// by rating. It serves rooms whose participants skipped seed movies, so any
// previous scores are cleared.
func (s *Service) GenreOnlyRecommendations(ctx context.Context, code string, genres []int) (*models.Room, error) {
	if err := s.validateGenres(genres); err != nil {
		return nil, err
	}

	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	pool, err := s.retriever.RetrieveByGenres(ctx, genres, s.genrePoolSize)
	if err != nil {
		return nil, err
	}

	movies := recommend.RankByRating(pool, genres)
	scores := map[int]float64{}
	status := models.RoomSwiping
	update := models.RoomUpdate{
		Status:               &status,
		MovieList:            &movies,
		RecommendationScores: &scores,
	}
	if err := s.store.UpdateRoom(ctx, room.Code, update); err != nil {
		return nil, persistErr("saving recommendations", err)
	}

	update.Apply(room)
	logging.Ctx(ctx).Info().Str("room", room.Code).Int("movies", len(movies)).Msg("genre recommendations generated")
	return room, nil
}

func (s *Service) CastVote(ctx context.Context, code, participantID string, movieID int, vote models.Vote) error {
	if !vote.Valid() {
		return invalid("vote", "unknown vote %q", vote)
	}

	room, err := s.participantRoom(ctx, code, participantID)
	if err != nil {
		return err
	}

	listed := false
	for _, m := range room.MovieList {
		if m.ID == movieID {
			listed = true
			break
		}
	}
	if !listed {
		return invalid("movieId", "movie %d is not in the room's list", movieID)
	}

	update := models.RoomUpdate{Votes: map[string]map[int]models.Vote{participantID: {movieID: vote}}}
	if err := s.store.UpdateRoom(ctx, room.Code, update); err != nil {
		return persistErr("casting vote", err)
	}
	return nil
}
