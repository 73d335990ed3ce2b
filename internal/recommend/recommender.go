package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/kdimtricp/moviematch/internal/logging"
	"github.com/kdimtricp/moviematch/internal/metrics"
	"github.com/kdimtricp/moviematch/internal/models"
)

type Config struct {
	IndividualPoolSize int
	GroupPoolSize      int
}

type Recommender struct {
	builder        *ProfileBuilder
	retriever      *Retriever
	individualPool int
	groupPool      int
}

func NewRecommender(builder *ProfileBuilder, retriever *Retriever, cfg Config) *Recommender {
	if builder == nil {
		builder = NewProfileBuilder()
	}
	if cfg.IndividualPoolSize <= 0 {
		cfg.IndividualPoolSize = DefaultIndividualPoolSize
	}
	if cfg.GroupPoolSize <= 0 {
		cfg.GroupPoolSize = DefaultGroupPoolSize
	}
	return &Recommender{
		builder:        builder,
		retriever:      retriever,
		individualPool: cfg.IndividualPoolSize,
		groupPool:      cfg.GroupPoolSize,
	}
}

// ProfileFor returns the stored profile or builds one from the raw inputs.
func (r *Recommender) ProfileFor(prefs models.UserPreferences) (*models.PreferenceProfile, error) {
	if prefs.Profile != nil {
		return prefs.Profile, nil
	}
	return r.builder.Build(prefs.SelectedGenres, prefs.SeedMovies)
}

func (r *Recommender) RecommendForUser(ctx context.Context, prefs models.UserPreferences) ([]models.RankedMovie, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues("individual").Observe(time.Since(start).Seconds())
	}()

	profile, err := r.ProfileFor(prefs)
	if err != nil {
		return nil, err
	}

	pool, err := r.retriever.Retrieve(ctx, profile, r.individualPool)
	if err != nil {
		return nil, err
	}
	metrics.RetrievalPoolSize.WithLabelValues("individual").Observe(float64(len(pool)))

	logging.Ctx(ctx).Debug().Str("participant", prefs.ParticipantID).Int("pool_size", len(pool)).
		Msg("scored individual candidates")

	return Rank(pool, profile), nil
}

type GroupResult struct {
	Profile *models.PreferenceProfile
	Ranked  []models.RankedMovie
	Scores  map[int]float64
}

func (g *GroupResult) Movies() []models.Movie {
	return Movies(g.Ranked)
}

func (r *Recommender) RecommendForGroup(ctx context.Context, prefs []models.UserPreferences) (*GroupResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues("group").Observe(time.Since(start).Seconds())
	}()

	profiles := make([]*models.PreferenceProfile, 0, len(prefs))
	for _, p := range prefs {
		profile, err := r.ProfileFor(p)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	group, err := AggregateProfiles(profiles)
	if err != nil {
		return nil, err
	}

	pool, err := r.retriever.Retrieve(ctx, group, r.groupPool)
	if err != nil {
		return nil, err
	}
	metrics.RetrievalPoolSize.WithLabelValues("group").Observe(float64(len(pool)))

	ranked := Rank(pool, group)
	scores := make(map[int]float64, len(ranked))
	for _, rm := range ranked {
		scores[rm.Movie.ID] = rm.Score
	}

	logging.Ctx(ctx).Info().Int("participants", len(prefs)).Int("pool_size", len(pool)).
		Msg("scored group candidates")

	return &GroupResult{Profile: group, Ranked: ranked, Scores: scores}, nil
}

// Rank scores every movie and sorts by descending score. Equal scores keep
// their pool order.
func Rank(pool []models.Movie, profile *models.PreferenceProfile) []models.RankedMovie {
	ranked := make([]models.RankedMovie, 0, len(pool))
	for _, m := range pool {
		ranked = append(ranked, models.RankedMovie{Movie: m, Score: ScoreMovie(m, profile)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func Movies(ranked []models.RankedMovie) []models.Movie {
	movies := make([]models.Movie, len(ranked))
	for i, rm := range ranked {
		movies[i] = rm.Movie
	}
	return movies
}
