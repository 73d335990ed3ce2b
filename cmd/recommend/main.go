package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kdimtricp/moviematch/internal/catalog"
	"github.com/kdimtricp/moviematch/internal/config"
	"github.com/kdimtricp/moviematch/internal/logging"
	"github.com/kdimtricp/moviematch/internal/models"
	"github.com/kdimtricp/moviematch/internal/recommend"
)

func main() {
	var (
		seedsFlag  = flag.String("seeds", "", "Comma-separated TMDb ids of exactly three seed movies")
		genresFlag = flag.String("genres", "", "Comma-separated genre ids")
		top        = flag.Int("top", 10, "Number of recommendations to print")
	)
	flag.Parse()

	seedIDs, err := parseIDs(*seedsFlag)
	if err != nil || len(seedIDs) != recommend.SeedMovieCount {
		fmt.Fprintln(os.Stderr, "Please provide three seed movie ids with -seeds, e.g. -seeds 603,27205,155")
		os.Exit(2)
	}
	genres, err := parseIDs(*genresFlag)
	if err != nil || len(genres) == 0 {
		fmt.Fprintln(os.Stderr, "Please provide at least one genre id with -genres, e.g. -genres 28,878")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := catalog.NewResilientClient(
		catalog.NewTMDbClient(cfg.TMDb.APIKey,
			catalog.WithBaseURL(cfg.TMDb.BaseURL),
			catalog.WithHTTPClient(&http.Client{Timeout: cfg.TMDb.RequestTimeout}),
		),
		catalog.ResilienceConfig{RequestsPerSecond: cfg.TMDb.RequestsPerSecond, Burst: cfg.TMDb.Burst},
	)

	seeds := make([]models.SeedMovie, 0, len(seedIDs))
	for _, id := range seedIDs {
		m, err := client.GetMovie(ctx, id)
		if err != nil {
			logging.Fatal().Err(err).Int("movie_id", id).Msg("failed to fetch seed movie")
		}
		fmt.Printf("Seed: %s (%d)\n", m.Title, m.ReleaseYear())
		seeds = append(seeds, models.NewSeedMovie(*m))
	}

	retriever := recommend.NewRetriever(client, recommend.RetrieverConfig{
		MaxPages:     cfg.Recommend.MaxPages,
		MinVoteCount: cfg.Recommend.MinVoteCount,
		PageTimeout:  cfg.TMDb.PageTimeout,
	})
	rec := recommend.NewRecommender(recommend.NewProfileBuilder(), retriever, recommend.Config{
		IndividualPoolSize: cfg.Recommend.IndividualPoolSize,
	})

	prefs := models.UserPreferences{ParticipantID: "cli", SelectedGenres: genres, SeedMovies: seeds}
	profile, err := rec.ProfileFor(prefs)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build profile")
	}
	prefs.Profile = profile

	fmt.Println()
	fmt.Println("Profile:")
	fmt.Println("========")
	fmt.Printf("Top genres: %v\n", profile.GenreScores.Top(5))
	fmt.Printf("Keywords:   %s\n", strings.Join(profile.Keywords, ", "))
	fmt.Printf("Runtime:    %.0f min\n", profile.PreferredRuntime)
	fmt.Printf("Years:      %d-%d\n", profile.PreferredYearRange.Min, profile.PreferredYearRange.Max)
	fmt.Printf("Min rating: %.2f\n", profile.MinRating)

	ranked, err := rec.RecommendForUser(ctx, prefs)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to recommend")
	}

	fmt.Println()
	fmt.Printf("Top %d of %d candidates:\n", min(*top, len(ranked)), len(ranked))
	for i, rm := range ranked {
		if i >= *top {
			break
		}
		fmt.Printf("%2d. %-40.40s %4d  rating %.1f  score %.2f\n",
			i+1, rm.Movie.Title, rm.Movie.ReleaseYear(), rm.Movie.VoteAverage, rm.Score)
	}
}

func parseIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
