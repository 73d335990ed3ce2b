package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kdimtricp/moviematch/internal/catalog"
	"github.com/kdimtricp/moviematch/internal/logging"
	"github.com/kdimtricp/moviematch/internal/metrics"
	"github.com/kdimtricp/moviematch/internal/models"
)

const (
	DefaultIndividualPoolSize = 200
	DefaultGroupPoolSize      = 300

	moviesPerPage       = 20
	defaultMaxPages     = 10
	defaultMinVoteCount = 300
	defaultPageTimeout  = 10 * time.Second
	topGenreCount       = 5
)

type RetrieverConfig struct {
	MaxPages     int
	MinVoteCount int
	PageTimeout  time.Duration
}

// Retriever fetches a bounded, deduplicated candidate pool for a profile.
type Retriever struct {
	catalog      catalog.Client
	maxPages     int
	minVoteCount int
	pageTimeout  time.Duration
}

func NewRetriever(client catalog.Client, cfg RetrieverConfig) *Retriever {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.MinVoteCount <= 0 {
		cfg.MinVoteCount = defaultMinVoteCount
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = defaultPageTimeout
	}
	return &Retriever{
		catalog:      client,
		maxPages:     cfg.MaxPages,
		minVoteCount: cfg.MinVoteCount,
		pageTimeout:  cfg.PageTimeout,
	}
}

func (r *Retriever) Filter(profile *models.PreferenceProfile) catalog.DiscoverFilter {
	return catalog.DiscoverFilter{
		GenreIDs:       profile.GenreScores.Top(topGenreCount),
		MinVoteCount:   r.minVoteCount,
		MinVoteAverage: profile.MinRating,
		MinYear:        profile.PreferredYearRange.Min,
		MaxYear:        profile.PreferredYearRange.Max,
	}
}

func (r *Retriever) pageCount(target int) int {
	pages := (target + moviesPerPage - 1) / moviesPerPage
	if pages > r.maxPages {
		pages = r.maxPages
	}
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Retrieve returns at most target movies matching profile.
func (r *Retriever) Retrieve(ctx context.Context, profile *models.PreferenceProfile, target int) ([]models.Movie, error) {
	if target <= 0 {
		target = DefaultIndividualPoolSize
	}
	return r.fetchPages(ctx, r.Filter(profile), r.pageCount(target), target)
}

// fetchPages requests pages 1..n concurrently and waits for all of them. A
// failed or timed-out page contributes nothing; only a run where every page
// failed is an error. Pages are merged in page order and the first copy of a
// movie wins.
func (r *Retriever) fetchPages(ctx context.Context, filter catalog.DiscoverFilter, n, target int) ([]models.Movie, error) {
	results := make([][]models.Movie, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pageCtx, cancel := context.WithTimeout(ctx, r.pageTimeout)
			defer cancel()
			results[i], errs[i] = r.catalog.Discover(pageCtx, filter, i+1)
		}(i)
	}
	wg.Wait()

	var lastErr error
	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			lastErr = err
			metrics.RetrievalPagesDropped.Inc()
			logging.Ctx(ctx).Warn().Err(err).Int("page", i+1).Msg("dropping catalog page")
		}
	}
	if failed == n {
		return nil, fmt.Errorf("%w: all %d pages failed: %v", ErrUpstreamUnavailable, n, lastErr)
	}

	return mergePages(results, target), nil
}

func mergePages(pages [][]models.Movie, target int) []models.Movie {
	seen := make(map[int]bool)
	pool := make([]models.Movie, 0, target)
	for _, page := range pages {
		for _, m := range page {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			pool = append(pool, m)
			if len(pool) == target {
				return pool
			}
		}
	}
	return pool
}

// RetrieveByGenres fetches a pool filtered only by genres, for rooms ranked
// without seed-movie profiles.
func (r *Retriever) RetrieveByGenres(ctx context.Context, genres []int, target int) ([]models.Movie, error) {
	if len(genres) == 0 {
		return nil, validationErr("genres", "at least one genre is required")
	}
	if target <= 0 {
		target = DefaultIndividualPoolSize
	}
	filter := catalog.DiscoverFilter{
		GenreIDs:     genres,
		MinVoteCount: r.minVoteCount,
	}
	return r.fetchPages(ctx, filter, r.pageCount(target), target)
}
