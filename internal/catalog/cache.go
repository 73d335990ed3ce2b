package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/kdimtricp/moviematch/internal/logging"
	"github.com/kdimtricp/moviematch/internal/metrics"
	"github.com/kdimtricp/moviematch/internal/models"
)

// CachedClient memoizes catalog responses in Redis. Cache failures are logged
// and fall through to the wrapped client; they never fail a lookup.
type CachedClient struct {
	next   Client
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewCachedClient(next Client, rdb redis.Cmdable, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &CachedClient{next: next, rdb: rdb, ttl: ttl, prefix: "catalog:"}
}

func (c *CachedClient) getJSON(ctx context.Context, endpoint, key string, dest any) bool {
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CatalogCache.WithLabelValues(endpoint, "miss").Inc()
		return false
	}
	if err != nil {
		metrics.CatalogCache.WithLabelValues(endpoint, "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CatalogCache.WithLabelValues(endpoint, "error").Inc()
		return false
	}
	metrics.CatalogCache.WithLabelValues(endpoint, "hit").Inc()
	return true
}

func (c *CachedClient) setJSON(ctx context.Context, key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, b, c.ttl).Err(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func (c *CachedClient) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	key := "movie:" + strconv.Itoa(id)

	var cached models.Movie
	if c.getJSON(ctx, "movie", key, &cached) {
		return &cached, nil
	}

	movie, err := c.next.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, movie)
	return movie, nil
}

func (c *CachedClient) SearchMovies(ctx context.Context, query string, page int) ([]models.Movie, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Movie{}, nil
	}
	key := fmt.Sprintf("search:%d:%s", page, strings.ToLower(query))

	var cached []models.Movie
	if c.getJSON(ctx, "search", key, &cached) {
		return cached, nil
	}

	movies, err := c.next.SearchMovies(ctx, query, page)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, movies)
	return movies, nil
}

func (c *CachedClient) Discover(ctx context.Context, filter DiscoverFilter, page int) ([]models.Movie, error) {
	params := filter.values()
	params.Set("page", strconv.Itoa(page))
	key := "discover:" + params.Encode()

	var cached []models.Movie
	if c.getJSON(ctx, "discover", key, &cached) {
		return cached, nil
	}

	movies, err := c.next.Discover(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, movies)
	return movies, nil
}
