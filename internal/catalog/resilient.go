package catalog

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/kdimtricp/moviematch/internal/logging"
	"github.com/kdimtricp/moviematch/internal/metrics"
	"github.com/kdimtricp/moviematch/internal/models"
)

type ResilienceConfig struct {
	// RequestsPerSecond and Burst size the token bucket in front of the API.
	RequestsPerSecond float64
	Burst             int
	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration
}

// ResilientClient guards a Client with a rate limiter and a circuit breaker.
// NotFound answers count as successes so unknown ids never trip the breaker.
type ResilientClient struct {
	next    Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[any]
	name    string
}

func NewResilientClient(next Client, cfg ResilienceConfig) *ResilientClient {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 40
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	name := "catalog"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &ResilientClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cb:      cb,
		name:    name,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (c *ResilientClient) State() gobreaker.State {
	return c.cb.State()
}

func (c *ResilientClient) execute(ctx context.Context, endpoint string, fn func() (any, error)) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.CatalogRequests.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, err
	}

	start := time.Now()
	result, err := c.cb.Execute(fn)
	metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CatalogRequests.WithLabelValues(endpoint, "rejected").Inc()
	default:
		metrics.CatalogRequests.WithLabelValues(endpoint, metrics.Outcome(err)).Inc()
	}
	return result, err
}

func (c *ResilientClient) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	result, err := c.execute(ctx, "movie", func() (any, error) {
		return c.next.GetMovie(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Movie), nil
}

func (c *ResilientClient) SearchMovies(ctx context.Context, query string, page int) ([]models.Movie, error) {
	result, err := c.execute(ctx, "search", func() (any, error) {
		return c.next.SearchMovies(ctx, query, page)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Movie), nil
}

func (c *ResilientClient) Discover(ctx context.Context, filter DiscoverFilter, page int) ([]models.Movie, error) {
	result, err := c.execute(ctx, "discover", func() (any, error) {
		return c.next.Discover(ctx, filter, page)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Movie), nil
}
