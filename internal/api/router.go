package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

func NewRouter(app *App, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/ping", PingHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}

		r.Get("/genres", app.GenresHandler)
		r.Get("/movies/search", app.SearchMoviesHandler)

		r.Post("/rooms", app.CreateRoomHandler)
		r.Route("/rooms/{code}", func(r chi.Router) {
			r.Get("/", app.GetRoomHandler)
			r.Post("/join", app.JoinRoomHandler)
			r.Post("/recommendations", app.GroupRecommendationsHandler)
			r.Post("/recommendations/genres", app.GenreRecommendationsHandler)
			r.Get("/watchlist", app.WatchlistHandler)

			r.Route("/participants/{pid}", func(r chi.Router) {
				r.Put("/preferences", app.SavePreferencesHandler)
				r.Get("/recommendations", app.ParticipantRecommendationsHandler)
				r.Put("/votes/{movieId}", app.VoteHandler)
			})
		})
	})

	return r
}
