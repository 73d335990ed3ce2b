package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kdimtricp/moviematch/internal/api"
	"github.com/kdimtricp/moviematch/internal/catalog"
	"github.com/kdimtricp/moviematch/internal/config"
	"github.com/kdimtricp/moviematch/internal/database"
	"github.com/kdimtricp/moviematch/internal/logging"
	"github.com/kdimtricp/moviematch/internal/mongostore"
	"github.com/kdimtricp/moviematch/internal/recommend"
	"github.com/kdimtricp/moviematch/internal/rooms"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tmdb := catalog.NewTMDbClient(cfg.TMDb.APIKey,
		catalog.WithBaseURL(cfg.TMDb.BaseURL),
		catalog.WithImageBaseURL(cfg.TMDb.ImageBaseURL),
		catalog.WithHTTPClient(&http.Client{Timeout: cfg.TMDb.RequestTimeout}),
	)

	genres, err := tmdb.Genres(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to load genre list, using built-in table")
		genres = catalog.DefaultGenres()
	}

	var client catalog.Client = catalog.NewResilientClient(tmdb, catalog.ResilienceConfig{
		RequestsPerSecond: cfg.TMDb.RequestsPerSecond,
		Burst:             cfg.TMDb.Burst,
		BreakerTimeout:    cfg.TMDb.BreakerTimeout,
	})

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logging.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, cache will fall through")
		}
		client = catalog.NewCachedClient(client, rdb, cfg.Redis.TTL)
	}

	retriever := recommend.NewRetriever(client, recommend.RetrieverConfig{
		MaxPages:     cfg.Recommend.MaxPages,
		MinVoteCount: cfg.Recommend.MinVoteCount,
		PageTimeout:  cfg.TMDb.PageTimeout,
	})
	recommender := recommend.NewRecommender(recommend.NewProfileBuilder(), retriever, recommend.Config{
		IndividualPoolSize: cfg.Recommend.IndividualPoolSize,
		GroupPoolSize:      cfg.Recommend.GroupPoolSize,
	})

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	app := &api.App{
		Rooms: rooms.NewService(store, client, recommender, retriever, genres, rooms.Config{
			GenrePoolSize: cfg.Recommend.GroupPoolSize,
		}),
		Catalog: client,
		Genres:  genres,
	}

	router := api.NewRouter(app, api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logging.Info().
			Int("port", cfg.Server.Port).
			Str("store", cfg.Store.Backend).
			Bool("redis", cfg.Redis.Enabled).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStore builds the configured room store and returns its cleanup func.
func openStore(ctx context.Context, cfg *config.Config) (rooms.Store, func()) {
	switch cfg.Store.Backend {
	case "memory":
		logging.Warn().Msg("using in-memory room store, rooms are lost on restart")
		return rooms.NewMemoryStore(), func() {}

	case "mongo":
		store, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to mongo")
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			store.Close(closeCtx)
		}
	}

	db, err := database.NewDB(database.Config{
		Type:       cfg.Database.Type,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Name:       cfg.Database.Name,
		SQLitePath: cfg.Database.SQLitePath,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize database")
	}

	logging.Info().Str("path", cfg.Database.MigrationsPath).Msg("running database migrations")
	if err := db.RunMigrations(ctx, cfg.Database.MigrationsPath); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	return database.NewRoomRepository(db), func() { db.Close() }
}
