package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Store     StoreConfig     `koanf:"store"`
	Mongo     MongoConfig     `koanf:"mongo"`
	Redis     RedisConfig     `koanf:"redis"`
	TMDb      TMDbConfig      `koanf:"tmdb"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

type DatabaseConfig struct {
	Type           string `koanf:"type"` // sqlite or postgres
	SQLitePath     string `koanf:"sqlite_path"`
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	User           string `koanf:"user"`
	Password       string `koanf:"password"`
	Name           string `koanf:"name"`
	MigrationsPath string `koanf:"migrations_path"`
}

type StoreConfig struct {
	Backend string `koanf:"backend"` // sql, mongo or memory
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type RedisConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

type TMDbConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	ImageBaseURL      string        `koanf:"image_base_url"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	PageTimeout       time.Duration `koanf:"page_timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	BreakerTimeout    time.Duration `koanf:"breaker_timeout"`
}

type RecommendConfig struct {
	IndividualPoolSize int `koanf:"individual_pool_size"`
	GroupPoolSize      int `koanf:"group_pool_size"`
	MaxPages           int `koanf:"max_pages"`
	MinVoteCount       int `koanf:"min_vote_count"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.TMDb.APIKey == "" {
		errs = append(errs, errors.New("tmdb.api_key is required (set TMDB_API_KEY)"))
	}
	if c.TMDb.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("tmdb.requests_per_second must be positive"))
	}

	switch c.Store.Backend {
	case "sql":
		switch c.Database.Type {
		case "sqlite":
			if c.Database.SQLitePath == "" {
				errs = append(errs, errors.New("database.sqlite_path is required for sqlite"))
			}
		case "postgres":
			if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
				errs = append(errs, errors.New("database.host, database.name and database.user are required for postgres"))
			}
		default:
			errs = append(errs, fmt.Errorf("database.type must be sqlite or postgres, got %q", c.Database.Type))
		}
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			errs = append(errs, errors.New("mongo.uri and mongo.database are required for the mongo store"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("store.backend must be sql, mongo or memory, got %q", c.Store.Backend))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.Recommend.IndividualPoolSize <= 0 || c.Recommend.GroupPoolSize <= 0 {
		errs = append(errs, errors.New("recommend pool sizes must be positive"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
