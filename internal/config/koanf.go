package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/moviematch/config.yaml",
}

const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Type:           "sqlite",
			SQLitePath:     "./moviematch.db",
			Host:           "localhost",
			Port:           5432,
			User:           "moviematch",
			Password:       "moviematch_dev",
			Name:           "moviematch",
			MigrationsPath: "./migrations",
		},
		Store: StoreConfig{
			Backend: "sql",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "moviematch",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     6 * time.Hour,
		},
		TMDb: TMDbConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p",
			RequestTimeout:    10 * time.Second,
			PageTimeout:       10 * time.Second,
			RequestsPerSecond: 40,
			Burst:             10,
			BreakerTimeout:    30 * time.Second,
		},
		Recommend: RecommendConfig{
			IndividualPoolSize: 200,
			GroupPoolSize:      300,
			MaxPages:           10,
			MinVoteCount:       300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers configuration from defaults, an optional YAML file and the
// environment, in increasing priority. A .env file in the working directory
// is read into the environment first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		var parts []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"port":                 "server.port",
	"read_timeout":         "server.read_timeout",
	"write_timeout":        "server.write_timeout",
	"shutdown_timeout":     "server.shutdown_timeout",
	"cors_origins":         "server.cors_origins",
	"rate_limit_requests":  "server.rate_limit_reqs",
	"rate_limit_window":    "server.rate_limit_window",
	"db_type":              "database.type",
	"db_path":              "database.sqlite_path",
	"db_host":              "database.host",
	"db_port":              "database.port",
	"db_user":              "database.user",
	"db_password":          "database.password",
	"db_name":              "database.name",
	"migrations_path":      "database.migrations_path",
	"store_backend":        "store.backend",
	"mongo_uri":            "mongo.uri",
	"mongo_database":       "mongo.database",
	"redis_enabled":        "redis.enabled",
	"redis_addr":           "redis.addr",
	"redis_password":       "redis.password",
	"redis_db":             "redis.db",
	"redis_ttl":            "redis.ttl",
	"tmdb_api_key":         "tmdb.api_key",
	"tmdb_base_url":        "tmdb.base_url",
	"tmdb_image_base_url":  "tmdb.image_base_url",
	"tmdb_request_timeout": "tmdb.request_timeout",
	"tmdb_page_timeout":    "tmdb.page_timeout",
	"tmdb_rate_limit":      "tmdb.requests_per_second",
	"tmdb_burst":           "tmdb.burst",
	"tmdb_breaker_timeout": "tmdb.breaker_timeout",
	"individual_pool_size": "recommend.individual_pool_size",
	"group_pool_size":      "recommend.group_pool_size",
	"discover_max_pages":   "recommend.max_pages",
	"discover_min_votes":   "recommend.min_vote_count",
	"log_level":            "logging.level",
	"log_format":           "logging.format",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unknown variables map to "" and are ignored.
//
// Examples:
//   - PORT -> server.port
//   - DB_TYPE -> database.type
//   - TMDB_API_KEY -> tmdb.api_key
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
