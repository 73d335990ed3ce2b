package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolate runs the test from an empty directory so no config.yaml or .env
// on the developer machine leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", cfg.Database.Type)
	}
	if cfg.Store.Backend != "sql" {
		t.Errorf("Store.Backend = %q, want sql", cfg.Store.Backend)
	}
	if cfg.Recommend.IndividualPoolSize != 200 || cfg.Recommend.GroupPoolSize != 300 {
		t.Errorf("Pool sizes = %d/%d, want 200/300", cfg.Recommend.IndividualPoolSize, cfg.Recommend.GroupPoolSize)
	}
	if cfg.TMDb.PageTimeout != 10*time.Second {
		t.Errorf("TMDb.PageTimeout = %v, want 10s", cfg.TMDb.PageTimeout)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PORT", "server.port"},
		{"DB_TYPE", "database.type"},
		{"DB_PATH", "database.sqlite_path"},
		{"TMDB_API_KEY", "tmdb.api_key"},
		{"TMDB_RATE_LIMIT", "tmdb.requests_per_second"},
		{"STORE_BACKEND", "store.backend"},
		{"LOG_LEVEL", "logging.level"},
		{"HOME", ""},
		{"RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoad_EnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("TMDB_API_KEY", "test_key")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TMDB_PAGE_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("GROUP_POOL_SIZE", "400")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TMDb.APIKey != "test_key" {
		t.Errorf("TMDb.APIKey = %q, want test_key", cfg.TMDb.APIKey)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.TMDb.PageTimeout != 3*time.Second {
		t.Errorf("TMDb.PageTimeout = %v, want 3s", cfg.TMDb.PageTimeout)
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.Server.CORSOrigins, want) {
		t.Errorf("Server.CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.Recommend.GroupPoolSize != 400 {
		t.Errorf("Recommend.GroupPoolSize = %d, want 400", cfg.Recommend.GroupPoolSize)
	}
	if cfg.Recommend.IndividualPoolSize != 200 {
		t.Errorf("Recommend.IndividualPoolSize = %d, want 200 (default)", cfg.Recommend.IndividualPoolSize)
	}
}

func TestLoad_ConfigFileWithEnvOverride(t *testing.T) {
	dir := isolate(t)

	content := `
server:
  port: 7000
store:
  backend: mongo
mongo:
  uri: mongodb://db.test:27017
  database: rooms
tmdb:
  api_key: file_key
logging:
  format: console
`
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("TMDB_API_KEY", "env_key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Store.Backend != "mongo" || cfg.Mongo.Database != "rooms" {
		t.Errorf("Store = %q / %q, want mongo / rooms", cfg.Store.Backend, cfg.Mongo.Database)
	}
	if cfg.TMDb.APIKey != "env_key" {
		t.Errorf("TMDb.APIKey = %q, env must override file", cfg.TMDb.APIKey)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("TMDB_API_KEY", "")
	os.Unsetenv("TMDB_API_KEY")
	t.Setenv("DB_NAME", "")
	os.Unsetenv("DB_NAME")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TMDB_API_KEY=dotenv_key\nDB_NAME=from_dotenv\n"), 0o644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	// godotenv sets real process variables; restore them after the test.
	t.Cleanup(func() {
		os.Unsetenv("TMDB_API_KEY")
		os.Unsetenv("DB_NAME")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TMDb.APIKey != "dotenv_key" {
		t.Errorf("TMDb.APIKey = %q, want dotenv_key", cfg.TMDb.APIKey)
	}
	if cfg.Database.Name != "from_dotenv" {
		t.Errorf("Database.Name = %q, want from_dotenv", cfg.Database.Name)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.TMDb.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with key", mutate: func(*Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.TMDb.APIKey = "" }, wantErr: "tmdb.api_key"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "unknown db", mutate: func(c *Config) { c.Database.Type = "oracle" }, wantErr: "database.type"},
		{name: "postgres needs host", mutate: func(c *Config) {
			c.Database.Type = "postgres"
			c.Database.Host = ""
		}, wantErr: "database.host"},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "files" }, wantErr: "store.backend"},
		{name: "mongo needs uri", mutate: func(c *Config) {
			c.Store.Backend = "mongo"
			c.Mongo.URI = ""
		}, wantErr: "mongo.uri"},
		{name: "memory backend", mutate: func(c *Config) { c.Store.Backend = "memory" }},
		{name: "redis needs addr", mutate: func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}, wantErr: "redis.addr"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
