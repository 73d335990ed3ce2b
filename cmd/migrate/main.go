package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kdimtricp/moviematch/internal/database"
	"github.com/kdimtricp/moviematch/internal/logging"
)

func main() {
	var (
		dbType         = flag.String("db", "postgres", "Database type (postgres or sqlite)")
		host           = flag.String("host", "localhost", "Database host")
		port           = flag.Int("port", 5432, "Database port")
		user           = flag.String("user", "moviematch", "Database user")
		password       = flag.String("password", "moviematch_dev", "Database password")
		dbName         = flag.String("name", "moviematch", "Database name")
		sqlitePath     = flag.String("path", "./moviematch.db", "SQLite database file")
		migrationsPath = flag.String("migrations", "./migrations", "Path to migrations directory")
		status         = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: "console"})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Fatal().Err(err).Msg("failed to load .env")
	}

	config := database.Config{
		Type:       *dbType,
		Host:       *host,
		Port:       *port,
		User:       *user,
		Password:   *password,
		Name:       *dbName,
		SQLitePath: *sqlitePath,
	}

	// Environment overrides flags, matching the server.
	if env := os.Getenv("DB_TYPE"); env != "" {
		config.Type = env
	}
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		p, err := strconv.Atoi(env)
		if err != nil {
			logging.Fatal().Err(err).Msg("invalid DB_PORT")
		}
		config.Port = p
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Name = env
	}
	if env := os.Getenv("DB_PATH"); env != "" {
		config.SQLitePath = env
	}
	if env := os.Getenv("MIGRATIONS_PATH"); env != "" {
		*migrationsPath = env
	}

	db, err := database.NewDB(config)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if config.Type == "sqlite" {
		fmt.Println("SQLite schema is created on connect; no migrations to run.")
		return
	}

	ctx := context.Background()

	if !*status {
		fmt.Printf("Running migrations from %s...\n", *migrationsPath)
		if err := db.RunMigrations(ctx, *migrationsPath); err != nil {
			logging.Fatal().Err(err).Msg("failed to run migrations")
		}
		fmt.Println("Migrations completed successfully!")
		return
	}

	statuses, err := database.NewMigrator(db.Conn(), config.Type).Status(ctx, *migrationsPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to read migration status")
	}

	fmt.Println("Migration Status:")
	fmt.Println("=================")
	for _, st := range statuses {
		state := "pending"
		if st.Applied() {
			state = "applied " + st.AppliedAt.Format(time.RFC3339)
		}
		fmt.Printf("%s - %s [%s]\n", st.Version, st.Name, state)
	}
}
