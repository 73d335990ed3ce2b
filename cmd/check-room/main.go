package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kdimtricp/moviematch/internal/database"
	"github.com/kdimtricp/moviematch/internal/logging"
	"github.com/kdimtricp/moviematch/internal/rooms"
)

func main() {
	code := flag.String("code", "", "Room code to inspect; omit for a summary of all rooms")
	flag.Parse()

	logging.Init(logging.Config{Level: "warn", Format: "console"})

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid DB_PORT")
	}

	db, err := database.NewDB(database.Config{
		Type:       getEnv("DB_TYPE", "sqlite"),
		SQLitePath: getEnv("DB_PATH", "./moviematch.db"),
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       port,
		User:       getEnv("DB_USER", "moviematch"),
		Password:   getEnv("DB_PASSWORD", "moviematch_dev"),
		Name:       getEnv("DB_NAME", "moviematch"),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *code == "" {
		summarize(ctx, db)
		return
	}

	room, err := database.NewRoomRepository(db).GetRoom(ctx, *code)
	if err != nil {
		logging.Fatal().Err(err).Str("code", *code).Msg("failed to load room")
	}

	ready, total := room.Readiness()
	fmt.Printf("Room %s [%s]\n", room.Code, room.Status)
	fmt.Println("==================")
	fmt.Printf("Created: %s  Updated: %s\n", room.CreatedAt.Format(time.RFC3339), room.UpdatedAt.Format(time.RFC3339))
	fmt.Printf("Preferences submitted: %d/%d\n\n", ready, total)

	for _, p := range room.Participants {
		marker := " "
		if p.ID == room.HostID {
			marker = "*"
		}
		_, hasPrefs := room.UserPreferences[p.ID]
		fmt.Printf("%s %-20s prefs=%-5t votes=%d\n", marker, p.Name, hasPrefs, len(room.Votes[p.ID]))
	}

	fmt.Printf("\nMovie list: %d movies\n", len(room.MovieList))
	for i, m := range room.MovieList {
		if i >= 5 {
			fmt.Printf("   ... and %d more\n", len(room.MovieList)-5)
			break
		}
		fmt.Printf("   %d. %s (%d) score %.2f\n", i+1, m.Title, m.ReleaseYear(), room.RecommendationScores[m.ID])
	}

	list := rooms.BuildWatchlist(room)
	fmt.Printf("\nMatches: %d  Maybes: %d\n", len(list.Matches), len(list.Maybes))
	for _, m := range list.Matches {
		fmt.Printf("   + %s\n", m.Title)
	}
	for _, m := range list.Maybes {
		fmt.Printf("   ? %s\n", m.Title)
	}
}

func summarize(ctx context.Context, db *database.DB) {
	rows, err := db.Conn().QueryContext(ctx, "SELECT status, COUNT(*) FROM rooms GROUP BY status ORDER BY status")
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to count rooms")
	}
	defer rows.Close()

	fmt.Println("Rooms by status:")
	fmt.Println("================")
	total := 0
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			logging.Fatal().Err(err).Msg("failed to scan row")
		}
		total += n
		fmt.Printf("%-10s %d\n", status, n)
	}
	if err := rows.Err(); err != nil {
		logging.Fatal().Err(err).Msg("failed to read rooms")
	}
	fmt.Printf("%-10s %d\n", "total", total)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
