package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	envPath := filepath.Join("..", "..", ".env")
	_ = godotenv.Load(envPath)
}

func liveClient(t *testing.T) *TMDbClient {
	t.Helper()
	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping TMDb integration test: TMDB_API_KEY not set")
	}
	return NewTMDbClient(apiKey)
}

func TestTMDbLive_SearchMovies(t *testing.T) {
	client := liveClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	movies, err := client.SearchMovies(ctx, "Inception", 1)
	if err != nil {
		t.Fatalf("SearchMovies failed: %v", err)
	}
	if len(movies) == 0 {
		t.Fatal("Expected at least one movie, got none")
	}

	t.Logf("Found %d movies", len(movies))

	if movies[0].Title == "" || movies[0].ID == 0 {
		t.Errorf("Expected first movie to have a title and id, got %+v", movies[0])
	}
}

func TestTMDbLive_GetMovie(t *testing.T) {
	client := liveClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	movie, err := client.GetMovie(ctx, 603)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}

	if movie.ID != 603 {
		t.Errorf("Expected movie ID to be 603, got %d", movie.ID)
	}

	t.Logf("Movie: %s (%s)", movie.Title, movie.ReleaseDate)
	t.Logf("Runtime: %d minutes, Rating: %.1f", movie.Runtime, movie.VoteAverage)
	t.Logf("Keywords: %v", movie.Keywords)

	if len(movie.GenreIDs) == 0 {
		t.Error("Expected movie to have genres")
	}
	if len(movie.Keywords) == 0 {
		t.Error("Expected movie to have keywords")
	}
}

func TestTMDbLive_Discover(t *testing.T) {
	client := liveClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	movies, err := client.Discover(ctx, DiscoverFilter{
		GenreIDs:       []int{28, 12},
		MinVoteCount:   300,
		MinVoteAverage: 6.5,
		MinYear:        1995,
		MaxYear:        2020,
	}, 1)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	for _, m := range movies {
		if y := m.ReleaseYear(); y != 0 && (y < 1995 || y > 2020) {
			t.Errorf("Movie %d released %d outside requested bounds", m.ID, y)
		}
	}
}

func TestTMDbLive_ContextCancellation(t *testing.T) {
	client := liveClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchMovies(ctx, "test movie", 1)
	if err == nil {
		t.Error("Expected error when context is cancelled")
	}
}
