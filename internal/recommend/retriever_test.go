package recommend

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kdimtricp/moviematch/internal/models"
)

func movieIDs(from, to int) []models.Movie {
	var movies []models.Movie
	for id := from; id <= to; id++ {
		movies = append(movies, models.Movie{ID: id})
	}
	return movies
}

func TestRetriever_Filter(t *testing.T) {
	profile := &models.PreferenceProfile{
		GenreScores: models.GenreScores{
			{GenreID: 1, Score: 5},
			{GenreID: 2, Score: 10},
			{GenreID: 3, Score: 5},
			{GenreID: 4, Score: 8},
			{GenreID: 5, Score: 5},
			{GenreID: 6, Score: 5},
			{GenreID: 7, Score: 1},
		},
		PreferredYearRange: models.YearRange{Min: 1994, Max: 2024},
		MinRating:          6.43,
	}

	filter := NewRetriever(newFakeCatalog(), RetrieverConfig{}).Filter(profile)

	wantGenres := []int{2, 4, 1, 3, 5}
	if !reflect.DeepEqual(filter.GenreIDs, wantGenres) {
		t.Errorf("GenreIDs = %v, want %v", filter.GenreIDs, wantGenres)
	}
	if filter.MinVoteCount != 300 {
		t.Errorf("MinVoteCount = %d, want 300", filter.MinVoteCount)
	}
	if filter.MinVoteAverage != 6.43 {
		t.Errorf("MinVoteAverage = %v, want 6.43", filter.MinVoteAverage)
	}
	if filter.MinYear != 1994 || filter.MaxYear != 2024 {
		t.Errorf("Year bounds = [%d %d], want [1994 2024]", filter.MinYear, filter.MaxYear)
	}
}

func TestRetriever_PageCount(t *testing.T) {
	tests := []struct {
		target int
		want   []int
	}{
		{target: 3, want: []int{1}},
		{target: 40, want: []int{1, 2}},
		{target: 41, want: []int{1, 2, 3}},
		{target: 200, want: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{target: 300, want: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		fake := newFakeCatalog()
		r := NewRetriever(fake, RetrieverConfig{})
		if _, err := r.Retrieve(context.Background(), testProfile(), tt.target); err != nil {
			t.Fatalf("Retrieve(%d) failed: %v", tt.target, err)
		}
		if got := fake.askedPages(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("target %d: pages = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestRetriever_DeduplicatesFirstSeen(t *testing.T) {
	fake := newFakeCatalog()
	fake.pages[1] = []models.Movie{{ID: 1}, {ID: 2, Title: "first"}, {ID: 3}}
	fake.pages[2] = []models.Movie{{ID: 2, Title: "second"}, {ID: 4}}
	fake.pages[3] = []models.Movie{{ID: 4}, {ID: 5}}

	pool, err := NewRetriever(fake, RetrieverConfig{}).Retrieve(context.Background(), testProfile(), 60)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if got, want := ids(pool), []int{1, 2, 3, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("pool = %v, want %v", got, want)
	}
	if pool[1].Title != "first" {
		t.Errorf("Expected first-seen copy of movie 2, got %q", pool[1].Title)
	}
}

func TestRetriever_TruncatesToTarget(t *testing.T) {
	fake := newFakeCatalog()
	fake.pages[1] = movieIDs(1, 20)
	fake.pages[2] = movieIDs(21, 40)

	pool, err := NewRetriever(fake, RetrieverConfig{}).Retrieve(context.Background(), testProfile(), 25)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(pool) != 25 {
		t.Fatalf("Expected 25 movies, got %d", len(pool))
	}
	if pool[24].ID != 25 {
		t.Errorf("Expected last movie 25, got %d", pool[24].ID)
	}
}

func TestRetriever_DropsFailedPages(t *testing.T) {
	fake := newFakeCatalog()
	fake.pages[1] = movieIDs(1, 3)
	fake.pages[2] = movieIDs(4, 6)
	fake.pages[3] = movieIDs(7, 9)
	fake.fail[2] = true

	pool, err := NewRetriever(fake, RetrieverConfig{}).Retrieve(context.Background(), testProfile(), 60)
	if err != nil {
		t.Fatalf("Expected partial failure to be tolerated, got %v", err)
	}
	if got, want := ids(pool), []int{1, 2, 3, 7, 8, 9}; !reflect.DeepEqual(got, want) {
		t.Errorf("pool = %v, want %v", got, want)
	}
}

func TestRetriever_TimedOutPageDropped(t *testing.T) {
	fake := newFakeCatalog()
	fake.pages[2] = movieIDs(1, 2)
	fake.block[1] = true

	r := NewRetriever(fake, RetrieverConfig{PageTimeout: 20 * time.Millisecond})
	pool, err := r.Retrieve(context.Background(), testProfile(), 40)
	if err != nil {
		t.Fatalf("Expected timeout to drop the page, got %v", err)
	}
	if got, want := ids(pool), []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("pool = %v, want %v", got, want)
	}
}

func TestRetriever_AllPagesFailed(t *testing.T) {
	fake := newFakeCatalog()
	for p := 1; p <= 10; p++ {
		fake.fail[p] = true
	}

	_, err := NewRetriever(fake, RetrieverConfig{}).Retrieve(context.Background(), testProfile(), 200)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestRetriever_EmptyPagesAreNotFailures(t *testing.T) {
	pool, err := NewRetriever(newFakeCatalog(), RetrieverConfig{}).Retrieve(context.Background(), testProfile(), 200)
	if err != nil {
		t.Fatalf("Expected no error for empty pages, got %v", err)
	}
	if len(pool) != 0 {
		t.Errorf("Expected empty pool, got %d", len(pool))
	}
}

func TestRetriever_RetrieveByGenres(t *testing.T) {
	fake := newFakeCatalog()
	fake.pages[1] = movieIDs(1, 2)

	pool, err := NewRetriever(fake, RetrieverConfig{}).RetrieveByGenres(context.Background(), []int{35, 18}, 20)
	if err != nil {
		t.Fatalf("RetrieveByGenres failed: %v", err)
	}
	if len(pool) != 2 {
		t.Errorf("Expected 2 movies, got %d", len(pool))
	}
	if got := fake.filters[0].GenreIDs; !reflect.DeepEqual(got, []int{35, 18}) {
		t.Errorf("GenreIDs = %v, want [35 18]", got)
	}
	if fake.filters[0].MinVoteAverage != 0 || fake.filters[0].MinYear != 0 {
		t.Errorf("Expected only genre and vote count filters, got %+v", fake.filters[0])
	}

	if _, err := NewRetriever(fake, RetrieverConfig{}).RetrieveByGenres(context.Background(), nil, 20); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for empty genres, got %v", err)
	}
}
