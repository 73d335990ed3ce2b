package recommend

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/kdimtricp/moviematch/internal/catalog"
	"github.com/kdimtricp/moviematch/internal/models"
)

var errPageFailed = errors.New("page failed")

// fakeCatalog serves canned discovery pages and records what was asked.
type fakeCatalog struct {
	mu      sync.Mutex
	pages   map[int][]models.Movie
	fail    map[int]bool
	block   map[int]bool
	filters []catalog.DiscoverFilter
	asked   []int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		pages: map[int][]models.Movie{},
		fail:  map[int]bool{},
		block: map[int]bool{},
	}
}

func (f *fakeCatalog) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) SearchMovies(ctx context.Context, query string, page int) ([]models.Movie, error) {
	return []models.Movie{}, nil
}

func (f *fakeCatalog) Discover(ctx context.Context, filter catalog.DiscoverFilter, page int) ([]models.Movie, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.asked = append(f.asked, page)
	fail, block := f.fail[page], f.block[page]
	movies := f.pages[page]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail {
		return nil, errPageFailed
	}
	return movies, nil
}

func (f *fakeCatalog) askedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	pages := append([]int(nil), f.asked...)
	sort.Ints(pages)
	return pages
}

func ids(movies []models.Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func rankedIDs(ranked []models.RankedMovie) []int {
	out := make([]int, len(ranked))
	for i, rm := range ranked {
		out[i] = rm.Movie.ID
	}
	return out
}
