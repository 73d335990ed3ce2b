package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/kdimtricp/moviematch/internal/models"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"
)

var ErrNotFound = errors.New("movie not found")

// Client is the read-only movie catalog consumed by the recommender.
type Client interface {
	GetMovie(ctx context.Context, id int) (*models.Movie, error)
	SearchMovies(ctx context.Context, query string, page int) ([]models.Movie, error)
	Discover(ctx context.Context, filter DiscoverFilter, page int) ([]models.Movie, error)
}

// DiscoverFilter narrows a discovery query. Zero values are not applied.
type DiscoverFilter struct {
	GenreIDs       []int
	MinVoteCount   int
	MinVoteAverage float64
	MinYear        int
	MaxYear        int
	SortBy         string
}

func (f DiscoverFilter) values() url.Values {
	params := url.Values{}
	if len(f.GenreIDs) > 0 {
		ids := make([]string, len(f.GenreIDs))
		for i, id := range f.GenreIDs {
			ids[i] = strconv.Itoa(id)
		}
		// "|" is OR for with_genres, "," would be AND.
		params.Set("with_genres", strings.Join(ids, "|"))
	}
	if f.MinVoteCount > 0 {
		params.Set("vote_count.gte", strconv.Itoa(f.MinVoteCount))
	}
	if f.MinVoteAverage > 0 {
		// Unrounded: rounding up would drop movies that meet the bound.
		params.Set("vote_average.gte", strconv.FormatFloat(f.MinVoteAverage, 'f', -1, 64))
	}
	if f.MinYear > 0 {
		params.Set("primary_release_date.gte", fmt.Sprintf("%04d-01-01", f.MinYear))
	}
	if f.MaxYear > 0 {
		params.Set("primary_release_date.lte", fmt.Sprintf("%04d-12-31", f.MaxYear))
	}
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	params.Set("sort_by", sortBy)
	params.Set("include_adult", "false")
	return params
}

type TMDbClient struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
}

type Option func(*TMDbClient)

func WithBaseURL(u string) Option {
	return func(c *TMDbClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithImageBaseURL(u string) Option {
	return func(c *TMDbClient) { c.imageBaseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *TMDbClient) { c.httpClient = hc }
}

type FilmDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	Genres      []Genre `json:"genres"`
	Runtime     int     `json:"runtime"`
	Keywords    struct {
		Keywords []Keyword `json:"keywords"`
	} `json:"keywords"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type movieListResult struct {
	Page         int           `json:"page"`
	Results      []listedMovie `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

type listedMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	GenreIDs    []int   `json:"genre_ids"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
}

// toModel leaves Runtime at 0: list endpoints do not return it.
func (m listedMovie) toModel() models.Movie {
	return models.Movie{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
		GenreIDs:    m.GenreIDs,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
		VoteCount:   m.VoteCount,
		Popularity:  m.Popularity,
	}
}

func (d FilmDetails) toModel() models.Movie {
	genres := make([]int, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, g.ID)
	}
	keywords := make([]string, 0, len(d.Keywords.Keywords))
	for _, k := range d.Keywords.Keywords {
		keywords = append(keywords, k.Name)
	}

	return models.Movie{
		ID:          d.ID,
		Title:       d.Title,
		Overview:    d.Overview,
		PosterPath:  d.PosterPath,
		GenreIDs:    genres,
		ReleaseDate: d.ReleaseDate,
		VoteAverage: d.VoteAverage,
		VoteCount:   d.VoteCount,
		Runtime:     d.Runtime,
		Popularity:  d.Popularity,
		Keywords:    keywords,
	}
}

func NewTMDbClient(apiKey string, opts ...Option) *TMDbClient {
	c := &TMDbClient{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		imageBaseURL: DefaultImageBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TMDbClient) get(ctx context.Context, path string, params url.Values, dest any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDb API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// GetMovie fetches full details for one movie, keywords included.
func (c *TMDbClient) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	params := url.Values{}
	params.Set("append_to_response", "keywords")

	var details FilmDetails
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id), params, &details); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("movie %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	movie := details.toModel()
	return &movie, nil
}

func (c *TMDbClient) SearchMovies(ctx context.Context, query string, page int) ([]models.Movie, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Movie{}, nil
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")

	var result movieListResult
	if err := c.get(ctx, "/search/movie", params, &result); err != nil {
		return nil, err
	}
	return toModels(result.Results), nil
}

func (c *TMDbClient) Discover(ctx context.Context, filter DiscoverFilter, page int) ([]models.Movie, error) {
	if page < 1 {
		page = 1
	}

	params := filter.values()
	params.Set("page", strconv.Itoa(page))

	var result movieListResult
	if err := c.get(ctx, "/discover/movie", params, &result); err != nil {
		return nil, err
	}
	return toModels(result.Results), nil
}

// Genres loads the catalog's movie genre list.
func (c *TMDbClient) Genres(ctx context.Context) (*GenreTable, error) {
	var result struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", nil, &result); err != nil {
		return nil, err
	}
	return NewGenreTable(result.Genres), nil
}

func (c *TMDbClient) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.imageBaseURL, size, path)
}

func toModels(listed []listedMovie) []models.Movie {
	movies := make([]models.Movie, 0, len(listed))
	for _, m := range listed {
		movies = append(movies, m.toModel())
	}
	return movies
}
