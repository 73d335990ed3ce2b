package catalog

// GenreTable is a read-only id to name lookup for catalog genres. It is built
// once at startup and passed to whoever needs it.
type GenreTable struct {
	genres []Genre
	byID   map[int]string
}

func NewGenreTable(genres []Genre) *GenreTable {
	t := &GenreTable{
		genres: make([]Genre, 0, len(genres)),
		byID:   make(map[int]string, len(genres)),
	}
	for _, g := range genres {
		if _, dup := t.byID[g.ID]; dup {
			continue
		}
		t.byID[g.ID] = g.Name
		t.genres = append(t.genres, g)
	}
	return t
}

// DefaultGenres is the TMDb movie genre list, used when the catalog cannot be
// asked for it.
func DefaultGenres() *GenreTable {
	return NewGenreTable([]Genre{
		{ID: 28, Name: "Action"},
		{ID: 12, Name: "Adventure"},
		{ID: 16, Name: "Animation"},
		{ID: 35, Name: "Comedy"},
		{ID: 80, Name: "Crime"},
		{ID: 99, Name: "Documentary"},
		{ID: 18, Name: "Drama"},
		{ID: 10751, Name: "Family"},
		{ID: 14, Name: "Fantasy"},
		{ID: 36, Name: "History"},
		{ID: 27, Name: "Horror"},
		{ID: 10402, Name: "Music"},
		{ID: 9648, Name: "Mystery"},
		{ID: 10749, Name: "Romance"},
		{ID: 878, Name: "Science Fiction"},
		{ID: 10770, Name: "TV Movie"},
		{ID: 53, Name: "Thriller"},
		{ID: 10752, Name: "War"},
		{ID: 37, Name: "Western"},
	})
}

func (t *GenreTable) Name(id int) (string, bool) {
	name, ok := t.byID[id]
	return name, ok
}

func (t *GenreTable) Valid(id int) bool {
	_, ok := t.byID[id]
	return ok
}

// All returns the genres in catalog order. The slice is a copy.
func (t *GenreTable) All() []Genre {
	out := make([]Genre, len(t.genres))
	copy(out, t.genres)
	return out
}
