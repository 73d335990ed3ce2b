package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kdimtricp/moviematch/internal/catalog"
	"github.com/kdimtricp/moviematch/internal/models"
	"github.com/kdimtricp/moviematch/internal/recommend"
	"github.com/kdimtricp/moviematch/internal/rooms"
)

type App struct {
	Rooms   *rooms.Service
	Catalog catalog.Client
	Genres  *catalog.GenreTable
}

type createRoomRequest struct {
	HostName string `json:"hostName" validate:"required,max=64"`
}

type createRoomResponse struct {
	Room          *models.Room `json:"room"`
	ParticipantID string       `json:"participantId"`
}

type joinRoomRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type preferencesRequest struct {
	Genres       []int `json:"genres" validate:"required,min=1,dive,gt=0"`
	SeedMovieIDs []int `json:"seedMovieIds" validate:"required,len=3,dive,gt=0"`
}

type genreRecommendationsRequest struct {
	Genres []int `json:"genres" validate:"required,min=1,dive,gt=0"`
}

type voteRequest struct {
	Vote string `json:"vote" validate:"required,oneof=like maybe discard"`
}

type moviesResponse struct {
	Results []models.Movie `json:"results"`
	Page    int            `json:"page"`
}

type recommendationsResponse struct {
	Movies []rankedMovieResponse `json:"movies"`
}

type rankedMovieResponse struct {
	models.RankedMovie
	Breakdown *recommend.ScoreBreakdown `json:"breakdown,omitempty"`
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) GenresHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]catalog.Genre{"genres": app.Genres.All()})
}

func (app *App) SearchMoviesHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "page must be a positive integer"})
			return
		}
		page = n
	}

	movies, err := app.Catalog.SearchMovies(r.Context(), query, page)
	if err != nil {
		writeError(w, r, fmt.Errorf("searching movies: %w: %w", recommend.ErrUpstreamUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, moviesResponse{Results: movies, Page: page})
}

func (app *App) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	room, err := app.Rooms.CreateRoom(r.Context(), req.HostName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createRoomResponse{Room: room, ParticipantID: room.HostID})
}

func (app *App) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, err := app.Rooms.GetRoom(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (app *App) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := app.Rooms.JoinRoom(r.Context(), chi.URLParam(r, "code"), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (app *App) SavePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	prefs, err := app.Rooms.SavePreferences(r.Context(),
		chi.URLParam(r, "code"), chi.URLParam(r, "pid"), req.Genres, req.SeedMovieIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (app *App) ParticipantRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	code, pid := chi.URLParam(r, "code"), chi.URLParam(r, "pid")

	ranked, err := app.Rooms.RecommendForParticipant(r.Context(), code, pid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// ?explain=true attaches the per-component score breakdown.
	var profile *models.PreferenceProfile
	if explain, _ := strconv.ParseBool(r.URL.Query().Get("explain")); explain {
		if profile, err = app.Rooms.ParticipantProfile(r.Context(), code, pid); err != nil {
			writeError(w, r, err)
			return
		}
	}

	resp := recommendationsResponse{Movies: make([]rankedMovieResponse, len(ranked))}
	for i, rm := range ranked {
		resp.Movies[i].RankedMovie = rm
		if profile != nil {
			b := recommend.Explain(rm.Movie, profile)
			resp.Movies[i].Breakdown = &b
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (app *App) GroupRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	room, err := app.Rooms.GenerateRecommendations(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (app *App) GenreRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	var req genreRecommendationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	room, err := app.Rooms.GenreOnlyRecommendations(r.Context(), chi.URLParam(r, "code"), req.Genres)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (app *App) VoteHandler(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(chi.URLParam(r, "movieId"))
	if err != nil || movieID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "movieId must be a positive integer"})
		return
	}

	var req voteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err = app.Rooms.CastVote(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "pid"), movieID, models.Vote(req.Vote))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) WatchlistHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.Rooms.Watchlist(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
