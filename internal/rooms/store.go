package rooms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kdimtricp/moviematch/internal/models"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomExists          = errors.New("room already exists")
	ErrParticipantNotFound = errors.New("participant not found")
)

// Store persists rooms. UpdateRoom is merge-style: only the fields set in the
// update are written, and participant-keyed maps are written per key so that
// concurrent writers for different participants never overwrite each other.
type Store interface {
	GetRoom(ctx context.Context, code string) (*models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	UpdateRoom(ctx context.Context, code string, update models.RoomUpdate) error
}

// PersistenceError wraps a store failure that is not a missing room.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*models.Room)}
}

func (s *MemoryStore) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (s *MemoryStore) CreateRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.Code]; ok {
		return ErrRoomExists
	}
	s.rooms[room.Code] = cloneRoom(room)
	return nil
}

func (s *MemoryStore) UpdateRoom(ctx context.Context, code string, update models.RoomUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	update.Apply(room)
	room.UpdatedAt = time.Now().UTC()
	return nil
}

// cloneRoom copies every map and slice so callers never share state with the
// stored room.
func cloneRoom(r *models.Room) *models.Room {
	c := *r
	c.Participants = append([]models.Participant(nil), r.Participants...)
	c.MovieList = append([]models.Movie(nil), r.MovieList...)

	c.UserPreferences = make(map[string]models.UserPreferences, len(r.UserPreferences))
	for id, p := range r.UserPreferences {
		c.UserPreferences[id] = p
	}

	c.RecommendationScores = make(map[int]float64, len(r.RecommendationScores))
	for id, s := range r.RecommendationScores {
		c.RecommendationScores[id] = s
	}

	c.Votes = make(map[string]map[int]models.Vote, len(r.Votes))
	for pid, votes := range r.Votes {
		inner := make(map[int]models.Vote, len(votes))
		for movieID, v := range votes {
			inner[movieID] = v
		}
		c.Votes[pid] = inner
	}
	return &c
}
