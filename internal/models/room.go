package models

import (
	"time"

	"github.com/google/uuid"
)

type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomReady   RoomStatus = "ready"
	RoomSwiping RoomStatus = "swiping"
)

type Vote string

const (
	VoteLike    Vote = "like"
	VoteMaybe   Vote = "maybe"
	VoteDiscard Vote = "discard"
)

func (v Vote) Valid() bool {
	switch v {
	case VoteLike, VoteMaybe, VoteDiscard:
		return true
	}
	return false
}

type Participant struct {
	ID       string    `json:"id" bson:"id"`
	Name     string    `json:"name" bson:"name"`
	JoinedAt time.Time `json:"joinedAt" bson:"joinedAt"`
}

func NewParticipant(name string) Participant {
	return Participant{
		ID:       uuid.New().String(),
		Name:     name,
		JoinedAt: time.Now().UTC(),
	}
}

type Room struct {
	Code                 string                     `json:"code"`
	HostID               string                     `json:"hostId"`
	Status               RoomStatus                 `json:"status"`
	Participants         []Participant              `json:"participants"`
	UserPreferences      map[string]UserPreferences `json:"userPreferences"`
	MovieList            []Movie                    `json:"movieList"`
	RecommendationScores map[int]float64            `json:"recommendationScores"`
	Votes                map[string]map[int]Vote    `json:"votes"`
	CreatedAt            time.Time                  `json:"createdAt"`
	UpdatedAt            time.Time                  `json:"updatedAt"`
}

func NewRoom(code string, host Participant) *Room {
	now := time.Now().UTC()
	return &Room{
		Code:                 code,
		HostID:               host.ID,
		Status:               RoomWaiting,
		Participants:         []Participant{host},
		UserPreferences:      map[string]UserPreferences{},
		MovieList:            []Movie{},
		RecommendationScores: map[int]float64{},
		Votes:                map[string]map[int]Vote{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (r *Room) Participant(id string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// Readiness reports how many participants have submitted preferences.
func (r *Room) Readiness() (ready, total int) {
	for _, p := range r.Participants {
		if _, ok := r.UserPreferences[p.ID]; ok {
			ready++
		}
	}
	return ready, len(r.Participants)
}

func (r *Room) upsertParticipant(p Participant) {
	for i := range r.Participants {
		if r.Participants[i].ID == p.ID {
			r.Participants[i] = p
			return
		}
	}
	r.Participants = append(r.Participants, p)
}

// RoomUpdate is a merge-style partial update. Nil fields are left untouched;
// participants, preferences and votes are written per key.
type RoomUpdate struct {
	Status               *RoomStatus
	Participants         []Participant
	UserPreferences      map[string]UserPreferences
	MovieList            *[]Movie
	RecommendationScores *map[int]float64
	Votes                map[string]map[int]Vote
}

func (u RoomUpdate) Empty() bool {
	return u.Status == nil && u.Participants == nil && len(u.UserPreferences) == 0 &&
		u.MovieList == nil && u.RecommendationScores == nil && len(u.Votes) == 0
}

// Apply merges u into r in place.
func (u RoomUpdate) Apply(r *Room) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	for _, p := range u.Participants {
		r.upsertParticipant(p)
	}
	if len(u.UserPreferences) > 0 && r.UserPreferences == nil {
		r.UserPreferences = map[string]UserPreferences{}
	}
	for id, prefs := range u.UserPreferences {
		r.UserPreferences[id] = prefs
	}
	if u.MovieList != nil {
		r.MovieList = append([]Movie(nil), (*u.MovieList)...)
	}
	if u.RecommendationScores != nil {
		scores := make(map[int]float64, len(*u.RecommendationScores))
		for id, s := range *u.RecommendationScores {
			scores[id] = s
		}
		r.RecommendationScores = scores
	}
	if len(u.Votes) > 0 && r.Votes == nil {
		r.Votes = map[string]map[int]Vote{}
	}
	for id, votes := range u.Votes {
		merged := r.Votes[id]
		if merged == nil {
			merged = map[int]Vote{}
		}
		for movieID, v := range votes {
			merged[movieID] = v
		}
		r.Votes[id] = merged
	}
}
