package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kdimtricp/moviematch/internal/models"
	"github.com/kdimtricp/moviematch/internal/rooms"
)

func TestSetFields(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	status := models.RoomSwiping
	movies := []models.Movie{{ID: 1}}
	scores := map[int]float64{1: 42.5}

	set := setFields(models.RoomUpdate{
		Status:               &status,
		Participants:         []models.Participant{{ID: "p2", Name: "Bob"}},
		MovieList:            &movies,
		RecommendationScores: &scores,
		Votes:                map[string]map[int]models.Vote{"p1": {1: models.VoteMaybe}},
	}, now)

	tests := []struct {
		key  string
		want any
	}{
		{key: "updatedAt", want: now},
		{key: "status", want: "swiping"},
		{key: "votes.p1.1", want: "maybe"},
	}
	for _, tt := range tests {
		if got := set[tt.key]; got != tt.want {
			t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
		}
	}

	if _, ok := set["participants.p2"]; !ok {
		t.Error("Expected participant to be set by id")
	}
	if got := set["recommendationScores"].(map[string]float64); got["1"] != 42.5 {
		t.Errorf("Expected string keyed scores, got %v", got)
	}
	if _, ok := set["votes"]; ok {
		t.Error("Votes must be written per key, not as a whole map")
	}
	if _, ok := set["userPreferences"]; ok {
		t.Error("Preferences must not be written when absent")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	host := models.NewParticipant("host")
	room := models.NewRoom("ROOM01", host)
	guest := models.NewParticipant("guest")
	room.Participants = append(room.Participants, guest)
	room.RecommendationScores = map[int]float64{7: 12.5}
	room.Votes = map[string]map[int]models.Vote{guest.ID: {7: models.VoteLike}}

	got, err := fromDocument(toDocument(room))
	if err != nil {
		t.Fatalf("fromDocument failed: %v", err)
	}
	if len(got.Participants) != 2 || got.Participants[0].ID != host.ID {
		t.Errorf("Expected host first, got %+v", got.Participants)
	}
	if got.RecommendationScores[7] != 12.5 {
		t.Errorf("Expected score 12.5, got %v", got.RecommendationScores[7])
	}
	if got.Votes[guest.ID][7] != models.VoteLike {
		t.Errorf("Expected like vote, got %v", got.Votes[guest.ID])
	}
}

func TestStore_Live(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping live mongo test")
	}

	ctx := context.Background()
	store, err := Connect(ctx, uri, "moviematch_test")
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer store.Close(ctx)

	code := uuid.New().String()[:6]
	room := models.NewRoom(code, models.NewParticipant("host"))
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
	defer store.col.DeleteOne(ctx, map[string]any{"_id": code})

	if err := store.CreateRoom(ctx, room); !errors.Is(err, rooms.ErrRoomExists) {
		t.Errorf("Expected ErrRoomExists, got %v", err)
	}

	movies := []models.Movie{{ID: 1}, {ID: 2}}
	if err := store.UpdateRoom(ctx, code, models.RoomUpdate{MovieList: &movies}); err != nil {
		t.Fatalf("Failed to update room: %v", err)
	}
	for _, pid := range []string{"a", "b"} {
		update := models.RoomUpdate{Votes: map[string]map[int]models.Vote{pid: {1: models.VoteLike}}}
		if err := store.UpdateRoom(ctx, code, update); err != nil {
			t.Fatalf("Failed to vote: %v", err)
		}
	}

	got, err := store.GetRoom(ctx, code)
	if err != nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	if len(got.MovieList) != 2 || len(got.Votes) != 2 {
		t.Errorf("Expected 2 movies and 2 voters, got %d and %d", len(got.MovieList), len(got.Votes))
	}

	if _, err := store.GetRoom(ctx, "missing"); !errors.Is(err, rooms.ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}
