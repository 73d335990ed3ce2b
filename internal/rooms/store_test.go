package rooms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kdimtricp/moviematch/internal/models"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	room := models.NewRoom("ABC123", models.NewParticipant("host"))

	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if err := store.CreateRoom(ctx, room); !errors.Is(err, ErrRoomExists) {
		t.Errorf("Expected ErrRoomExists, got %v", err)
	}

	got, err := store.GetRoom(ctx, "ABC123")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if got.HostID != room.HostID {
		t.Errorf("Expected host %s, got %s", room.HostID, got.HostID)
	}

	got.Participants[0].Name = "changed"
	again, _ := store.GetRoom(ctx, "ABC123")
	if again.Participants[0].Name != "host" {
		t.Error("Mutating a returned room must not change the stored room")
	}

	if _, err := store.GetRoom(ctx, "NOPE00"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
	if err := store.UpdateRoom(ctx, "NOPE00", models.RoomUpdate{}); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound on update, got %v", err)
	}
}

func TestMemoryStore_UpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	host := models.NewParticipant("host")
	if err := store.CreateRoom(ctx, models.NewRoom("ROOM01", host)); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	movies := []models.Movie{{ID: 1}, {ID: 2}}
	if err := store.UpdateRoom(ctx, "ROOM01", models.RoomUpdate{MovieList: &movies}); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}
	votes := map[string]map[int]models.Vote{host.ID: {1: models.VoteLike}}
	if err := store.UpdateRoom(ctx, "ROOM01", models.RoomUpdate{Votes: votes}); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}
	votes = map[string]map[int]models.Vote{host.ID: {2: models.VoteMaybe}}
	if err := store.UpdateRoom(ctx, "ROOM01", models.RoomUpdate{Votes: votes}); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}

	room, err := store.GetRoom(ctx, "ROOM01")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if len(room.MovieList) != 2 {
		t.Errorf("Expected movie list to survive vote updates, got %d movies", len(room.MovieList))
	}
	if room.Votes[host.ID][1] != models.VoteLike || room.Votes[host.ID][2] != models.VoteMaybe {
		t.Errorf("Expected both votes kept, got %v", room.Votes[host.ID])
	}
	if room.Status != models.RoomWaiting {
		t.Errorf("Expected status untouched, got %s", room.Status)
	}
}

func TestMemoryStore_ConcurrentParticipantWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.CreateRoom(ctx, models.NewRoom("ROOM02", models.NewParticipant("host"))); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pid := fmt.Sprintf("p%d", i)
			update := models.RoomUpdate{
				UserPreferences: map[string]models.UserPreferences{pid: {ParticipantID: pid}},
				Votes:           map[string]map[int]models.Vote{pid: {1: models.VoteLike}},
			}
			if err := store.UpdateRoom(ctx, "ROOM02", update); err != nil {
				t.Errorf("UpdateRoom failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	room, err := store.GetRoom(ctx, "ROOM02")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if len(room.UserPreferences) != writers {
		t.Errorf("Expected %d preference entries, got %d", writers, len(room.UserPreferences))
	}
	if len(room.Votes) != writers {
		t.Errorf("Expected %d vote entries, got %d", writers, len(room.Votes))
	}
}
