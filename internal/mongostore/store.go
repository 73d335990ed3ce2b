package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kdimtricp/moviematch/internal/logging"
	"github.com/kdimtricp/moviematch/internal/metrics"
	"github.com/kdimtricp/moviematch/internal/models"
	"github.com/kdimtricp/moviematch/internal/rooms"
)

const collectionName = "rooms"

// roomDocument is the stored form of a room. Participants and every map are
// keyed by string so that UpdateRoom can address single entries with dotted
// $set paths.
type roomDocument struct {
	Code                 string                            `bson:"_id"`
	HostID               string                            `bson:"hostId"`
	Status               string                            `bson:"status"`
	Participants         map[string]models.Participant     `bson:"participants"`
	UserPreferences      map[string]models.UserPreferences `bson:"userPreferences"`
	MovieList            []models.Movie                    `bson:"movieList"`
	RecommendationScores map[string]float64                `bson:"recommendationScores"`
	Votes                map[string]map[string]string      `bson:"votes"`
	CreatedAt            time.Time                         `bson:"createdAt"`
	UpdatedAt            time.Time                         `bson:"updatedAt"`
}

type Store struct {
	client *mongo.Client
	col    *mongo.Collection
}

var _ rooms.Store = (*Store)(nil)

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	logging.Info().Str("database", database).Msg("mongo connected")
	return &Store{client: client, col: client.Database(database).Collection(collectionName)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func record(operation string, err error) {
	metrics.StoreOperations.WithLabelValues("mongo", operation, metrics.Outcome(err)).Inc()
}

func (s *Store) CreateRoom(ctx context.Context, room *models.Room) (err error) {
	defer func() { record("create", err) }()

	_, err = s.col.InsertOne(ctx, toDocument(room))
	if mongo.IsDuplicateKeyError(err) {
		return rooms.ErrRoomExists
	}
	if err != nil {
		return fmt.Errorf("inserting room: %w", err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, code string) (room *models.Room, err error) {
	defer func() {
		if !errors.Is(err, rooms.ErrRoomNotFound) {
			record("get", err)
		}
	}()

	var doc roomDocument
	err = s.col.FindOne(ctx, bson.M{"_id": code}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, rooms.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding room: %w", err)
	}
	return fromDocument(&doc)
}

func (s *Store) UpdateRoom(ctx context.Context, code string, update models.RoomUpdate) (err error) {
	defer func() {
		if !errors.Is(err, rooms.ErrRoomNotFound) {
			record("update", err)
		}
	}()

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": code}, bson.M{"$set": setFields(update, time.Now().UTC())})
	if err != nil {
		return fmt.Errorf("updating room: %w", err)
	}
	if res.MatchedCount == 0 {
		return rooms.ErrRoomNotFound
	}
	return nil
}

// setFields builds a $set document that touches only the fields present in
// the update, one dotted path per participant-keyed entry.
func setFields(u models.RoomUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}

	if u.Status != nil {
		set["status"] = string(*u.Status)
	}
	for _, p := range u.Participants {
		set["participants."+p.ID] = p
	}
	for id, prefs := range u.UserPreferences {
		set["userPreferences."+id] = prefs
	}
	if u.MovieList != nil {
		movies := *u.MovieList
		if movies == nil {
			movies = []models.Movie{}
		}
		set["movieList"] = movies
	}
	if u.RecommendationScores != nil {
		set["recommendationScores"] = scoreKeys(*u.RecommendationScores)
	}
	for id, votes := range u.Votes {
		for movieID, v := range votes {
			set["votes."+id+"."+strconv.Itoa(movieID)] = string(v)
		}
	}
	return set
}

func scoreKeys(scores map[int]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for id, s := range scores {
		out[strconv.Itoa(id)] = s
	}
	return out
}

func toDocument(r *models.Room) *roomDocument {
	doc := &roomDocument{
		Code:                 r.Code,
		HostID:               r.HostID,
		Status:               string(r.Status),
		Participants:         make(map[string]models.Participant, len(r.Participants)),
		UserPreferences:      make(map[string]models.UserPreferences, len(r.UserPreferences)),
		MovieList:            r.MovieList,
		RecommendationScores: scoreKeys(r.RecommendationScores),
		Votes:                make(map[string]map[string]string, len(r.Votes)),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if doc.MovieList == nil {
		doc.MovieList = []models.Movie{}
	}
	for _, p := range r.Participants {
		doc.Participants[p.ID] = p
	}
	for id, prefs := range r.UserPreferences {
		doc.UserPreferences[id] = prefs
	}
	for id, votes := range r.Votes {
		inner := make(map[string]string, len(votes))
		for movieID, v := range votes {
			inner[strconv.Itoa(movieID)] = string(v)
		}
		doc.Votes[id] = inner
	}
	return doc
}

func fromDocument(doc *roomDocument) (*models.Room, error) {
	room := &models.Room{
		Code:                 doc.Code,
		HostID:               doc.HostID,
		Status:               models.RoomStatus(doc.Status),
		UserPreferences:      map[string]models.UserPreferences{},
		MovieList:            doc.MovieList,
		RecommendationScores: make(map[int]float64, len(doc.RecommendationScores)),
		Votes:                make(map[string]map[int]models.Vote, len(doc.Votes)),
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
	if room.MovieList == nil {
		room.MovieList = []models.Movie{}
	}

	for _, p := range doc.Participants {
		room.Participants = append(room.Participants, p)
	}
	// Mongo keeps millisecond timestamps, so the host is pinned first.
	sort.Slice(room.Participants, func(i, j int) bool {
		a, b := room.Participants[i], room.Participants[j]
		if (a.ID == room.HostID) != (b.ID == room.HostID) {
			return a.ID == room.HostID
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})

	for id, prefs := range doc.UserPreferences {
		room.UserPreferences[id] = prefs
	}
	for key, s := range doc.RecommendationScores {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("malformed score key %q: %w", key, err)
		}
		room.RecommendationScores[id] = s
	}
	for pid, votes := range doc.Votes {
		inner := make(map[int]models.Vote, len(votes))
		for key, v := range votes {
			id, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("malformed vote key %q: %w", key, err)
			}
			inner[id] = models.Vote(v)
		}
		room.Votes[pid] = inner
	}
	return room, nil
}
