package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/kdimtricp/moviematch/internal/metrics"
	"github.com/kdimtricp/moviematch/internal/models"
	"github.com/kdimtricp/moviematch/internal/rooms"
)

const (
	keyParticipants   = "participants"
	keyPreferences    = "userPreferences"
	keyMovieList      = "movieList"
	keyScores         = "recommendationScores"
	keyVotes          = "votes"
	fieldKeySeparator = "."
)

// RoomRepository stores rooms as a header row plus one row per independently
// writable field. Participants, preferences and votes get a row per key so
// concurrent writers for different participants never overwrite each other.
type RoomRepository struct {
	db *DB
}

func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db}
}

var _ rooms.Store = (*RoomRepository)(nil)

type fieldRow struct {
	key   string
	value []byte
}

func fieldKey(parts ...string) string {
	return strings.Join(parts, fieldKeySeparator)
}

func record(operation string, err error) {
	metrics.StoreOperations.WithLabelValues("sql", operation, metrics.Outcome(err)).Inc()
}

func (r *RoomRepository) CreateRoom(ctx context.Context, room *models.Room) (err error) {
	defer func() { record("create", err) }()

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, r.db.rebind("SELECT COUNT(*) FROM rooms WHERE code = ?"), room.Code).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check room: %w", err)
	}
	if exists > 0 {
		return rooms.ErrRoomExists
	}

	_, err = tx.ExecContext(ctx,
		r.db.rebind("INSERT INTO rooms (code, host_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"),
		room.Code, room.HostID, string(room.Status), room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}

	fields, err := roomFields(room)
	if err != nil {
		return err
	}
	if err := r.upsertFields(ctx, tx, room.Code, fields, room.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit room: %w", err)
	}
	return nil
}

func (r *RoomRepository) GetRoom(ctx context.Context, code string) (room *models.Room, err error) {
	defer func() {
		if !errors.Is(err, rooms.ErrRoomNotFound) {
			record("get", err)
		}
	}()

	room = &models.Room{
		UserPreferences:      map[string]models.UserPreferences{},
		MovieList:            []models.Movie{},
		RecommendationScores: map[int]float64{},
		Votes:                map[string]map[int]models.Vote{},
	}

	var status string
	err = r.db.conn.QueryRowContext(ctx,
		r.db.rebind("SELECT code, host_id, status, created_at, updated_at FROM rooms WHERE code = ?"), code,
	).Scan(&room.Code, &room.HostID, &status, &room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rooms.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	room.Status = models.RoomStatus(status)

	rows, err := r.db.conn.QueryContext(ctx,
		r.db.rebind("SELECT field_key, value FROM room_fields WHERE room_code = ?"), code)
	if err != nil {
		return nil, fmt.Errorf("failed to query room fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f fieldRow
		if err := rows.Scan(&f.key, &f.value); err != nil {
			return nil, fmt.Errorf("failed to scan room field: %w", err)
		}
		if err := applyField(room, f); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read room fields: %w", err)
	}

	sort.SliceStable(room.Participants, func(i, j int) bool {
		a, b := room.Participants[i], room.Participants[j]
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})
	return room, nil
}

func (r *RoomRepository) UpdateRoom(ctx context.Context, code string, update models.RoomUpdate) (err error) {
	defer func() {
		if !errors.Is(err, rooms.ErrRoomNotFound) {
			record("update", err)
		}
	}()

	fields, err := updateFields(update)
	if err != nil {
		return err
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var res sql.Result
	if update.Status != nil {
		res, err = tx.ExecContext(ctx,
			r.db.rebind("UPDATE rooms SET status = ?, updated_at = ? WHERE code = ?"),
			string(*update.Status), now, code)
	} else {
		res, err = tx.ExecContext(ctx,
			r.db.rebind("UPDATE rooms SET updated_at = ? WHERE code = ?"), now, code)
	}
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	} else if n == 0 {
		return rooms.ErrRoomNotFound
	}

	if err := r.upsertFields(ctx, tx, code, fields, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit room update: %w", err)
	}
	return nil
}

// FieldVersion returns how many times a field has been written, or 0 if it
// has never been written.
func (r *RoomRepository) FieldVersion(ctx context.Context, code, key string) (int, error) {
	var version int
	err := r.db.conn.QueryRowContext(ctx,
		r.db.rebind("SELECT version FROM room_fields WHERE room_code = ? AND field_key = ?"), code, key,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get field version: %w", err)
	}
	return version, nil
}

func (r *RoomRepository) upsertFields(ctx context.Context, tx *sql.Tx, code string, fields []fieldRow, now time.Time) error {
	query := r.db.rebind(`
	INSERT INTO room_fields (room_code, field_key, value, version, updated_at)
	VALUES (?, ?, ?, 1, ?)
	ON CONFLICT (room_code, field_key) DO UPDATE SET
		value = excluded.value,
		version = room_fields.version + 1,
		updated_at = excluded.updated_at`)

	for _, f := range fields {
		if _, err := tx.ExecContext(ctx, query, code, f.key, string(f.value), now); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f.key, err)
		}
	}
	return nil
}

func marshalField(key string, v any) (fieldRow, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return fieldRow{}, fmt.Errorf("failed to encode field %s: %w", key, err)
	}
	return fieldRow{key: key, value: data}, nil
}

func roomFields(room *models.Room) ([]fieldRow, error) {
	movies := room.MovieList
	scores := room.RecommendationScores
	return updateFields(models.RoomUpdate{
		Participants:         room.Participants,
		UserPreferences:      room.UserPreferences,
		MovieList:            &movies,
		RecommendationScores: &scores,
		Votes:                room.Votes,
	})
}

func updateFields(u models.RoomUpdate) ([]fieldRow, error) {
	var fields []fieldRow
	add := func(key string, v any) error {
		f, err := marshalField(key, v)
		if err != nil {
			return err
		}
		fields = append(fields, f)
		return nil
	}

	for _, p := range u.Participants {
		if err := add(fieldKey(keyParticipants, p.ID), p); err != nil {
			return nil, err
		}
	}
	for id, prefs := range u.UserPreferences {
		if err := add(fieldKey(keyPreferences, id), prefs); err != nil {
			return nil, err
		}
	}
	if u.MovieList != nil {
		movies := *u.MovieList
		if movies == nil {
			movies = []models.Movie{}
		}
		if err := add(keyMovieList, movies); err != nil {
			return nil, err
		}
	}
	if u.RecommendationScores != nil {
		scores := *u.RecommendationScores
		if scores == nil {
			scores = map[int]float64{}
		}
		if err := add(keyScores, scores); err != nil {
			return nil, err
		}
	}
	for id, votes := range u.Votes {
		for movieID, v := range votes {
			if err := add(fieldKey(keyVotes, id, strconv.Itoa(movieID)), v); err != nil {
				return nil, err
			}
		}
	}

	// Stable write order keeps lock acquisition consistent across writers.
	sort.Slice(fields, func(i, j int) bool { return fields[i].key < fields[j].key })
	return fields, nil
}

func applyField(room *models.Room, f fieldRow) error {
	head, rest, _ := strings.Cut(f.key, fieldKeySeparator)

	var err error
	switch head {
	case keyParticipants:
		var p models.Participant
		if err = json.Unmarshal(f.value, &p); err == nil {
			room.Participants = append(room.Participants, p)
		}
	case keyPreferences:
		var prefs models.UserPreferences
		if err = json.Unmarshal(f.value, &prefs); err == nil {
			room.UserPreferences[rest] = prefs
		}
	case keyMovieList:
		err = json.Unmarshal(f.value, &room.MovieList)
	case keyScores:
		err = json.Unmarshal(f.value, &room.RecommendationScores)
	case keyVotes:
		pid, movie, ok := strings.Cut(rest, fieldKeySeparator)
		if !ok {
			return fmt.Errorf("malformed vote key %q", f.key)
		}
		movieID, convErr := strconv.Atoi(movie)
		if convErr != nil {
			return fmt.Errorf("malformed vote key %q: %w", f.key, convErr)
		}
		var v models.Vote
		if err = json.Unmarshal(f.value, &v); err == nil {
			if room.Votes[pid] == nil {
				room.Votes[pid] = map[int]models.Vote{}
			}
			room.Votes[pid][movieID] = v
		}
	default:
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to decode field %s: %w", f.key, err)
	}
	return nil
}
