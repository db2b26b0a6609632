package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opticlab/labres-api/internal/models"
)

const sessionTTL = 24 * time.Hour

// SessionRepository persists per-session planning state in Redis: saved
// logical topologies, dismissed booking ids and the override audit trail.
// Server-side storage lets a session move between browsers and survive
// reloads.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(client *redis.Client, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, logger: logger}
}

func topologiesKey(sessionID string) string {
	return "session:" + sessionID + ":topologies"
}

func dismissedKey(sessionID string) string {
	return "session:" + sessionID + ":dismissed"
}

func overridesKey(sessionID string) string {
	return "session:" + sessionID + ":overrides"
}

// SaveTopology stores a named logical topology. Saving under an existing name
// replaces it.
func (r *SessionRepository) SaveTopology(ctx context.Context, sessionID string, saved models.SavedTopology) error {
	payload, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("marshal saved topology %q: %w", saved.Name, err)
	}
	key := topologiesKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, saved.Name, payload)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save topology %q: %w", saved.Name, err)
	}
	return nil
}

// ListTopologies returns every saved topology for the session.
func (r *SessionRepository) ListTopologies(ctx context.Context, sessionID string) ([]models.SavedTopology, error) {
	raw, err := r.client.HGetAll(ctx, topologiesKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list topologies: %w", err)
	}
	saved := make([]models.SavedTopology, 0, len(raw))
	for name, payload := range raw {
		var st models.SavedTopology
		if err := json.Unmarshal([]byte(payload), &st); err != nil {
			r.logger.Warn("skipping undecodable saved topology",
				zap.String("session_id", sessionID),
				zap.String("name", name),
				zap.Error(err))
			continue
		}
		saved = append(saved, st)
	}
	return saved, nil
}

// DeleteTopology removes one saved topology by name.
func (r *SessionRepository) DeleteTopology(ctx context.Context, sessionID, name string) error {
	if err := r.client.HDel(ctx, topologiesKey(sessionID), name).Err(); err != nil {
		return fmt.Errorf("delete topology %q: %w", name, err)
	}
	return nil
}

// DismissBooking hides a booking id from the session's timeline.
func (r *SessionRepository) DismissBooking(ctx context.Context, sessionID string, bookingID int64) error {
	key := dismissedKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, key, bookingID)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("dismiss booking %d: %w", bookingID, err)
	}
	return nil
}

// DismissedBookings returns the booking ids the session has hidden.
func (r *SessionRepository) DismissedBookings(ctx context.Context, sessionID string) ([]int64, error) {
	raw, err := r.client.SMembers(ctx, dismissedKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list dismissed bookings: %w", err)
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// RecordOverride appends an override record to the session's audit trail.
func (r *SessionRepository) RecordOverride(ctx context.Context, sessionID string, record models.OverrideRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal override record: %w", err)
	}
	key := overridesKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record override: %w", err)
	}
	return nil
}

// Overrides returns the session's override audit trail, oldest first.
func (r *SessionRepository) Overrides(ctx context.Context, sessionID string) ([]models.OverrideRecord, error) {
	raw, err := r.client.LRange(ctx, overridesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	records := make([]models.OverrideRecord, 0, len(raw))
	for _, payload := range raw {
		var rec models.OverrideRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			r.logger.Warn("skipping undecodable override record",
				zap.String("session_id", sessionID),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
