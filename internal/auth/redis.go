package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/skillify/internal/models"
)

const keyPrefix = "skillify:session:"

// SessionKey is the Redis key holding a session
func SessionKey(id string) string {
	return keyPrefix + id
}

// EventsChannel is the pub/sub channel carrying changes of a session
func EventsChannel(id string) string {
	return keyPrefix + id + ":events"
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, address, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// SessionStore keeps sessions in Redis with a TTL and publishes their
// changes
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a store on client
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Save writes the session, expiring with it
func (s *SessionStore) Save(ctx context.Context, sess *models.Session) error {
	ttl := sess.TimeRemaining()
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, SessionKey(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get loads a session. Missing or expired sessions return (nil, nil).
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if sess.IsExpired() {
		return nil, nil
	}
	return &sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, SessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Publish announces a change of session id to its subscribers
func (s *SessionStore) Publish(ctx context.Context, id string, change models.SessionChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode session change: %w", err)
	}
	n, err := s.client.Publish(ctx, EventsChannel(id), data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish session change: %w", err)
	}
	slog.Debug("session change published", "session_id", id, "event", change.Event, "receivers", n)
	return nil
}

// Subscribe opens a subscription to the changes of session id. The
// subscription is confirmed by the server before Subscribe returns.
func (s *SessionStore) Subscribe(ctx context.Context, id string) (*redis.PubSub, error) {
	ps := s.client.Subscribe(ctx, EventsChannel(id))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to session events: %w", err)
	}
	return ps, nil
}

// Ping checks Redis connectivity
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// decodeChange parses a published change
func decodeChange(payload string) (models.SessionChange, error) {
	var change models.SessionChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return models.SessionChange{}, fmt.Errorf("failed to decode session change: %w", err)
	}
	return change, nil
}
