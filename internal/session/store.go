package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/vacation-planner/internal/vacation"
)

// CookieName is the cookie carrying the session id.
const CookieName = "session_id"

// Store resolves session ids to callers. Sessions are written by the sign-in
// service that shares the Redis instance; this side only reads them.
type Store struct {
	client *redis.Client
}

// NewStore constructs a Store over the given client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(sessionID string) string {
	return "session:" + strings.TrimSpace(sessionID)
}

// Caller returns the caller bound to sessionID.
// Returns nil, nil for a blank id or an unknown session (not an error).
func (s *Store) Caller(ctx context.Context, sessionID string) (*vacation.Caller, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil
	}

	val, err := s.client.Get(ctx, key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session get: %w", err)
	}

	var caller vacation.Caller
	if err := json.Unmarshal([]byte(val), &caller); err != nil {
		return nil, fmt.Errorf("unmarshaling session: %w", err)
	}
	if caller.ID == "" {
		return nil, nil
	}

	return &caller, nil
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}
