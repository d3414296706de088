// store.go — session-scoped persistence for the single
// walkthrough_session_v2 key (spec.md §3, §6). Backed by
// github.com/redis/go-redis/v9, the same client jordigilh-kubernaut and
// yungbote-neurobridge-backend use for scoped, expiring state. Redis key
// TTL models timing.expiresAt directly: every write uses SET ... EX with
// the remaining SESSION_TIMEOUT, so an unplugged coordinator's session
// still expires on schedule, and "cleared on browser close" is a DEL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// ErrNotFound is returned by Load when no session is persisted.
var ErrNotFound = errors.New("walkthrough: no persisted session")

// Store is the session-scoped key/value store the coordinator owns
// exclusively. Tabs never write it (spec.md §5 "Shared resource policy").
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps an existing redis client. Callers in production point it at a
// session-scoped logical database; tests point it at miniredis.
func New(client *redis.Client) *Store {
	return &Store{client: client, prefix: ""}
}

func (s *Store) key() string {
	return s.prefix + wtypes.PersistedStateKey
}

// Save persists state with a TTL derived from timing.expiresAt. Presence
// of the key indicates an in-progress session; absence means IDLE
// (spec.md §6).
func (s *Store) Save(ctx context.Context, state wtypes.WalkthroughState) error {
	if !state.IsActive() {
		return s.Delete(ctx)
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	ttl := time.Until(state.Timing.ExpiresAt)
	if ttl <= 0 {
		ttl = wtypes.SessionTimeout
	}
	return s.client.Set(ctx, s.key(), payload, ttl).Err()
}

// Load returns the persisted state, or ErrNotFound if absent/expired.
func (s *Store) Load(ctx context.Context) (wtypes.WalkthroughState, error) {
	raw, err := s.client.Get(ctx, s.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return wtypes.WalkthroughState{}, ErrNotFound
	}
	if err != nil {
		return wtypes.WalkthroughState{}, err
	}
	var state wtypes.WalkthroughState
	if err := json.Unmarshal(raw, &state); err != nil {
		return wtypes.WalkthroughState{}, err
	}
	return state, nil
}

// Delete removes the persisted session (IDLE/EXIT path).
func (s *Store) Delete(ctx context.Context) error {
	return s.client.Del(ctx, s.key()).Err()
}
