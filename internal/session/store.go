package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// cartTTL is how long an idle cart survives in Redis.  It is refreshed
// on every write, so only abandoned sessions age out.
const cartTTL = 7 * 24 * time.Hour

// CartStore persists each session's cart as a JSON-encoded ordered
// list of item IDs under cart:<session id>.  The list never contains
// duplicates.
type CartStore struct {
	rdb    *redis.Client
	prefix string
}

// NewCartStore returns a CartStore backed by the given Redis client.
func NewCartStore(rdb *redis.Client) *CartStore {
	return &CartStore{rdb: rdb, prefix: "cart:"}
}

// Get returns the cart for a session, in insertion order.  A missing
// or unreadable cart is treated as empty.
func (s *CartStore) Get(ctx context.Context, sessionID string) ([]uint64, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return []uint64{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []uint64
	if err := json.Unmarshal(raw, &ids); err != nil {
		// A corrupt entry is discarded rather than wedging the session.
		return []uint64{}, nil
	}
	return ids, nil
}

func (s *CartStore) put(ctx context.Context, sessionID string, ids []uint64) ([]uint64, error) {
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, s.prefix+sessionID, raw, cartTTL).Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Add appends an item to the session's cart if absent and returns the
// updated cart.
func (s *CartStore) Add(ctx context.Context, sessionID string, itemID uint64) ([]uint64, error) {
	ids, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.put(ctx, sessionID, addID(ids, itemID))
}

// Remove deletes an item from the session's cart if present and
// returns the updated cart.
func (s *CartStore) Remove(ctx context.Context, sessionID string, itemID uint64) ([]uint64, error) {
	ids, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.put(ctx, sessionID, removeID(ids, itemID))
}

// Drop removes every listed item from the session's cart, used when
// checkout validation reports stale entries.
func (s *CartStore) Drop(ctx context.Context, sessionID string, itemIDs []uint64) ([]uint64, error) {
	ids, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.put(ctx, sessionID, withoutAll(ids, itemIDs))
}

// Clear empties the session's cart.  Clearing an already-empty cart is
// a no-op.
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, s.prefix+sessionID).Err()
}
