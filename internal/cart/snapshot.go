package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/patelashutosh/bloom-store/internal/domain"
)

// SnapshotNamespace prefixes every snapshot key.
const SnapshotNamespace = "bloom-ai-cart"

var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// SnapshotStore is the durable key-value slot holding serialized item lists.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type snapshot struct {
	Items []domain.CartItem `json:"items"`
}

func SnapshotKey(sessionID string) string {
	return SnapshotNamespace + ":" + sessionID
}

// EncodeSnapshot serializes only the item list.
func EncodeSnapshot(items []domain.CartItem) ([]byte, error) {
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(snapshot{Items: items})
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot ignores any extra fields such as stale totals.
func DecodeSnapshot(data []byte) ([]domain.CartItem, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return s.Items, nil
}

// Open reads the session's snapshot once and returns a Store whose persist
// hook writes back to the same key. A missing snapshot yields an empty cart.
func Open(ctx context.Context, snapshots SnapshotStore, sessionID string) (*Store, error) {
	key := SnapshotKey(sessionID)
	persist := func(ctx context.Context, items []domain.CartItem) error {
		data, err := EncodeSnapshot(items)
		if err != nil {
			return err
		}
		return snapshots.Save(ctx, key, data)
	}

	data, err := snapshots.Load(ctx, key)
	if errors.Is(err, ErrSnapshotNotFound) {
		return NewStore(persist), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	items, err := DecodeSnapshot(data)
	if err != nil {
		// A corrupt slot is treated like an empty one; the next write replaces it.
		return NewStore(persist), nil
	}
	return Rehydrate(items, persist), nil
}
