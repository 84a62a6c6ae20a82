package nakama

import (
	"context"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// SnapshotStoreAdapter implements ports.SnapshotStore on the Nakama storage
// engine. Snapshots are system-owned objects keyed by match id.
type SnapshotStoreAdapter struct {
	nk runtime.NakamaModule
}

func NewSnapshotStoreAdapter(nk runtime.NakamaModule) *SnapshotStoreAdapter {
	return &SnapshotStoreAdapter{nk: nk}
}

func (a *SnapshotStoreAdapter) Save(ctx context.Context, gameID string, data []byte) error {
	writes := []*runtime.StorageWrite{{
		Collection:      SaveCollection,
		Key:             gameID,
		Value:           string(data),
		PermissionRead:  2,
		PermissionWrite: 0,
	}}
	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", gameID, err)
	}
	return nil
}

func (a *SnapshotStoreAdapter) Load(ctx context.Context, gameID string) ([]byte, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: SaveCollection,
		Key:        gameID,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", gameID, err)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("no snapshot stored for %s", gameID)
	}
	return []byte(objects[0].Value), nil
}
