package ports

import "context"

// SnapshotStore persists serialized game state keyed by game id. The
// Nakama adapter writes to the cluster storage engine; the standalone host
// writes to the local filesystem.
type SnapshotStore interface {
	Save(ctx context.Context, gameID string, data []byte) error
	Load(ctx context.Context, gameID string) ([]byte, error)
}
