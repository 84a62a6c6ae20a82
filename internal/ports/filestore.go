package ports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSnapshotStore keeps snapshots as JSON files under a directory, one
// file per game id. Writes are atomic so a crash never leaves a torn save.
type FileSnapshotStore struct {
	Dir string
}

func NewFileSnapshotStore(dir string) *FileSnapshotStore {
	return &FileSnapshotStore{Dir: dir}
}

func (s *FileSnapshotStore) path(gameID string) string {
	// Game ids are uuids or match ids; strip path separators regardless.
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(gameID)
	return filepath.Join(s.Dir, name+".json")
}

func (s *FileSnapshotStore) Save(ctx context.Context, gameID string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create save dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(gameID))
}

func (s *FileSnapshotStore) Load(ctx context.Context, gameID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(gameID))
	if err != nil {
		return nil, fmt.Errorf("no snapshot stored for %s: %w", gameID, err)
	}
	return data, nil
}
