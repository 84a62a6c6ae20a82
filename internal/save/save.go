// Package save serializes full game state losslessly. A load either yields
// a complete, consistent game or fails with ErrCorruptSave; partial state
// is never applied.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"carcassonne/internal/domain"
)

// ErrCorruptSave rejects save data that cannot be decoded or does not
// describe a reachable game state.
var ErrCorruptSave = errors.New("corrupt save")

// Marshal serializes a game.
func Marshal(g *domain.Game) ([]byte, error) {
	return json.MarshalIndent(domain.TakeSnapshot(g), "", "  ")
}

// Unmarshal rebuilds a game from serialized state.
func Unmarshal(data []byte) (*domain.Game, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	g, err := domain.Restore(&snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	return g, nil
}

// WriteFile saves a game atomically: write to a temp file, then rename.
func WriteFile(path string, g *domain.Game) error {
	data, err := Marshal(g)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".carcassonne-save-*")
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
	return os.Rename(tmp.Name(), path)
}

// ReadFile loads a game from disk.
func ReadFile(path string) (*domain.Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
