package save

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"carcassonne/internal/domain"
)

func startedGame(t *testing.T) *domain.Game {
	t.Helper()
	g, err := domain.NewGame([]string{"ana", "bo"}, domain.DefaultRules(), 11)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.DrawTile(); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestMarshalRoundTrip(t *testing.T) {
	g := startedGame(t)
	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(domain.TakeSnapshot(restored), domain.TakeSnapshot(g)) {
		t.Fatal("restored game differs")
	}

	again, err := Marshal(restored)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(data) {
		t.Error("re-encoding is not byte stable")
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		[]byte("not json"),
		[]byte(`{"players":[]}`),
		[]byte(`{"players":[{"name":"ana"}],"current":7,"phase":"draw_tile"}`),
	} {
		if _, err := Unmarshal(data); !errors.Is(err, ErrCorruptSave) {
			t.Errorf("Unmarshal(%q) = %v, want ErrCorruptSave", data, err)
		}
	}
}

func TestFileRoundTrip(t *testing.T) {
	g := startedGame(t)
	path := filepath.Join(t.TempDir(), "game.json")

	if err := WriteFile(path, g); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	restored, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(domain.TakeSnapshot(restored), domain.TakeSnapshot(g)) {
		t.Fatal("restored game differs")
	}

	// Overwrite keeps the file consistent.
	p := restored.Board.ValidPlacements(mustDrawn(t, restored))[0]
	if _, err := restored.PlaceDrawnTile(p.Pos, p.Rotation); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, restored); err != nil {
		t.Fatal(err)
	}
	latest, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Board.Len() != restored.Board.Len() {
		t.Errorf("board = %d tiles, want %d", latest.Board.Len(), restored.Board.Len())
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("missing file read succeeded")
	}
}

func mustDrawn(t *testing.T, g *domain.Game) *domain.Tile {
	t.Helper()
	_, tile, ok := g.DrawnTile()
	if !ok {
		t.Fatal("no drawn tile")
	}
	return tile
}
