package domain

import (
	"errors"
	"testing"
)

func TestNewDebugGameUnknown(t *testing.T) {
	if _, err := NewDebugGame("no-such-config"); !errors.Is(err, ErrUnknownDebugConfig) {
		t.Fatalf("err = %v, want ErrUnknownDebugConfig", err)
	}
}

func TestAllDebugConfigsBuild(t *testing.T) {
	for _, name := range DebugConfigNames() {
		t.Run(name, func(t *testing.T) {
			g, err := NewDebugGame(name)
			if err != nil {
				t.Fatalf("NewDebugGame: %v", err)
			}
			if g.Board.Len() == 0 {
				t.Error("scripted board is empty")
			}
			if g.Phase != PhaseDrawTile {
				t.Errorf("phase = %s, want draw_tile", g.Phase)
			}
		})
	}
}

func TestDebugGroupCoallation(t *testing.T) {
	g, err := NewDebugGame(DebugGroupCoallation)
	if err != nil {
		t.Fatal(err)
	}
	road, ok := g.GroupAt(SegmentID{GridPos{0, 0}, 0})
	if !ok || road.Kind != Road {
		t.Fatal("no road group at the loop origin")
	}
	if !road.Closed || road.TilesSpanned() != 4 {
		t.Errorf("loop road closed=%v tiles=%d, want closed over 4", road.Closed, road.TilesSpanned())
	}
	for _, pos := range []GridPos{{1, 0}, {0, 1}, {1, 1}} {
		other, _ := g.GroupAt(SegmentID{pos, 0})
		if other.ID != road.ID {
			t.Errorf("road at %v in group %d, want %d", pos, other.ID, road.ID)
		}
	}
}

func TestDebugMultiOwnership(t *testing.T) {
	g, err := NewDebugGame(DebugMultiOwnership)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Rules.AllowContested {
		t.Error("contested placement not enabled")
	}
	city, ok := g.GroupAt(SegmentID{GridPos{0, 0}, 0})
	if !ok || city.Kind != City {
		t.Fatal("no city group")
	}
	players := map[PlayerID]bool{}
	for _, m := range city.Meeples {
		players[m.Player] = true
	}
	if len(city.Meeples) != 2 || !players[0] || !players[1] {
		t.Errorf("city meeples = %v, want one of each player", city.Meeples)
	}
}

func TestDebugMultiSegmentScores(t *testing.T) {
	g, err := NewDebugGame(DebugMultiSegmentScores)
	if err != nil {
		t.Fatal(err)
	}
	north, _ := g.GroupAt(SegmentID{GridPos{0, 0}, 0})
	south, _ := g.GroupAt(SegmentID{GridPos{0, 0}, 1})
	if north.ID == south.ID {
		t.Fatal("opposing cities share a group")
	}
	if !north.Closed || !south.Closed {
		t.Errorf("cities closed = %v/%v, want both capped", north.Closed, south.Closed)
	}
	if len(north.Meeples) != 1 || len(south.Meeples) != 1 {
		t.Errorf("meeples = %v / %v", north.Meeples, south.Meeples)
	}
}

func TestDebugMeeplePlacementCoversEverySegment(t *testing.T) {
	g, err := NewDebugGame(DebugMeeplePlacement)
	if err != nil {
		t.Fatal(err)
	}
	for i, name := range CatalogNames() {
		pos := GridPos{i * 2, 0}
		tile, _ := TileByName(name)
		for s := range tile.Segments {
			grp, ok := g.GroupAt(SegmentID{pos, s})
			if !ok {
				t.Fatalf("%s segment %d has no group", name, s)
			}
			if len(grp.Meeples) == 0 {
				t.Errorf("%s segment %d group has no meeple", name, s)
			}
		}
	}
}
