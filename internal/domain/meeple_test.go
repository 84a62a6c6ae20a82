package domain

import (
	"errors"
	"testing"
)

func TestAssignMeeple(t *testing.T) {
	t.Run("OnOpenGroup", func(t *testing.T) {
		g := testShell(t)
		if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); err != nil {
			t.Fatalf("AssignMeeple: %v", err)
		}
		if g.Players[0].Meeples != MeeplesPerPlayer-1 {
			t.Errorf("supply = %d, want %d", g.Players[0].Meeples, MeeplesPerPlayer-1)
		}
		grp, _ := g.GroupAt(SegmentID{GridPos{0, 0}, 0})
		if len(grp.Meeples) != 1 || grp.Meeples[0].Player != 0 {
			t.Errorf("group meeples = %v", grp.Meeples)
		}
	})

	t.Run("OccupiedGroupRefused", func(t *testing.T) {
		g := testShell(t)
		seg := SegmentID{GridPos{0, 0}, 0}
		if err := g.AssignMeeple(seg, 0); err != nil {
			t.Fatal(err)
		}
		if err := g.AssignMeeple(seg, 1); !errors.Is(err, ErrOccupiedGroup) {
			t.Fatalf("second meeple = %v, want ErrOccupiedGroup", err)
		}
	})

	t.Run("ContestedAllowedByRule", func(t *testing.T) {
		g := testShell(t)
		g.Rules.AllowContested = true
		seg := SegmentID{GridPos{0, 0}, 0}
		if err := g.AssignMeeple(seg, 0); err != nil {
			t.Fatal(err)
		}
		if err := g.AssignMeeple(seg, 1); err != nil {
			t.Fatalf("contested placement = %v, want nil", err)
		}
	})

	t.Run("ClosedGroupRefused", func(t *testing.T) {
		g := testShell(t)
		script(t, g, "edge_city", 2, GridPos{0, -1}, true) // caps the starting city
		if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); !errors.Is(err, ErrInvalidSegment) {
			t.Fatalf("meeple on closed city = %v, want ErrInvalidSegment", err)
		}
	})

	t.Run("NoSupply", func(t *testing.T) {
		g := testShell(t)
		g.Players[0].Meeples = 0
		if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); !errors.Is(err, ErrNoMeeplesAvailable) {
			t.Fatalf("empty supply = %v, want ErrNoMeeplesAvailable", err)
		}
	})

	t.Run("BadSegmentIndex", func(t *testing.T) {
		g := testShell(t)
		if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 99}, 0); !errors.Is(err, ErrInvalidSegment) {
			t.Fatalf("bad index = %v, want ErrInvalidSegment", err)
		}
	})

	t.Run("BadPlayer", func(t *testing.T) {
		g := testShell(t)
		if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 9); !errors.Is(err, ErrInvalidSegment) {
			t.Fatalf("bad player = %v, want ErrInvalidSegment", err)
		}
	})

	t.Run("RestrictedKinds", func(t *testing.T) {
		g := testShell(t)
		g.Rules.RestrictMeeplesTo = []FeatureKind{Road}
		if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); !errors.Is(err, ErrInvalidSegment) {
			t.Fatalf("city meeple under road-only rule = %v, want ErrInvalidSegment", err)
		}
		if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 1}, 0); err != nil {
			t.Fatalf("road meeple under road-only rule = %v, want nil", err)
		}
	})
}

func TestForfeitPlayer(t *testing.T) {
	g := testShell(t)
	g.Rules.AllowContested = true
	seg := SegmentID{GridPos{0, 0}, 0}
	if err := g.AssignMeeple(seg, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.AssignMeeple(seg, 1); err != nil {
		t.Fatal(err)
	}
	g.Players[0].Score = 12

	if got := g.ForfeitPlayer(0); got != 1 {
		t.Fatalf("ForfeitPlayer returned %d meeples, want 1", got)
	}
	if g.Players[0].Meeples != MeeplesPerPlayer {
		t.Errorf("supply = %d, want full", g.Players[0].Meeples)
	}
	if g.Players[0].Score != 12 {
		t.Errorf("score changed to %d", g.Players[0].Score)
	}
	grp, _ := g.GroupAt(seg)
	if len(grp.Meeples) != 1 || grp.Meeples[0].Player != 1 {
		t.Errorf("remaining meeples = %v, want only player 1", grp.Meeples)
	}
	if got := g.ForfeitPlayer(9); got != 0 {
		t.Errorf("out-of-range player returned %d", got)
	}
}
