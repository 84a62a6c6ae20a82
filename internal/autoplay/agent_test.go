package autoplay

import (
	"testing"

	"carcassonne/internal/domain"
)

func TestDecidePlacesDrawnTile(t *testing.T) {
	g, err := domain.NewGame([]string{"ana", "bo"}, domain.DefaultRules(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.DrawTile(); err != nil {
		t.Fatal(err)
	}

	agent := NewAgent(1)
	move, err := agent.Decide(g)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if move.Placement == nil || move.Skip {
		t.Fatalf("move = %+v, want a placement", move)
	}
	if _, err := g.PlaceDrawnTile(move.Placement.Pos, move.Placement.Rotation); err != nil {
		t.Fatalf("agent picked an invalid placement: %v", err)
	}
}

func TestDecideSkipsMeeples(t *testing.T) {
	g, err := domain.NewGame([]string{"ana", "bo"}, domain.DefaultRules(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.DrawTile(); err != nil {
		t.Fatal(err)
	}
	_, tile, _ := g.DrawnTile()
	p := g.Board.ValidPlacements(tile)[0]
	if _, err := g.PlaceDrawnTile(p.Pos, p.Rotation); err != nil {
		t.Fatal(err)
	}

	move, err := NewAgent(1).Decide(g)
	if err != nil {
		t.Fatal(err)
	}
	if !move.Skip || move.Placement != nil {
		t.Fatalf("move = %+v, want skip", move)
	}
}

func TestDecideCanPlayOutAGame(t *testing.T) {
	g, err := domain.NewGame([]string{"ana", "bo"}, domain.DefaultRules(), 77)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.DrawTile(); err != nil {
		t.Fatal(err)
	}
	agent := NewAgent(77)

	for turns := 0; g.Phase != domain.PhaseEnded; turns++ {
		if turns > 200 {
			t.Fatal("game did not terminate")
		}
		move, err := agent.Decide(g)
		if err != nil {
			t.Fatalf("turn %d: %v", turns, err)
		}
		switch {
		case move.Placement != nil:
			if _, err := g.PlaceDrawnTile(move.Placement.Pos, move.Placement.Rotation); err != nil {
				t.Fatalf("turn %d: %v", turns, err)
			}
		case move.Skip:
			if _, err := g.SkipMeepleAction(); err != nil {
				t.Fatalf("turn %d: %v", turns, err)
			}
			if g.Phase == domain.PhaseDrawTile {
				if _, err := g.DrawTile(); err != nil && g.Phase != domain.PhaseEnded {
					t.Fatalf("turn %d: %v", turns, err)
				}
			}
		}
	}
}

func TestDecideRefusesIdlePhases(t *testing.T) {
	g, err := domain.NewGame([]string{"ana", "bo"}, domain.DefaultRules(), 5)
	if err != nil {
		t.Fatal(err)
	}
	// Phase is draw_tile until the host draws.
	if _, err := NewAgent(1).Decide(g); err == nil {
		t.Fatal("decision produced outside a placement phase")
	}
}
