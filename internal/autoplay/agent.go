// Package autoplay provides the stand-in agent that acts for a seat whose
// player dropped and whose grace period expired. It keeps the game moving:
// it places the drawn tile at a random valid position and never claims
// meeples.
package autoplay

import (
	"fmt"
	"math/rand"

	"carcassonne/internal/domain"
)

// Move is the agent's decision for the current phase.
type Move struct {
	Placement *domain.Placement
	Skip      bool
}

// Agent decides moves for one seat.
type Agent struct {
	rng *rand.Rand
}

func NewAgent(seed int64) *Agent {
	return &Agent{rng: rand.New(rand.NewSource(seed))}
}

// Decide returns the move for the game's current phase. The turn machine
// discards unplaceable tiles at draw time, so a drawn tile always has at
// least one valid placement.
func (a *Agent) Decide(g *domain.Game) (Move, error) {
	switch g.Phase {
	case domain.PhasePlaceTile:
		_, template, ok := g.DrawnTile()
		if !ok {
			return Move{}, fmt.Errorf("no drawn tile to place")
		}
		options := g.Board.ValidPlacements(template)
		if len(options) == 0 {
			return Move{}, fmt.Errorf("drawn tile has no valid placement")
		}
		pick := options[a.rng.Intn(len(options))]
		return Move{Placement: &pick}, nil
	case domain.PhasePlaceMeeple:
		return Move{Skip: true}, nil
	default:
		return Move{}, fmt.Errorf("no move available in phase %s", g.Phase)
	}
}
