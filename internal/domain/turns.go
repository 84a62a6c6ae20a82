package domain

import "fmt"

// DrawTile advances PhaseDrawTile -> PhasePlaceTile. Tiles with no valid
// placement anywhere are discarded and the next one is drawn. An empty
// deck ends the game and returns ErrDeckExhausted.
func (g *Game) DrawTile() (string, error) {
	if g.Phase != PhaseDrawTile {
		return "", fmt.Errorf("%w: draw in %s", ErrIllegalAction, g.Phase)
	}
	for {
		name, ok := g.Deck.Draw()
		if !ok {
			g.Phase = PhaseEnded
			return "", ErrDeckExhausted
		}
		template, ok := TileByName(name)
		if !ok {
			return "", fmt.Errorf("unknown tile %q in deck", name)
		}
		if !g.Board.HasAnyPlacement(template) {
			g.Deck.Discard(name)
			continue
		}
		g.drawnName = name
		g.Phase = PhasePlaceTile
		return name, nil
	}
}

// PlaceDrawnTile advances PhasePlaceTile -> PhasePlaceMeeple. Groups the
// placement closed are held pending until the meeple decision commits.
func (g *Game) PlaceDrawnTile(pos GridPos, rotation int) (*PlacementEffect, error) {
	if g.Phase != PhasePlaceTile {
		return nil, fmt.Errorf("%w: place tile in %s", ErrIllegalAction, g.Phase)
	}
	template, _ := TileByName(g.drawnName)
	effect, err := g.placeTile(g.drawnName, rotation, template.RotatedTimes(rotation), pos, true)
	if err != nil {
		return nil, err
	}
	g.pendingClosed = effect.Closed
	g.Phase = PhasePlaceMeeple
	return effect, nil
}

// PlaceMeepleAction places a meeple for the current player on the tile just
// placed, then resolves scoring and advances the turn.
func (g *Game) PlaceMeepleAction(seg SegmentID) ([]ScoreResult, error) {
	if g.Phase != PhasePlaceMeeple {
		return nil, fmt.Errorf("%w: place meeple in %s", ErrIllegalAction, g.Phase)
	}
	last, _ := g.Board.LastPlaced()
	if seg.Pos != last.Pos {
		return nil, fmt.Errorf("%w: meeple must stand on the placed tile", ErrInvalidSegment)
	}
	if err := g.AssignMeeple(seg, g.Current); err != nil {
		return nil, err
	}
	return g.finishTurn(), nil
}

// SkipMeepleAction declines the meeple, then resolves scoring and advances.
func (g *Game) SkipMeepleAction() ([]ScoreResult, error) {
	if g.Phase != PhasePlaceMeeple {
		return nil, fmt.Errorf("%w: skip in %s", ErrIllegalAction, g.Phase)
	}
	return g.finishTurn(), nil
}

// UndoAction reverses the current placement. Valid only before the meeple
// decision commits; restores PhasePlaceTile with the same drawn tile.
func (g *Game) UndoAction() error {
	if g.Phase != PhasePlaceMeeple {
		return fmt.Errorf("%w: undo in %s", ErrIllegalAction, g.Phase)
	}
	if err := g.undoPlacement(); err != nil {
		return err
	}
	g.pendingClosed = nil
	g.Phase = PhasePlaceTile
	return nil
}

func (g *Game) finishTurn() []ScoreResult {
	g.Phase = PhaseScoring
	results := g.resolveScoring()
	g.Phase = PhaseNextTurn
	g.drawnName = ""
	g.Current = PlayerID((int(g.Current) + 1) % len(g.Players))
	if g.Deck.Empty() {
		g.Phase = PhaseEnded
	} else {
		g.Phase = PhaseDrawTile
	}
	return results
}
