// Package client keeps a local mirror of a hosted game. The host is
// authoritative; the replica applies its snapshots and sequenced deltas and
// asks for a fresh snapshot whenever it falls out of step.
package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"carcassonne/internal/app"
	"carcassonne/internal/domain"
	"carcassonne/internal/protocol"
	"carcassonne/internal/save"
)

// ErrOutOfSync means the replica cannot apply a delta and needs a snapshot.
var ErrOutOfSync = errors.New("replica out of sync")

// Replica mirrors the host's game. Deltas apply strictly in sequence; the
// deck order travels in the snapshot, so replaying the host's actions yields
// byte-identical state.
type Replica struct {
	Game *domain.Game
	Seq  uint64
}

// ApplySnapshot replaces the replica state wholesale.
func (r *Replica) ApplySnapshot(seq uint64, data []byte) error {
	g, err := save.Unmarshal(data)
	if err != nil {
		return err
	}
	r.Game = g
	r.Seq = seq
	return nil
}

// ApplyDelta applies one sequenced delta. Already-seen deltas are ignored;
// a gap or a delta the replica cannot replay yields ErrOutOfSync.
func (r *Replica) ApplyDelta(delta protocol.DeltaPayload) error {
	if delta.Seq <= r.Seq {
		return nil
	}
	if delta.Seq != r.Seq+1 {
		return fmt.Errorf("%w: have seq %d, got %d", ErrOutOfSync, r.Seq, delta.Seq)
	}
	for _, ev := range delta.Events {
		if err := r.applyEvent(ev); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrOutOfSync, ev.Kind, err)
		}
	}
	r.Seq = delta.Seq
	return nil
}

// applyEvent replays one host event against the local game. Scoring and
// turn-advance events carry no replayable action; the domain already
// resolves both inside the meeple step, so they are treated as confirmations.
func (r *Replica) applyEvent(ev protocol.EventEnvelope) error {
	switch app.EventKind(ev.Kind) {
	case app.EventGameStarted:
		if r.Game == nil {
			return errors.New("no snapshot for started game")
		}
		return nil
	case app.EventTileDrawn:
		if r.Game == nil {
			return errors.New("no local game")
		}
		var p app.TileDrawnPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		// The draw can arrive inside the snapshot that seats us.
		if name, _, ok := r.Game.DrawnTile(); ok && name == p.Tile && r.Game.Deck.Len() == p.Remaining {
			return nil
		}
		name, err := r.Game.DrawTile()
		if err != nil {
			return err
		}
		if name != p.Tile {
			return fmt.Errorf("drew %s, host drew %s", name, p.Tile)
		}
		return nil
	case app.EventTilePlaced:
		var p app.TilePlacedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		_, err := r.Game.PlaceDrawnTile(domain.GridPos{X: p.X, Y: p.Y}, p.Rotation)
		return err
	case app.EventMeeplePlaced:
		var p app.MeeplePlacedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		seg := domain.SegmentID{Pos: domain.GridPos{X: p.X, Y: p.Y}, Index: p.Segment}
		_, err := r.Game.PlaceMeepleAction(seg)
		return err
	case app.EventMeepleSkipped:
		_, err := r.Game.SkipMeepleAction()
		return err
	case app.EventPlacementUndone:
		return r.Game.UndoAction()
	case app.EventGroupsScored, app.EventTurnAdvanced, app.EventGameEnded:
		return nil
	default:
		// Unknown kinds are tolerated so older clients survive new events.
		return nil
	}
}
