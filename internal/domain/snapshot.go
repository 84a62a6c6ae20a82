package domain

import (
	"fmt"
	"sort"
)

// Snapshot is the lossless, replay-based serialization of a Game. Tiles are
// stored in placement order so Restore rebuilds the group table by running
// every placement back through the engine.
type Snapshot struct {
	Rules      Rules               `json:"rules"`
	Players    []PlayerSnapshot    `json:"players"`
	Current    int                 `json:"current"`
	Phase      Phase               `json:"phase"`
	Drawn      string              `json:"drawn,omitempty"`
	Deck       []string            `json:"deck"`
	Discarded  []string            `json:"discarded,omitempty"`
	Placements []PlacementSnapshot `json:"placements"`
	Meeples    []MeepleSnapshot    `json:"meeples,omitempty"`
}

type PlayerSnapshot struct {
	Name    string `json:"name"`
	Color   Color  `json:"color"`
	Score   int    `json:"score"`
	Meeples int    `json:"meeples"`
}

type PlacementSnapshot struct {
	Name     string `json:"name"`
	Rotation int    `json:"rotation"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

type MeepleSnapshot struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Segment int `json:"segment"`
	Player  int `json:"player"`
}

// TakeSnapshot captures the game. Undo history is not carried; a restored
// game cannot undo placements made before the snapshot.
func TakeSnapshot(g *Game) *Snapshot {
	s := &Snapshot{
		Rules:     g.Rules,
		Current:   int(g.Current),
		Phase:     g.Phase,
		Drawn:     g.drawnName,
		Deck:      append([]string{}, g.Deck.Remaining...),
		Discarded: append([]string{}, g.Deck.Discarded...),
	}
	for _, p := range g.Players {
		s.Players = append(s.Players, PlayerSnapshot{Name: p.Name, Color: p.Color, Score: p.Score, Meeples: p.Meeples})
	}
	for _, pt := range g.Board.PlacedInOrder() {
		s.Placements = append(s.Placements, PlacementSnapshot{Name: pt.Name, Rotation: pt.Rotation, X: pt.Pos.X, Y: pt.Pos.Y})
	}
	for _, grp := range g.Groups() {
		for _, m := range grp.Meeples {
			s.Meeples = append(s.Meeples, MeepleSnapshot{
				X: m.Segment.Pos.X, Y: m.Segment.Pos.Y, Segment: m.Segment.Index, Player: int(m.Player),
			})
		}
	}
	// Group ids are not serialized, so order meeples canonically to keep
	// the encoding deterministic across save/load cycles.
	sort.Slice(s.Meeples, func(i, j int) bool {
		a, b := s.Meeples[i], s.Meeples[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Segment != b.Segment {
			return a.Segment < b.Segment
		}
		return a.Player < b.Player
	})
	return s
}

var validPhases = map[Phase]bool{
	PhaseDrawTile: true, PhasePlaceTile: true, PhasePlaceMeeple: true,
	PhaseScoring: true, PhaseNextTurn: true, PhaseEnded: true,
}

// Restore rebuilds a Game from a snapshot, replaying every placement through
// the engine. Any inconsistency fails with ErrCorruptSnapshot before a game
// is returned; a restore never yields partial state.
func Restore(s *Snapshot) (*Game, error) {
	if len(s.Players) == 0 || len(s.Players) > MaxPlayers {
		return nil, fmt.Errorf("%w: %d players", ErrCorruptSnapshot, len(s.Players))
	}
	if s.Current < 0 || s.Current >= len(s.Players) {
		return nil, fmt.Errorf("%w: current player %d", ErrCorruptSnapshot, s.Current)
	}
	if !validPhases[s.Phase] {
		return nil, fmt.Errorf("%w: phase %q", ErrCorruptSnapshot, s.Phase)
	}
	if s.Drawn != "" {
		if _, ok := TileByName(s.Drawn); !ok {
			return nil, fmt.Errorf("%w: drawn tile %q", ErrCorruptSnapshot, s.Drawn)
		}
	}
	for _, name := range s.Deck {
		if _, ok := TileByName(name); !ok {
			return nil, fmt.Errorf("%w: deck tile %q", ErrCorruptSnapshot, name)
		}
	}

	names := make([]string, len(s.Players))
	for i, p := range s.Players {
		// Scripted games may exceed the standard supply, so only negative
		// values are rejected.
		if p.Score < 0 || p.Meeples < 0 {
			return nil, fmt.Errorf("%w: player %d supply/score", ErrCorruptSnapshot, i)
		}
		names[i] = p.Name
	}
	g := newGameShell(names, s.Rules, &Deck{
		Remaining: append([]string{}, s.Deck...),
		Discarded: append([]string{}, s.Discarded...),
	})
	for i, p := range s.Players {
		g.Players[i].Color = p.Color
		g.Players[i].Score = p.Score
		g.Players[i].Meeples = p.Meeples
	}
	g.Current = PlayerID(s.Current)
	g.Phase = s.Phase
	g.drawnName = s.Drawn

	for _, pl := range s.Placements {
		if pl.Rotation < 0 || pl.Rotation > 3 {
			return nil, fmt.Errorf("%w: rotation %d", ErrCorruptSnapshot, pl.Rotation)
		}
		template, ok := TileByName(pl.Name)
		if !ok {
			return nil, fmt.Errorf("%w: tile %q", ErrCorruptSnapshot, pl.Name)
		}
		pos := GridPos{pl.X, pl.Y}
		// Scripted boards may contain islands, so adjacency is not
		// re-imposed; edge compatibility still is.
		if _, err := g.placeTile(pl.Name, pl.Rotation, template.RotatedTimes(pl.Rotation), pos, false); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	}
	g.history = nil

	for _, m := range s.Meeples {
		if m.Player < 0 || m.Player >= len(s.Players) {
			return nil, fmt.Errorf("%w: meeple player %d", ErrCorruptSnapshot, m.Player)
		}
		seg := SegmentID{GridPos{m.X, m.Y}, m.Segment}
		pt, ok := g.Board.At(seg.Pos)
		if !ok || m.Segment < 0 || m.Segment >= len(pt.Tile.Segments) {
			return nil, fmt.Errorf("%w: meeple segment %v/%d", ErrCorruptSnapshot, seg.Pos, m.Segment)
		}
		if err := g.forceAssign(seg, PlayerID(m.Player)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	}

	// Mid-placement snapshots carry pending closures implicitly: groups
	// closed by the last placement have not been committed yet. That covers
	// the placed tile's own segments and, like placeTile, any cloister in
	// its 8-neighborhood the placement surrounded.
	if g.Phase == PhasePlaceMeeple {
		if last, ok := g.Board.LastPlaced(); ok {
			for i := range last.Tile.Segments {
				g.recoverPendingClosure(SegmentID{last.Pos, i})
			}
			for _, q := range last.Pos.Surrounding() {
				nb, ok := g.Board.At(q)
				if !ok {
					continue
				}
				for i, seg := range nb.Tile.Segments {
					if seg.Kind == Cloister {
						g.recoverPendingClosure(SegmentID{q, i})
					}
				}
			}
		}
	}

	// Every other closed group without meeples has already scored; scoring
	// returned its meeples before the snapshot was taken. Fields keep the
	// flag clear, as resolveScoring leaves them for game end.
	for _, grp := range g.groups {
		if grp.Closed && len(grp.Meeples) == 0 && grp.Kind != Field && !containsGroup(g.pendingClosed, grp.ID) {
			grp.Scored = true
		}
	}
	return g, nil
}

func (g *Game) recoverPendingClosure(seg SegmentID) {
	grp, ok := g.GroupAt(seg)
	if !ok || !grp.Closed || grp.Scored {
		return
	}
	if !containsGroup(g.pendingClosed, grp.ID) {
		g.pendingClosed = append(g.pendingClosed, grp.ID)
	}
}
