package domain

import (
	"fmt"
	"sort"
)

// Phase is the turn machine state.
type Phase string

const (
	PhaseDrawTile    Phase = "draw_tile"
	PhasePlaceTile   Phase = "place_tile"
	PhasePlaceMeeple Phase = "place_meeple"
	PhaseScoring     Phase = "scoring"
	PhaseNextTurn    Phase = "next_turn"
	PhaseEnded       Phase = "ended"
)

// Game is the full authoritative game state. It is purely synchronous;
// callers own serialization of access.
type Game struct {
	Rules   Rules
	Board   *Board
	Players []*Player
	Current PlayerID
	Phase   Phase
	Deck    *Deck

	drawnName string

	groups    map[GroupID]*SegmentGroup
	assoc     map[SegmentID]GroupID
	nextGroup GroupID

	pendingClosed []GroupID
	history       []placementRecord
}

func newGameShell(names []string, rules Rules, deck *Deck) *Game {
	g := &Game{
		Rules:  rules,
		Board:  NewBoard(),
		Deck:   deck,
		Phase:  PhaseDrawTile,
		groups: map[GroupID]*SegmentGroup{},
		assoc:  map[SegmentID]GroupID{},
	}
	for i, name := range names {
		g.Players = append(g.Players, &Player{
			ID:      PlayerID(i),
			Name:    name,
			Color:   PlayerColors[i%len(PlayerColors)],
			Meeples: MeeplesPerPlayer,
		})
	}
	return g
}

// NewGame starts a standard game: base deck shuffled with seed, starting
// tile pre-placed at the origin, first player to move.
func NewGame(names []string, rules Rules, seed int64) (*Game, error) {
	if len(names) < MinPlayers || len(names) > MaxPlayers {
		return nil, fmt.Errorf("player count %d out of range %d..%d", len(names), MinPlayers, MaxPlayers)
	}
	g := newGameShell(names, rules, NewDeck(seed))
	start, _ := TileByName(StartingTileName)
	if _, err := g.placeTile(StartingTileName, 0, start, GridPos{0, 0}, true); err != nil {
		return nil, err
	}
	// The pre-placed tile is setup, not a move.
	g.history = nil
	return g, nil
}

// DrawnTile returns the template currently held for placement, if any.
func (g *Game) DrawnTile() (string, *Tile, bool) {
	if g.drawnName == "" {
		return "", nil, false
	}
	t, _ := TileByName(g.drawnName)
	return g.drawnName, t, true
}

// GroupCount returns the number of live segment groups.
func (g *Game) GroupCount() int { return len(g.groups) }

// Group returns the group with the given id.
func (g *Game) Group(gid GroupID) (*SegmentGroup, bool) {
	grp, ok := g.groups[gid]
	return grp, ok
}

// GroupAt returns the group owning a segment.
func (g *Game) GroupAt(seg SegmentID) (*SegmentGroup, bool) {
	gid, ok := g.assoc[seg]
	if !ok {
		return nil, false
	}
	return g.groups[gid], true
}

// Groups returns all live groups sorted by id.
func (g *Game) Groups() []*SegmentGroup {
	out := make([]*SegmentGroup, 0, len(g.groups))
	for _, grp := range g.groups {
		out = append(out, grp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PendingClosed returns the groups closed by the placement being resolved.
func (g *Game) PendingClosed() []GroupID {
	return append([]GroupID(nil), g.pendingClosed...)
}
