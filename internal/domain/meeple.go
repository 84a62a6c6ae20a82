package domain

import "fmt"

// PlayerID is a seat index into Game.Players.
type PlayerID int

// Color is a player's meeple color.
type Color string

// PlayerColors are assigned by seat order.
var PlayerColors = []Color{"red", "green", "blue", "yellow", "black"}

// MeeplesPerPlayer is the starting meeple supply of each player.
const MeeplesPerPlayer = 7

const (
	MinPlayers = 2
	MaxPlayers = 5
)

// Player is one seat in the game.
type Player struct {
	ID      PlayerID `json:"id"`
	Name    string   `json:"name"`
	Color   Color    `json:"color"`
	Score   int      `json:"score"`
	Meeples int      `json:"meeples"`
}

// Meeple is a placed follower. Segment records where it stands; ownership
// of the whole group is derived at scoring time.
type Meeple struct {
	Player  PlayerID  `json:"player"`
	Segment SegmentID `json:"segment"`
}

// AssignMeeple places a meeple for player on the group owning the given
// segment. It validates eligibility but not turn order or phase.
func (g *Game) AssignMeeple(seg SegmentID, player PlayerID) error {
	if int(player) < 0 || int(player) >= len(g.Players) {
		return fmt.Errorf("%w: no player %d", ErrInvalidSegment, player)
	}
	pt, ok := g.Board.At(seg.Pos)
	if !ok || seg.Index < 0 || seg.Index >= len(pt.Tile.Segments) {
		return fmt.Errorf("%w: %v/%d", ErrInvalidSegment, seg.Pos, seg.Index)
	}
	if allowed := g.Rules.RestrictMeeplesTo; len(allowed) > 0 {
		kind := pt.Tile.Segments[seg.Index].Kind
		permitted := false
		for _, k := range allowed {
			if k == kind {
				permitted = true
			}
		}
		if !permitted {
			return fmt.Errorf("%w: %s barred by ruleset", ErrInvalidSegment, kind)
		}
	}
	gid, ok := g.assoc[seg]
	if !ok {
		return fmt.Errorf("%w: segment has no group", ErrInvalidSegment)
	}
	grp := g.groups[gid]
	if grp.Closed {
		return fmt.Errorf("%w: group %d is closed", ErrInvalidSegment, gid)
	}
	if len(grp.Meeples) > 0 && !g.Rules.AllowContested {
		return fmt.Errorf("%w: group %d", ErrOccupiedGroup, gid)
	}
	p := g.Players[player]
	if p.Meeples <= 0 {
		return fmt.Errorf("%w: player %d", ErrNoMeeplesAvailable, player)
	}
	p.Meeples--
	grp.Meeples = append(grp.Meeples, Meeple{Player: player, Segment: seg})
	return nil
}

// ForfeitPlayer pulls the player's meeples off every group and returns them
// to the supply. Scores already earned are kept. Returns the number of
// meeples recovered.
func (g *Game) ForfeitPlayer(player PlayerID) int {
	if int(player) < 0 || int(player) >= len(g.Players) {
		return 0
	}
	n := 0
	for _, grp := range g.groups {
		var kept []Meeple
		for _, m := range grp.Meeples {
			if m.Player == player {
				n++
				continue
			}
			kept = append(kept, m)
		}
		grp.Meeples = kept
	}
	g.Players[player].Meeples += n
	return n
}

// forceAssign restores a meeple from a snapshot without eligibility checks.
// Supplies are not touched; the snapshot carries them explicitly.
func (g *Game) forceAssign(seg SegmentID, player PlayerID) error {
	gid, ok := g.assoc[seg]
	if !ok {
		return fmt.Errorf("%w: segment has no group", ErrInvalidSegment)
	}
	grp := g.groups[gid]
	grp.Meeples = append(grp.Meeples, Meeple{Player: player, Segment: seg})
	return nil
}
