package domain

import "sort"

// Rules holds the point values and rule toggles. These are configuration,
// not constants, so variants and scripted scenarios can adjust them.
type Rules struct {
	RoadPerTile    int  `json:"road_per_tile"`
	InnDoubles     bool `json:"inn_doubles"`
	CityPerTile    int  `json:"city_per_tile"`
	ShieldBonus    int  `json:"shield_bonus"`
	CloisterBase   int  `json:"cloister_base"`
	FieldPerCity   int  `json:"field_per_city"`
	AllowContested bool `json:"allow_contested"`
	// RestrictMeeplesTo limits meeple placement to the listed feature
	// kinds. Empty means no restriction.
	RestrictMeeplesTo []FeatureKind `json:"restrict_meeples_to,omitempty"`
}

// DefaultRules returns the base-game values: closed cities score two per
// tile plus two per shield, cloisters one plus one per surrounding tile.
func DefaultRules() Rules {
	return Rules{
		RoadPerTile:  1,
		InnDoubles:   true,
		CityPerTile:  2,
		ShieldBonus:  2,
		CloisterBase: 1,
		FieldPerCity: 3,
	}
}

// ScoreResult reports one scored group.
type ScoreResult struct {
	Group    GroupID     `json:"group"`
	Kind     FeatureKind `json:"kind"`
	Points   int         `json:"points"`
	Winners  []PlayerID  `json:"winners"`
	Returned []Meeple    `json:"returned"`
	AtEnd    bool        `json:"at_end"`
}

// majorityWinners returns the players holding the most meeples on a group.
// Ties award every tied player in full.
func majorityWinners(meeples []Meeple) []PlayerID {
	counts := map[PlayerID]int{}
	best := 0
	for _, m := range meeples {
		counts[m.Player]++
		if counts[m.Player] > best {
			best = counts[m.Player]
		}
	}
	var out []PlayerID
	for p, n := range counts {
		if n == best {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// groupPoints computes the point value of a group under the active rules.
// atEnd switches to end-of-game valuation for open groups and fields.
func (g *Game) groupPoints(grp *SegmentGroup, atEnd bool) int {
	switch grp.Kind {
	case Road:
		pts := grp.TilesSpanned() * g.Rules.RoadPerTile
		if !atEnd && g.Rules.InnDoubles && g.groupHasInn(grp) {
			pts *= 2
		}
		return pts
	case City:
		return grp.TilesSpanned()*g.Rules.CityPerTile + g.groupShields(grp)*g.Rules.ShieldBonus
	case Cloister:
		sid := grp.Segments[0]
		return g.Rules.CloisterBase + g.Board.NeighborCount8(sid.Pos)
	case Field:
		return g.fieldAdjacentClosedCities(grp) * g.Rules.FieldPerCity
	default:
		return 0
	}
}

func (g *Game) groupHasInn(grp *SegmentGroup) bool {
	for _, sid := range grp.Segments {
		pt, _ := g.Board.At(sid.Pos)
		if pt.Tile.Segments[sid.Index].Inn {
			return true
		}
	}
	return false
}

func (g *Game) groupShields(grp *SegmentGroup) int {
	n := 0
	for _, sid := range grp.Segments {
		pt, _ := g.Board.At(sid.Pos)
		if pt.Tile.Segments[sid.Index].Shield {
			n++
		}
	}
	return n
}

// fieldAdjacentClosedCities counts the distinct closed city groups the
// field's segments border on their own tiles.
func (g *Game) fieldAdjacentClosedCities(grp *SegmentGroup) int {
	seen := map[GroupID]bool{}
	for _, sid := range grp.Segments {
		pt, _ := g.Board.At(sid.Pos)
		for _, ci := range pt.Tile.Segments[sid.Index].AdjacentCities {
			cgid, ok := g.assoc[SegmentID{sid.Pos, ci}]
			if !ok {
				continue
			}
			if city := g.groups[cgid]; city.Closed {
				seen[cgid] = true
			}
		}
	}
	return len(seen)
}

// scoreGroup awards a group's points to its majority holders and returns
// their meeples to the supplies. Meepleless groups are marked scored with
// no award so end-of-game scoring skips them.
func (g *Game) scoreGroup(gid GroupID, atEnd bool) ScoreResult {
	grp := g.groups[gid]
	res := ScoreResult{Group: gid, Kind: grp.Kind, AtEnd: atEnd}
	res.Points = g.groupPoints(grp, atEnd)
	res.Winners = majorityWinners(grp.Meeples)
	for _, w := range res.Winners {
		g.Players[w].Score += res.Points
	}
	for _, m := range grp.Meeples {
		g.Players[m.Player].Meeples++
	}
	res.Returned = grp.Meeples
	grp.Meeples = nil
	grp.Scored = true
	return res
}

// resolveScoring commits the closures pending from the last placement.
// Fields never score during play; their meeples stay until game end.
func (g *Game) resolveScoring() []ScoreResult {
	var results []ScoreResult
	for _, gid := range g.pendingClosed {
		grp, ok := g.groups[gid]
		if !ok || grp.Scored || grp.Kind == Field {
			continue
		}
		if len(grp.Meeples) == 0 {
			grp.Scored = true
			continue
		}
		results = append(results, g.scoreGroup(gid, false))
	}
	g.pendingClosed = nil
	return results
}

// ScoreEndOfGame scores every group still holding meeples: open roads,
// cities and cloisters at reduced end values, and all fields.
func (g *Game) ScoreEndOfGame() []ScoreResult {
	var gids []GroupID
	for gid, grp := range g.groups {
		if !grp.Scored && len(grp.Meeples) > 0 {
			gids = append(gids, gid)
		}
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })
	results := make([]ScoreResult, 0, len(gids))
	for _, gid := range gids {
		results = append(results, g.scoreGroup(gid, true))
	}
	return results
}
