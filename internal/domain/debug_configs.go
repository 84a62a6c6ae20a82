package domain

import (
	"fmt"
	"sort"
)

// Debug configurations build pre-populated games for exercising the group
// engine and scoring paths by hand. They bypass the turn machine and the
// adjacency requirement where a scattered board is wanted.

const (
	DebugMeeplePlacement    = "meeple-placement"
	DebugMultiSegmentScores = "multiple-segments-per-tile-scoring"
	DebugMultiOwnership     = "multiple-player-ownership"
	DebugRotationTest       = "rotation-test"
	DebugGroupCoallation    = "group-coallation"
)

var debugConfigs = map[string]func() (*Game, error){
	DebugMeeplePlacement:    debugMeeplePlacement,
	DebugMultiSegmentScores: debugMultiSegmentScores,
	DebugMultiOwnership:     debugMultiOwnership,
	DebugRotationTest:       debugRotationTest,
	DebugGroupCoallation:    debugGroupCoallation,
}

// DebugConfigNames lists the registered configuration names, sorted.
func DebugConfigNames() []string {
	names := make([]string, 0, len(debugConfigs))
	for name := range debugConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDebugGame builds the named scripted game.
func NewDebugGame(name string) (*Game, error) {
	build, ok := debugConfigs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDebugConfig, name)
	}
	return build()
}

func newDebugShell(rules Rules) *Game {
	return newGameShell([]string{"debug-red", "debug-green"}, rules, NewDeckOf(
		"straight_road", "curve_road", "edge_city", "monastery",
	))
}

func (g *Game) scriptTile(name string, rotation int, pos GridPos, contiguous bool) error {
	template, ok := TileByName(name)
	if !ok {
		return fmt.Errorf("unknown tile %q", name)
	}
	_, err := g.placeTile(name, rotation, template.RotatedTimes(rotation), pos, contiguous)
	return err
}

// debugMeeplePlacement scatters one copy of every catalog tile and puts a
// meeple on every segment, so every feature kind renders with an occupant.
func debugMeeplePlacement() (*Game, error) {
	g := newDebugShell(DefaultRules())
	g.Players[0].Meeples = 500
	for i, name := range CatalogNames() {
		pos := GridPos{i * 2, 0}
		if err := g.scriptTile(name, 0, pos, false); err != nil {
			return nil, err
		}
		tile, _ := TileByName(name)
		for s := range tile.Segments {
			if err := g.AssignMeeple(SegmentID{pos, s}, 0); err != nil {
				return nil, err
			}
		}
	}
	g.history = nil
	return g, nil
}

// debugMultiSegmentScores sets up a tile whose two city segments belong to
// different groups, both occupied, both closed on the next placements.
func debugMultiSegmentScores() (*Game, error) {
	g := newDebugShell(DefaultRules())
	if err := g.scriptTile("opposing_edge_cities", 0, GridPos{0, 0}, true); err != nil {
		return nil, err
	}
	if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); err != nil {
		return nil, err
	}
	if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 1}, 1); err != nil {
		return nil, err
	}
	// Cap both cities; each closes as a two-tile group.
	if err := g.scriptTile("edge_city", 2, GridPos{0, -1}, true); err != nil {
		return nil, err
	}
	if err := g.scriptTile("edge_city", 0, GridPos{0, 1}, true); err != nil {
		return nil, err
	}
	g.history = nil
	return g, nil
}

// debugMultiOwnership builds one open city group holding meeples of two
// players, with contested placement enabled.
func debugMultiOwnership() (*Game, error) {
	rules := DefaultRules()
	rules.AllowContested = true
	g := newDebugShell(rules)
	if err := g.scriptTile("three_quarter_city", 0, GridPos{0, 0}, true); err != nil {
		return nil, err
	}
	if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); err != nil {
		return nil, err
	}
	if err := g.scriptTile("three_quarter_city", 2, GridPos{0, -1}, true); err != nil {
		return nil, err
	}
	if err := g.AssignMeeple(SegmentID{GridPos{0, -1}, 0}, 1); err != nil {
		return nil, err
	}
	g.history = nil
	return g, nil
}

// debugRotationTest scatters every catalog tile at each rotation.
func debugRotationTest() (*Game, error) {
	g := newDebugShell(DefaultRules())
	for i, name := range CatalogNames() {
		for r := 0; r < 4; r++ {
			if err := g.scriptTile(name, r, GridPos{i * 2, r * 2}, false); err != nil {
				return nil, err
			}
		}
	}
	g.history = nil
	return g, nil
}

// debugGroupCoallation lays a 2x2 road loop: the final tile merges three
// road groups into one and closes it.
func debugGroupCoallation() (*Game, error) {
	g := newDebugShell(DefaultRules())
	loop := []struct {
		rotation int
		pos      GridPos
	}{
		{3, GridPos{0, 0}}, // road south-east
		{0, GridPos{1, 0}}, // road west-south
		{2, GridPos{0, 1}}, // road east-north
		{1, GridPos{1, 1}}, // road north-west
	}
	for _, step := range loop {
		if err := g.scriptTile("curve_road", step.rotation, step.pos, true); err != nil {
			return nil, err
		}
	}
	g.history = nil
	return g, nil
}
