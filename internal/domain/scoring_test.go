package domain

import (
	"reflect"
	"testing"
)

func TestScoreClosedCity(t *testing.T) {
	g := testShell(t)
	if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); err != nil {
		t.Fatal(err)
	}
	effect := script(t, g, "edge_city", 2, GridPos{0, -1}, true)
	g.pendingClosed = effect.Closed

	results := g.resolveScoring()
	if len(results) != 1 {
		t.Fatalf("resolveScoring returned %d results, want 1", len(results))
	}
	res := results[0]
	if res.Kind != City || res.Points != 4 {
		t.Errorf("city scored %d points as %s, want 4 as city", res.Points, res.Kind)
	}
	if !reflect.DeepEqual(res.Winners, []PlayerID{0}) {
		t.Errorf("winners = %v, want [0]", res.Winners)
	}
	if g.Players[0].Score != 4 {
		t.Errorf("score = %d, want 4", g.Players[0].Score)
	}
	if g.Players[0].Meeples != MeeplesPerPlayer {
		t.Errorf("meeple not returned, supply %d", g.Players[0].Meeples)
	}
}

func TestScoreShieldedCity(t *testing.T) {
	g := newGameShell([]string{"ana", "bo"}, DefaultRules(), NewDeckOf())
	script(t, g, "fortified_corner_city", 0, GridPos{0, 0}, false) // city north+west, shield
	if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); err != nil {
		t.Fatal(err)
	}
	script(t, g, "corner_city", 3, GridPos{0, -1}, true) // city west+south
	script(t, g, "corner_city", 1, GridPos{-1, 0}, true) // city east+north
	effect := script(t, g, "corner_city", 2, GridPos{-1, -1}, true)
	g.pendingClosed = effect.Closed

	results := g.resolveScoring()
	if len(results) != 1 {
		t.Fatalf("resolveScoring returned %d results, want 1", len(results))
	}
	// Four tiles at 2 each plus one shield.
	if results[0].Points != 10 {
		t.Errorf("shielded city scored %d, want 10", results[0].Points)
	}
}

func TestScoreClosedRoadLoop(t *testing.T) {
	g := newGameShell([]string{"ana", "bo"}, DefaultRules(), NewDeckOf())
	script(t, g, "curve_road", 3, GridPos{0, 0}, false)
	if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); err != nil {
		t.Fatal(err)
	}
	script(t, g, "curve_road", 0, GridPos{1, 0}, true)
	script(t, g, "curve_road", 2, GridPos{0, 1}, true)
	effect := script(t, g, "curve_road", 1, GridPos{1, 1}, true)
	g.pendingClosed = effect.Closed

	results := g.resolveScoring()
	if len(results) != 1 || results[0].Points != 4 || results[0].Kind != Road {
		t.Fatalf("road loop results = %+v, want one road at 4", results)
	}
}

func TestInnDoublesClosedRoad(t *testing.T) {
	innRoad := &Tile{Name: "inn_road", Segments: []Segment{
		{Kind: Road, Spans: one(South, SpanCenter), Inn: true},
		{Kind: Field, Spans: spans(side3(North), side3(East), side3(West), one(South, SpanLeft), one(South, SpanRight))},
	}}
	g := newGameShell([]string{"ana", "bo"}, DefaultRules(), NewDeckOf())
	if _, err := g.placeTile("inn_road", 0, innRoad, GridPos{0, 0}, false); err != nil {
		t.Fatal(err)
	}
	if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); err != nil {
		t.Fatal(err)
	}
	effect := script(t, g, "dead_end_road", 2, GridPos{0, 1}, true)
	g.pendingClosed = effect.Closed

	results := g.resolveScoring()
	if len(results) != 1 || results[0].Points != 4 {
		t.Fatalf("inn road results = %+v, want one road at 4", results)
	}

	// Without the rule the same road is worth its tile count.
	grp, _ := g.Group(results[0].Group)
	g.Rules.InnDoubles = false
	grp.Scored = false
	if pts := g.groupPoints(grp, false); pts != 2 {
		t.Errorf("road without inn rule = %d, want 2", pts)
	}
	// End-of-game valuation ignores the inn.
	g.Rules.InnDoubles = true
	if pts := g.groupPoints(grp, true); pts != 2 {
		t.Errorf("inn road at game end = %d, want 2", pts)
	}
}

func TestScoreClosedCloister(t *testing.T) {
	g := newGameShell([]string{"ana", "bo"}, DefaultRules(), NewDeckOf())
	script(t, g, "monastery", 0, GridPos{0, 0}, false)
	if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 0); err != nil {
		t.Fatal(err)
	}
	var effect *PlacementEffect
	for _, q := range (GridPos{0, 0}).Surrounding() {
		effect = script(t, g, "monastery", 0, q, false)
	}
	g.pendingClosed = effect.Closed

	results := g.resolveScoring()
	if len(results) != 1 || results[0].Kind != Cloister || results[0].Points != 9 {
		t.Fatalf("cloister results = %+v, want 1 + 8 neighbors", results)
	}
}

func TestMajorityTieAwardsAllInFull(t *testing.T) {
	rules := DefaultRules()
	rules.AllowContested = true
	g := newGameShell([]string{"ana", "bo"}, rules, NewDeckOf())
	script(t, g, "bridge_city", 0, GridPos{0, 0}, false) // city west-east
	seg := SegmentID{GridPos{0, 0}, 0}
	if err := g.AssignMeeple(seg, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.AssignMeeple(seg, 1); err != nil {
		t.Fatal(err)
	}
	script(t, g, "edge_city", 1, GridPos{-1, 0}, true) // city east caps the west end
	effect := script(t, g, "edge_city", 3, GridPos{1, 0}, true)
	g.pendingClosed = effect.Closed

	results := g.resolveScoring()
	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}
	res := results[0]
	if !reflect.DeepEqual(res.Winners, []PlayerID{0, 1}) {
		t.Fatalf("winners = %v, want both players", res.Winners)
	}
	if g.Players[0].Score != res.Points || g.Players[1].Score != res.Points {
		t.Errorf("scores %d/%d, want both %d", g.Players[0].Score, g.Players[1].Score, res.Points)
	}
	if res.Points != 6 {
		t.Errorf("three tile city = %d, want 6", res.Points)
	}
}

func TestFieldsScoreOnlyAtGameEnd(t *testing.T) {
	g := testShell(t)
	// Meeple on the field north of the road, bordering the starting city.
	fieldSeg := SegmentID{GridPos{0, 0}, 2}
	if err := g.AssignMeeple(fieldSeg, 1); err != nil {
		t.Fatal(err)
	}
	effect := script(t, g, "edge_city", 2, GridPos{0, -1}, true)
	g.pendingClosed = effect.Closed

	if results := g.resolveScoring(); len(results) != 0 {
		t.Fatalf("field scored during play: %+v", results)
	}
	if g.Players[1].Meeples != MeeplesPerPlayer-1 {
		t.Error("field meeple must stay until game end")
	}

	results := g.ScoreEndOfGame()
	if len(results) != 1 {
		t.Fatalf("end results = %+v, want the field", results)
	}
	if results[0].Kind != Field || results[0].Points != 3 {
		t.Errorf("field scored %d as %s, want 3 per closed city", results[0].Points, results[0].Kind)
	}
	if g.Players[1].Score != 3 {
		t.Errorf("player 1 score = %d, want 3", g.Players[1].Score)
	}
}

func TestMeeplelessClosedGroupMarkedScored(t *testing.T) {
	g := testShell(t)
	effect := script(t, g, "edge_city", 2, GridPos{0, -1}, true)
	g.pendingClosed = effect.Closed

	if results := g.resolveScoring(); len(results) != 0 {
		t.Fatalf("unoccupied city produced results: %+v", results)
	}
	city, _ := g.GroupAt(SegmentID{GridPos{0, 0}, 0})
	if !city.Scored {
		t.Error("meepleless closed group must be marked scored")
	}
	if results := g.ScoreEndOfGame(); len(results) != 0 {
		t.Errorf("end-of-game rescored it: %+v", results)
	}
}

func TestScoreEndOfGameOpenGroups(t *testing.T) {
	g := testShell(t)
	script(t, g, "straight_road", 0, GridPos{1, 0}, true)
	if err := g.AssignMeeple(SegmentID{GridPos{1, 0}, 1}, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.AssignMeeple(SegmentID{GridPos{0, 0}, 0}, 1); err != nil {
		t.Fatal(err)
	}

	results := g.ScoreEndOfGame()
	if len(results) != 2 {
		t.Fatalf("end results = %+v, want open city and open road", results)
	}
	// Sorted by group id: the starting city group precedes the road group.
	if results[0].Kind != City || results[0].Points != 2 {
		t.Errorf("open city = %d as %s, want 2", results[0].Points, results[0].Kind)
	}
	if results[1].Kind != Road || results[1].Points != 2 {
		t.Errorf("open road = %d as %s, want 2", results[1].Points, results[1].Kind)
	}
	if g.Players[0].Meeples != MeeplesPerPlayer || g.Players[1].Meeples != MeeplesPerPlayer {
		t.Error("end-of-game scoring must return meeples")
	}
}
