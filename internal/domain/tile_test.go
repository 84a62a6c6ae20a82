package domain

import (
	"reflect"
	"testing"
)

func TestRotatedFourTimesIsIdentity(t *testing.T) {
	for _, name := range CatalogNames() {
		tile, _ := TileByName(name)
		if got := tile.RotatedTimes(4); !reflect.DeepEqual(got, tile) {
			t.Errorf("%s: four quarter turns changed the tile", name)
		}
	}
}

func TestRotatedMovesSpansClockwise(t *testing.T) {
	curve, _ := TileByName("curve_road")
	// Base road runs west-south; one clockwise turn puts it north-west.
	r1 := curve.Rotated()
	road := r1.Segments[0]
	if road.Kind != Road {
		t.Fatalf("segment 0 is %s, want road", road.Kind)
	}
	sides := map[Orientation]bool{}
	for _, es := range road.Spans {
		sides[es.Side] = true
	}
	if !sides[North] || !sides[West] || len(sides) != 2 {
		t.Errorf("rotated road spans %v, want north and west", sides)
	}
}

func TestRotatedTimesNegative(t *testing.T) {
	tile, _ := TileByName("edge_city")
	if got, want := tile.RotatedTimes(-1), tile.RotatedTimes(3); !reflect.DeepEqual(got, want) {
		t.Error("-1 turns should equal 3 turns")
	}
}

// Every tile must claim each of its twelve edge spans exactly once, or edge
// matching and group insertion misbehave silently.
func TestCatalogSpanCoverage(t *testing.T) {
	for _, name := range CatalogNames() {
		tile, _ := TileByName(name)
		claims := map[EdgeSpan]int{}
		for _, seg := range tile.Segments {
			for _, es := range seg.Spans {
				claims[es]++
			}
		}
		for _, side := range Orientations {
			for s := SpanLeft; s <= SpanRight; s++ {
				if n := claims[EdgeSpan{side, s}]; n != 1 {
					t.Errorf("%s: %s/%d claimed %d times", name, side, s, n)
				}
			}
		}
	}
}

func TestEdgeProfile(t *testing.T) {
	start, _ := TileByName(StartingTileName)
	tests := []struct {
		side Orientation
		want [3]FeatureKind
	}{
		{North, [3]FeatureKind{City, City, City}},
		{East, [3]FeatureKind{Field, Road, Field}},
		{South, [3]FeatureKind{Field, Field, Field}},
		{West, [3]FeatureKind{Field, Road, Field}},
	}
	for _, tc := range tests {
		if got := start.EdgeProfile(tc.side); got != tc.want {
			t.Errorf("%s profile = %v, want %v", tc.side, got, tc.want)
		}
	}
}

func TestEdgesCompatible(t *testing.T) {
	start, _ := TileByName(StartingTileName)
	road, _ := TileByName("straight_road")
	city, _ := TileByName("edge_city")

	tests := []struct {
		name string
		a    *Tile
		side Orientation
		b    *Tile
		want bool
	}{
		{"RoadMeetsRoad", start, East, road, true},
		{"CityMeetsCityMirrored", start, North, city.RotatedTimes(2), true},
		{"CityMeetsField", start, North, city, false},
		{"RoadMeetsField", start, West, city.RotatedTimes(1), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := edgesCompatible(tc.a, tc.side, tc.b); got != tc.want {
				t.Errorf("edgesCompatible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSegmentAt(t *testing.T) {
	start, _ := TileByName(StartingTileName)
	idx, ok := start.SegmentAt(West, SpanCenter)
	if !ok || start.Segments[idx].Kind != Road {
		t.Fatalf("west center = segment %d ok=%v, want the road", idx, ok)
	}
	if _, ok := (&Tile{Name: "bare"}).SegmentAt(North, SpanLeft); ok {
		t.Error("tile without spans claimed a span")
	}
}
