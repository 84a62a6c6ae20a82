package domain

import "sort"

// Span layout reminder: spans run clockwise along the perimeter, so
// North[0] is the west end of the north side, East[0] the north end of the
// east side, South[0] the east end of the south side and West[0] the south
// end of the west side. Two abutting spans therefore pair up as i <-> 2-i.

func es(o Orientation, s Span) EdgeSpan { return EdgeSpan{Side: o, Span: s} }

// side3 claims a full side.
func side3(o Orientation) []EdgeSpan {
	return []EdgeSpan{es(o, SpanLeft), es(o, SpanCenter), es(o, SpanRight)}
}

func spans(groups ...[]EdgeSpan) []EdgeSpan {
	var out []EdgeSpan
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func one(o Orientation, s Span) []EdgeSpan { return []EdgeSpan{es(o, s)} }

// StartingTileName is the tile pre-placed at the origin of every standard game.
const StartingTileName = "starting_tile"

var (
	startingTile = &Tile{Name: StartingTileName, Segments: []Segment{
		{Kind: City, Spans: side3(North)},
		{Kind: Road, Spans: spans(one(West, SpanCenter), one(East, SpanCenter))},
		{Kind: Field, Spans: spans(one(West, SpanRight), one(East, SpanLeft)), AdjacentCities: []int{0}},
		{Kind: Field, Spans: spans(side3(South), one(West, SpanLeft), one(East, SpanRight))},
	}}

	straightRoad = &Tile{Name: "straight_road", Segments: []Segment{
		{Kind: Field, Spans: spans(side3(North), one(West, SpanRight), one(East, SpanLeft))},
		{Kind: Road, Spans: spans(one(West, SpanCenter), one(East, SpanCenter))},
		{Kind: Field, Spans: spans(side3(South), one(West, SpanLeft), one(East, SpanRight))},
	}}

	curveRoad = &Tile{Name: "curve_road", Segments: []Segment{
		{Kind: Road, Spans: spans(one(West, SpanCenter), one(South, SpanCenter))},
		{Kind: Field, Spans: spans(one(West, SpanLeft), one(South, SpanRight))},
		{Kind: Field, Spans: spans(one(West, SpanRight), side3(North), side3(East), one(South, SpanLeft))},
	}}

	deadEndRoad = &Tile{Name: "dead_end_road", Segments: []Segment{
		{Kind: Road, Spans: one(South, SpanCenter)},
		{Kind: Field, Spans: spans(side3(North), side3(East), side3(West), one(South, SpanLeft), one(South, SpanRight))},
	}}

	tCrossroads = &Tile{Name: "t_crossroads", Segments: []Segment{
		{Kind: Field, Spans: spans(side3(North), one(West, SpanRight), one(East, SpanLeft))},
		{Kind: Road, Spans: one(West, SpanCenter)},
		{Kind: Road, Spans: one(East, SpanCenter)},
		{Kind: Road, Spans: one(South, SpanCenter)},
		{Kind: Field, Spans: spans(one(West, SpanLeft), one(South, SpanRight))},
		{Kind: Field, Spans: spans(one(East, SpanRight), one(South, SpanLeft))},
	}}

	fourWayCrossroads = &Tile{Name: "four_way_crossroads", Segments: []Segment{
		{Kind: Road, Spans: one(North, SpanCenter)},
		{Kind: Road, Spans: one(East, SpanCenter)},
		{Kind: Road, Spans: one(South, SpanCenter)},
		{Kind: Road, Spans: one(West, SpanCenter)},
		{Kind: Field, Spans: spans(one(North, SpanLeft), one(West, SpanRight))},
		{Kind: Field, Spans: spans(one(North, SpanRight), one(East, SpanLeft))},
		{Kind: Field, Spans: spans(one(East, SpanRight), one(South, SpanLeft))},
		{Kind: Field, Spans: spans(one(South, SpanRight), one(West, SpanLeft))},
	}}

	monastery = &Tile{Name: "monastery", Segments: []Segment{
		{Kind: Cloister},
		{Kind: Field, Spans: spans(side3(North), side3(East), side3(South), side3(West))},
	}}

	roadMonastery = &Tile{Name: "road_monastery", Segments: []Segment{
		{Kind: Cloister},
		{Kind: Road, Spans: one(South, SpanCenter)},
		{Kind: Field, Spans: spans(side3(North), side3(East), side3(West), one(South, SpanLeft), one(South, SpanRight))},
	}}

	edgeCity = &Tile{Name: "edge_city", Segments: []Segment{
		{Kind: City, Spans: side3(North)},
		{Kind: Field, Spans: spans(side3(East), side3(South), side3(West)), AdjacentCities: []int{0}},
	}}

	cornerCity = &Tile{Name: "corner_city", Segments: []Segment{
		{Kind: City, Spans: spans(side3(North), side3(West))},
		{Kind: Field, Spans: spans(side3(East), side3(South)), AdjacentCities: []int{0}},
	}}

	fortifiedCornerCity = &Tile{Name: "fortified_corner_city", Segments: []Segment{
		{Kind: City, Spans: spans(side3(North), side3(West)), Shield: true},
		{Kind: Field, Spans: spans(side3(East), side3(South)), AdjacentCities: []int{0}},
	}}

	cornerCityCurveRoad = &Tile{Name: "corner_city_curve_road", Segments: []Segment{
		{Kind: City, Spans: spans(side3(North), side3(West))},
		{Kind: Road, Spans: spans(one(East, SpanCenter), one(South, SpanCenter))},
		{Kind: Field, Spans: spans(one(East, SpanLeft), one(South, SpanRight)), AdjacentCities: []int{0}},
		{Kind: Field, Spans: spans(one(East, SpanRight), one(South, SpanLeft))},
	}}

	opposingEdgeCities = &Tile{Name: "opposing_edge_cities", Segments: []Segment{
		{Kind: City, Spans: side3(North)},
		{Kind: City, Spans: side3(South)},
		{Kind: Field, Spans: spans(side3(East), side3(West)), AdjacentCities: []int{0, 1}},
	}}

	adjacentEdgeCities = &Tile{Name: "adjacent_edge_cities", Segments: []Segment{
		{Kind: City, Spans: side3(North)},
		{Kind: City, Spans: side3(East)},
		{Kind: Field, Spans: spans(side3(South), side3(West)), AdjacentCities: []int{0, 1}},
	}}

	bridgeCity = &Tile{Name: "bridge_city", Segments: []Segment{
		{Kind: City, Spans: spans(side3(West), side3(East))},
		{Kind: Field, Spans: side3(North), AdjacentCities: []int{0}},
		{Kind: Field, Spans: side3(South), AdjacentCities: []int{0}},
	}}

	cityEntrance = &Tile{Name: "city_entrance", Segments: []Segment{
		{Kind: City, Spans: side3(North)},
		{Kind: Road, Spans: one(South, SpanCenter)},
		{Kind: Field, Spans: spans(side3(West), one(South, SpanRight)), AdjacentCities: []int{0}},
		{Kind: Field, Spans: spans(side3(East), one(South, SpanLeft)), AdjacentCities: []int{0}},
	}}

	threeQuarterCity = &Tile{Name: "three_quarter_city", Segments: []Segment{
		{Kind: City, Spans: spans(side3(West), side3(North), side3(East))},
		{Kind: Field, Spans: side3(South), AdjacentCities: []int{0}},
	}}

	fortifiedThreeQuarterCity = &Tile{Name: "fortified_three_quarter_city", Segments: []Segment{
		{Kind: City, Spans: spans(side3(West), side3(North), side3(East)), Shield: true},
		{Kind: Field, Spans: side3(South), AdjacentCities: []int{0}},
	}}

	threeQuarterCityEntrance = &Tile{Name: "three_quarter_city_entrance", Segments: []Segment{
		{Kind: City, Spans: spans(side3(West), side3(North), side3(East))},
		{Kind: Road, Spans: one(South, SpanCenter)},
		{Kind: Field, Spans: one(South, SpanRight), AdjacentCities: []int{0}},
		{Kind: Field, Spans: one(South, SpanLeft), AdjacentCities: []int{0}},
	}}

	fortifiedThreeQuarterCityEntrance = &Tile{Name: "fortified_three_quarter_city_entrance", Segments: []Segment{
		{Kind: City, Spans: spans(side3(West), side3(North), side3(East)), Shield: true},
		{Kind: Road, Spans: one(South, SpanCenter)},
		{Kind: Field, Spans: one(South, SpanRight), AdjacentCities: []int{0}},
		{Kind: Field, Spans: one(South, SpanLeft), AdjacentCities: []int{0}},
	}}

	fullCity = &Tile{Name: "full_city", Segments: []Segment{
		{Kind: City, Spans: spans(side3(North), side3(East), side3(South), side3(West)), Shield: true},
	}}
)

var tileCatalog = map[string]*Tile{}

// baseSetCounts is the draw-pile multiplicity per template. The starting
// tile's count excludes the copy pre-placed at the origin.
var baseSetCounts = map[string]int{
	StartingTileName:                        3,
	"straight_road":                         8,
	"curve_road":                            9,
	"dead_end_road":                         1,
	"t_crossroads":                          4,
	"four_way_crossroads":                   1,
	"monastery":                             4,
	"road_monastery":                        2,
	"edge_city":                             5,
	"corner_city":                           3,
	"fortified_corner_city":                 2,
	"corner_city_curve_road":                3,
	"opposing_edge_cities":                  3,
	"adjacent_edge_cities":                  2,
	"bridge_city":                           3,
	"city_entrance":                         3,
	"three_quarter_city":                    3,
	"fortified_three_quarter_city":          1,
	"three_quarter_city_entrance":           1,
	"fortified_three_quarter_city_entrance": 2,
	"full_city":                             1,
}

func init() {
	for _, t := range []*Tile{
		startingTile, straightRoad, curveRoad, deadEndRoad, tCrossroads,
		fourWayCrossroads, monastery, roadMonastery, edgeCity, cornerCity,
		fortifiedCornerCity, cornerCityCurveRoad, opposingEdgeCities,
		adjacentEdgeCities, bridgeCity, cityEntrance, threeQuarterCity,
		fortifiedThreeQuarterCity, threeQuarterCityEntrance,
		fortifiedThreeQuarterCityEntrance, fullCity,
	} {
		tileCatalog[t.Name] = t
	}
}

// TileByName returns the catalog template with the given name.
func TileByName(name string) (*Tile, bool) {
	t, ok := tileCatalog[name]
	return t, ok
}

// CatalogNames returns all template names, sorted.
func CatalogNames() []string {
	names := make([]string, 0, len(tileCatalog))
	for name := range tileCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
