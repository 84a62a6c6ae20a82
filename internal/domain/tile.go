package domain

// FeatureKind classifies what a segment depicts.
type FeatureKind int

const (
	Field FeatureKind = iota
	Road
	City
	Cloister
)

func (k FeatureKind) String() string {
	switch k {
	case Field:
		return "field"
	case Road:
		return "road"
	case City:
		return "city"
	case Cloister:
		return "cloister"
	default:
		return "unknown"
	}
}

// Span indexes one of the three slots a tile side is divided into,
// ordered clockwise along the perimeter.
type Span int

const (
	SpanLeft Span = iota
	SpanCenter
	SpanRight
)

// EdgeSpan addresses a single span on a single side of a tile.
type EdgeSpan struct {
	Side Orientation
	Span Span
}

// Segment is one contiguous feature on a tile. A segment with no spans is
// internal (cloister). AdjacentCities lists same-tile city segment indices
// touched by a field segment, used for end-game field scoring.
type Segment struct {
	Kind           FeatureKind
	Spans          []EdgeSpan
	Shield         bool
	Inn            bool
	AdjacentCities []int
}

// Tile is an immutable tile template. Placed tiles hold rotated copies.
type Tile struct {
	Name     string
	Segments []Segment
}

// Rotated returns a copy of t rotated 90 degrees clockwise. Each claimed
// span moves to the next clockwise side; the span index is unchanged
// because spans run clockwise along the perimeter.
func (t *Tile) Rotated() *Tile {
	out := &Tile{Name: t.Name, Segments: make([]Segment, len(t.Segments))}
	for i, seg := range t.Segments {
		cp := seg
		cp.Spans = make([]EdgeSpan, len(seg.Spans))
		for j, es := range seg.Spans {
			cp.Spans[j] = EdgeSpan{Side: es.Side.Next(), Span: es.Span}
		}
		cp.AdjacentCities = append([]int(nil), seg.AdjacentCities...)
		out.Segments[i] = cp
	}
	return out
}

// RotatedTimes returns t rotated clockwise n quarter turns (n taken mod 4).
func (t *Tile) RotatedTimes(n int) *Tile {
	n = ((n % 4) + 4) % 4
	out := t
	for i := 0; i < n; i++ {
		out = out.Rotated()
	}
	return out
}

// SegmentAt returns the index of the segment claiming the given span.
func (t *Tile) SegmentAt(side Orientation, span Span) (int, bool) {
	for i, seg := range t.Segments {
		for _, es := range seg.Spans {
			if es.Side == side && es.Span == span {
				return i, true
			}
		}
	}
	return 0, false
}

// EdgeProfile returns the feature kinds along one side, in span order.
func (t *Tile) EdgeProfile(side Orientation) [3]FeatureKind {
	var out [3]FeatureKind
	for s := SpanLeft; s <= SpanRight; s++ {
		if i, ok := t.SegmentAt(side, s); ok {
			out[s] = t.Segments[i].Kind
		}
	}
	return out
}

// edgesCompatible reports whether b can sit on a's `side` neighbor cell.
// Abutting sides meet mirrored, so span i faces span 2-i.
func edgesCompatible(a *Tile, side Orientation, b *Tile) bool {
	pa := a.EdgeProfile(side)
	pb := b.EdgeProfile(side.Opposite())
	for i := 0; i < 3; i++ {
		if pa[i] != pb[2-i] {
			return false
		}
	}
	return true
}
