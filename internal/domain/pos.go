package domain

// GridPos is an integer board coordinate. X grows east, Y grows south.
type GridPos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the component-wise sum of two positions.
func (p GridPos) Add(q GridPos) GridPos {
	return GridPos{p.X + q.X, p.Y + q.Y}
}

// Neighbor returns the position adjacent to p in the given direction.
func (p GridPos) Neighbor(o Orientation) GridPos {
	return p.Add(o.Offset())
}

// Surrounding returns the eight positions around p, used for cloister closure.
func (p GridPos) Surrounding() [8]GridPos {
	return [8]GridPos{
		{p.X - 1, p.Y - 1}, {p.X, p.Y - 1}, {p.X + 1, p.Y - 1},
		{p.X - 1, p.Y}, {p.X + 1, p.Y},
		{p.X - 1, p.Y + 1}, {p.X, p.Y + 1}, {p.X + 1, p.Y + 1},
	}
}

// Orientation identifies one side of a tile.
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

// Orientations lists all four sides in clockwise order.
var Orientations = [4]Orientation{North, East, South, West}

// Offset returns the grid step towards the given side.
func (o Orientation) Offset() GridPos {
	switch o {
	case North:
		return GridPos{0, -1}
	case East:
		return GridPos{1, 0}
	case South:
		return GridPos{0, 1}
	default:
		return GridPos{-1, 0}
	}
}

// Opposite returns the side facing o across a tile boundary.
func (o Orientation) Opposite() Orientation {
	return (o + 2) % 4
}

// Next returns the side 90 degrees clockwise from o.
func (o Orientation) Next() Orientation {
	return (o + 1) % 4
}

func (o Orientation) String() string {
	switch o {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}
