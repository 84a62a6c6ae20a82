package domain

import "fmt"

// PlacedTile is a tile committed to the board. Tile holds the rotated copy
// of the template named by Name.
type PlacedTile struct {
	Name     string
	Rotation int
	Pos      GridPos
	Tile     *Tile
}

// Board is the sparse grid of placed tiles. Placement order is retained so
// a game can be reconstructed by replay.
type Board struct {
	tiles map[GridPos]*PlacedTile
	order []GridPos
}

func NewBoard() *Board {
	return &Board{tiles: map[GridPos]*PlacedTile{}}
}

// At returns the tile at pos, if any.
func (b *Board) At(pos GridPos) (*PlacedTile, bool) {
	pt, ok := b.tiles[pos]
	return pt, ok
}

func (b *Board) Len() int { return len(b.tiles) }

// PlacedInOrder returns the placed tiles in placement order.
func (b *Board) PlacedInOrder() []*PlacedTile {
	out := make([]*PlacedTile, len(b.order))
	for i, pos := range b.order {
		out[i] = b.tiles[pos]
	}
	return out
}

// LastPlaced returns the most recently placed tile.
func (b *Board) LastPlaced() (*PlacedTile, bool) {
	if len(b.order) == 0 {
		return nil, false
	}
	return b.tiles[b.order[len(b.order)-1]], true
}

// CanPlace validates tile against pos. requireNeighbor is relaxed only for
// scripted boards and snapshot replay; edge matching always applies.
func (b *Board) CanPlace(tile *Tile, pos GridPos, requireNeighbor bool) error {
	if _, ok := b.tiles[pos]; ok {
		return fmt.Errorf("%w: cell %v occupied", ErrInvalidPlacement, pos)
	}
	neighbors := 0
	for _, side := range Orientations {
		nb, ok := b.tiles[pos.Neighbor(side)]
		if !ok {
			continue
		}
		neighbors++
		if !edgesCompatible(tile, side, nb.Tile) {
			return fmt.Errorf("%w: %s edge mismatch against %s", ErrInvalidPlacement, side, nb.Name)
		}
	}
	if requireNeighbor && len(b.tiles) > 0 && neighbors == 0 {
		return fmt.Errorf("%w: cell %v touches no placed tile", ErrInvalidPlacement, pos)
	}
	return nil
}

func (b *Board) place(pt *PlacedTile) {
	b.tiles[pt.Pos] = pt
	b.order = append(b.order, pt.Pos)
}

func (b *Board) removeLast() *PlacedTile {
	if len(b.order) == 0 {
		return nil
	}
	pos := b.order[len(b.order)-1]
	b.order = b.order[:len(b.order)-1]
	pt := b.tiles[pos]
	delete(b.tiles, pos)
	return pt
}

// NeighborCount8 counts placed tiles in the 8-neighborhood of pos.
func (b *Board) NeighborCount8(pos GridPos) int {
	n := 0
	for _, q := range pos.Surrounding() {
		if _, ok := b.tiles[q]; ok {
			n++
		}
	}
	return n
}

// Placement is a candidate position/rotation for a tile template.
type Placement struct {
	Pos      GridPos
	Rotation int
}

// frontier returns the empty cells orthogonally adjacent to placed tiles.
func (b *Board) frontier() []GridPos {
	seen := map[GridPos]bool{}
	var out []GridPos
	for pos := range b.tiles {
		for _, side := range Orientations {
			q := pos.Neighbor(side)
			if _, occupied := b.tiles[q]; occupied || seen[q] {
				continue
			}
			seen[q] = true
			out = append(out, q)
		}
	}
	return out
}

// ValidPlacements enumerates every legal position/rotation for a template.
// An empty board admits the origin at every rotation.
func (b *Board) ValidPlacements(template *Tile) []Placement {
	var out []Placement
	if len(b.tiles) == 0 {
		for r := 0; r < 4; r++ {
			out = append(out, Placement{GridPos{0, 0}, r})
		}
		return out
	}
	rotations := [4]*Tile{}
	rotations[0] = template
	for r := 1; r < 4; r++ {
		rotations[r] = rotations[r-1].Rotated()
	}
	for _, pos := range b.frontier() {
		for r := 0; r < 4; r++ {
			if b.CanPlace(rotations[r], pos, true) == nil {
				out = append(out, Placement{pos, r})
			}
		}
	}
	return out
}

// HasAnyPlacement reports whether the template fits anywhere on the board.
func (b *Board) HasAnyPlacement(template *Tile) bool {
	if len(b.tiles) == 0 {
		return true
	}
	rot := template
	for r := 0; r < 4; r++ {
		for _, pos := range b.frontier() {
			if b.CanPlace(rot, pos, true) == nil {
				return true
			}
		}
		rot = rot.Rotated()
	}
	return false
}
