package domain

// SegmentID addresses one segment of one placed tile.
type SegmentID struct {
	Pos   GridPos `json:"pos"`
	Index int     `json:"index"`
}

// GroupID identifies a segment group. Merges allocate fresh ids; ids of
// consumed groups are never reused.
type GroupID int

// SegmentGroup is a connected feature spanning one or more tiles.
type SegmentGroup struct {
	ID       GroupID
	Kind     FeatureKind
	Segments []SegmentID
	Meeples  []Meeple
	Closed   bool
	Scored   bool
}

// TilesSpanned counts the distinct tiles the group's segments sit on.
func (g *SegmentGroup) TilesSpanned() int {
	seen := map[GridPos]bool{}
	for _, sid := range g.Segments {
		seen[sid.Pos] = true
	}
	return len(seen)
}

type groupOpKind int

const (
	opCreate groupOpKind = iota
	opExtend
	opMerge
)

// groupOp is one reversible mutation of the group table.
type groupOp struct {
	kind     groupOpKind
	group    GroupID // created group, extended group, or merge result
	seg      SegmentID
	consumed []*SegmentGroup // merge only: the groups removed, intact
}

// PlacementEffect records everything one tile placement did to the group
// table, in execution order, so it can be reversed exactly.
type PlacementEffect struct {
	Pos    GridPos
	ops    []groupOp
	Closed []GroupID
}

// CreatedGroups returns the ids of groups that did not exist before the placement.
func (e *PlacementEffect) CreatedGroups() []GroupID {
	var out []GroupID
	for _, op := range e.ops {
		if op.kind == opCreate || op.kind == opMerge {
			out = append(out, op.group)
		}
	}
	return out
}

// MergedGroups returns, per merge, the ids of the groups consumed.
func (e *PlacementEffect) MergedGroups() [][]GroupID {
	var out [][]GroupID
	for _, op := range e.ops {
		if op.kind != opMerge {
			continue
		}
		ids := make([]GroupID, len(op.consumed))
		for i, c := range op.consumed {
			ids[i] = c.ID
		}
		out = append(out, ids)
	}
	return out
}

func (g *Game) newGroupID() GroupID {
	g.nextGroup++
	return g.nextGroup
}

// resolveGroup chases merge rewrites so ids captured before earlier merges
// of the same placement still point at a live group.
func resolveGroup(gid GroupID, rewrites map[GroupID]GroupID) GroupID {
	for {
		next, ok := rewrites[gid]
		if !ok {
			return gid
		}
		gid = next
	}
}

// placeTile commits an already-rotated tile and folds its segments into the
// group table. It does not consult the turn machine; callers guard phases.
func (g *Game) placeTile(name string, rotation int, tile *Tile, pos GridPos, requireNeighbor bool) (*PlacementEffect, error) {
	if err := g.Board.CanPlace(tile, pos, requireNeighbor); err != nil {
		return nil, err
	}

	// Neighbor groups per new segment, gathered before any mutation.
	insertions := make(map[int][]GroupID)
	for _, side := range Orientations {
		npos := pos.Neighbor(side)
		nb, ok := g.Board.At(npos)
		if !ok {
			continue
		}
		for s := SpanLeft; s <= SpanRight; s++ {
			segIdx, ok := tile.SegmentAt(side, s)
			if !ok {
				continue
			}
			nbIdx, ok := nb.Tile.SegmentAt(side.Opposite(), 2-s)
			if !ok {
				continue
			}
			gid := g.assoc[SegmentID{npos, nbIdx}]
			if !containsGroup(insertions[segIdx], gid) {
				insertions[segIdx] = append(insertions[segIdx], gid)
			}
		}
	}

	pt := &PlacedTile{Name: name, Rotation: rotation, Pos: pos, Tile: tile}
	g.Board.place(pt)

	effect := &PlacementEffect{Pos: pos}
	rewrites := make(map[GroupID]GroupID)
	for i := range tile.Segments {
		sid := SegmentID{pos, i}
		gids := dedupeResolved(insertions[i], rewrites)
		switch len(gids) {
		case 0:
			grp := &SegmentGroup{ID: g.newGroupID(), Kind: tile.Segments[i].Kind, Segments: []SegmentID{sid}}
			g.groups[grp.ID] = grp
			g.assoc[sid] = grp.ID
			effect.ops = append(effect.ops, groupOp{kind: opCreate, group: grp.ID, seg: sid})
		case 1:
			grp := g.groups[gids[0]]
			grp.Segments = append(grp.Segments, sid)
			g.assoc[sid] = grp.ID
			effect.ops = append(effect.ops, groupOp{kind: opExtend, group: grp.ID, seg: sid})
		default:
			merged := &SegmentGroup{ID: g.newGroupID(), Kind: tile.Segments[i].Kind}
			consumed := make([]*SegmentGroup, 0, len(gids))
			for _, gid := range gids {
				old := g.groups[gid]
				consumed = append(consumed, old)
				merged.Segments = append(merged.Segments, old.Segments...)
				merged.Meeples = append(merged.Meeples, old.Meeples...)
				delete(g.groups, gid)
				rewrites[gid] = merged.ID
			}
			merged.Segments = append(merged.Segments, sid)
			g.groups[merged.ID] = merged
			for _, msid := range merged.Segments {
				g.assoc[msid] = merged.ID
			}
			effect.ops = append(effect.ops, groupOp{kind: opMerge, group: merged.ID, seg: sid, consumed: consumed})
		}
	}

	// Closure can only touch groups holding a segment of the new tile, plus
	// cloisters within the 8-neighborhood.
	affected := map[GroupID]bool{}
	for i := range tile.Segments {
		affected[g.assoc[SegmentID{pos, i}]] = true
	}
	for _, q := range pos.Surrounding() {
		nb, ok := g.Board.At(q)
		if !ok {
			continue
		}
		for i, seg := range nb.Tile.Segments {
			if seg.Kind == Cloister {
				affected[g.assoc[SegmentID{q, i}]] = true
			}
		}
	}
	for gid := range affected {
		grp := g.groups[gid]
		if !grp.Closed && !g.groupOpen(grp) {
			grp.Closed = true
			effect.Closed = append(effect.Closed, gid)
		}
	}

	g.history = append(g.history, placementRecord{effect: effect, drawnName: g.drawnName})
	return effect, nil
}

func dedupeResolved(gids []GroupID, rewrites map[GroupID]GroupID) []GroupID {
	var out []GroupID
	for _, gid := range gids {
		r := resolveGroup(gid, rewrites)
		if !containsGroup(out, r) {
			out = append(out, r)
		}
	}
	return out
}

func containsGroup(gids []GroupID, gid GroupID) bool {
	for _, g := range gids {
		if g == gid {
			return true
		}
	}
	return false
}

// groupOpen reports whether any edge span of the group is uncovered. A
// cloister group is open until all eight surrounding cells are filled.
func (g *Game) groupOpen(grp *SegmentGroup) bool {
	for _, sid := range grp.Segments {
		pt, ok := g.Board.At(sid.Pos)
		if !ok {
			return true
		}
		seg := pt.Tile.Segments[sid.Index]
		if seg.Kind == Cloister {
			if g.Board.NeighborCount8(sid.Pos) < 8 {
				return true
			}
			continue
		}
		for _, es := range seg.Spans {
			if _, ok := g.Board.At(sid.Pos.Neighbor(es.Side)); !ok {
				return true
			}
		}
	}
	return false
}

type placementRecord struct {
	effect    *PlacementEffect
	drawnName string
}

// undoPlacement reverses the most recent placement: group table, association
// map and board, in reverse execution order.
func (g *Game) undoPlacement() error {
	if len(g.history) == 0 {
		return ErrNothingToUndo
	}
	rec := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	effect := rec.effect

	for _, gid := range effect.Closed {
		if grp, ok := g.groups[gid]; ok {
			grp.Closed = false
		}
	}
	for i := len(effect.ops) - 1; i >= 0; i-- {
		op := effect.ops[i]
		switch op.kind {
		case opCreate:
			delete(g.groups, op.group)
			delete(g.assoc, op.seg)
		case opExtend:
			grp := g.groups[op.group]
			for j, sid := range grp.Segments {
				if sid == op.seg {
					grp.Segments = append(grp.Segments[:j], grp.Segments[j+1:]...)
					break
				}
			}
			delete(g.assoc, op.seg)
		case opMerge:
			delete(g.groups, op.group)
			delete(g.assoc, op.seg)
			for _, old := range op.consumed {
				g.groups[old.ID] = old
				for _, sid := range old.Segments {
					g.assoc[sid] = old.ID
				}
			}
		}
	}
	g.Board.removeLast()
	g.drawnName = rec.drawnName
	return nil
}
