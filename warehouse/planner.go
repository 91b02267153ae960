package warehouse

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/hivesim/warehouse/action"
)

// planKey is the plan cache's lookup key: the facility being planned for,
// plus the exact starting pose. Re-planning from the same pose towards the
// same facility always yields the same route since the static grid layout
// never changes after construction.
type planKey struct {
	facility FacilityID
	pose     action.Pose
}

// hash returns a 64-bit digest of the key suitable for the plan cache, via
// cespare/xxhash/v2 — a fast non-cryptographic hash well suited to a cheap
// dedup key over a small fixed-width struct.
func (k planKey) hash() uint64 {
	var buf [20]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(k.facility))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(k.pose.Row))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(k.pose.Col))
	buf[16] = byte(k.pose.Dir)
	return xxhash.Sum64(buf[:17])
}

// planEntry is one memoized route: a deque of primitive actions, cached by
// first-search so repeated reach() calls towards a busy gate don't re-run
// BFS every tick.
type planEntry struct {
	key  planKey
	plan []action.Kind
}

// Planner computes shortest action sequences over the static grid and
// memoizes them.
type Planner struct {
	grid  *Grid
	cache map[uint64]planEntry
}

// NewPlanner constructs a planner bound to the given grid.
func NewPlanner(grid *Grid) *Planner {
	return &Planner{grid: grid, cache: make(map[uint64]planEntry)}
}

// bfsNode is one entry of the breadth-first search frontier.
type bfsNode struct {
	pose action.Pose
	prev int
	via  action.Kind
}

// search runs breadth-first search from start to any pose coincident with
// dst, returning the shortest sequence of primitive actions. It returns the
// full node trail so the caller can both reconstruct the plan and report
// partial distances.
func (p *Planner) search(start action.Pose, dst *Facility) ([]bfsNode, int, bool) {
	type key struct {
		row, col int
		dir      action.Dir
	}
	visited := map[key]int{{start.Row, start.Col, start.Dir}: 0}
	nodes := []bfsNode{{pose: start, prev: -1}}
	queue := []int{0}

	if dst.IsCoincident(start.Row, start.Col) {
		return nodes, 0, true
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		cur := nodes[idx]

		for _, k := range [...]action.Kind{action.Move, action.RotateRight, action.RotateLeft, action.Retreat} {
			next := cur.pose.Next(k)
			if k == action.Move {
				if !p.grid.InBounds(next.Row, next.Col) {
					continue
				}
				cell := p.grid.At(next.Row, next.Col)
				if cell.Kind == CellObstacle || cell.Locked() {
					continue
				}
				if fid, ok := p.grid.FacilityAt(next.Row, next.Col); ok && fid != dst.ID {
					continue
				}
			}
			nk := key{next.Row, next.Col, next.Dir}
			if _, seen := visited[nk]; seen {
				continue
			}
			visited[nk] = len(nodes)
			nodes = append(nodes, bfsNode{pose: next, prev: idx, via: k})
			if dst.IsCoincident(next.Row, next.Col) {
				return nodes, len(nodes) - 1, true
			}
			queue = append(queue, len(nodes)-1)
		}
	}
	return nodes, 0, false
}

// reconstruct walks a bfsNode trail backwards from goalIdx to build the
// ordered action plan.
func reconstruct(nodes []bfsNode, goalIdx int) []action.Kind {
	var rev []action.Kind
	for i := goalIdx; nodes[i].prev != -1; i = nodes[i].prev {
		rev = append(rev, nodes[i].via)
	}
	plan := make([]action.Kind, len(rev))
	for i, k := range rev {
		plan[len(rev)-1-i] = k
	}
	return plan
}

// Plan returns the shortest primitive-action sequence from start to a pose
// coincident with dst, using the memoized cache when available.
func (p *Planner) Plan(w *Warehouse, start action.Pose, dst *Facility) ([]action.Kind, bool) {
	key := planKey{facility: dst.ID, pose: start}
	h := key.hash()
	if entry, ok := p.cache[h]; ok && entry.key == key {
		out := make([]action.Kind, len(entry.plan))
		copy(out, entry.plan)
		return out, true
	}

	nodes, goalIdx, ok := p.search(start, dst)
	if !ok {
		return nil, false
	}
	plan := reconstruct(nodes, goalIdx)
	p.cache[h] = planEntry{key: key, plan: plan}

	out := make([]action.Kind, len(plan))
	copy(out, plan)
	return out, true
}

// Distance returns the number of primitive actions required to reach dst
// from start: the length of the plan Plan returns, so it shares Plan's
// cache and a later Plan call for the same key is served from it.
func (p *Planner) Distance(w *Warehouse, start action.Pose, dst *Facility) (int, bool) {
	plan, ok := p.Plan(w, start, dst)
	if !ok {
		return 0, false
	}
	return len(plan), true
}

// invalidate drops every cached plan. Called whenever a cell's locked state
// changes (Agent.deactivate/activate), since that is the only thing that
// can change plan feasibility within a run.
func (p *Planner) invalidate() {
	clear(p.cache)
}
