package warehouse

import (
	"encoding/binary"

	"github.com/brentp/intintmap"
	"github.com/cespare/xxhash/v2"

	"github.com/hivesim/warehouse/action"
)

// CellKind identifies the static nature of a cell. A cell's kind never
// changes after construction; what can change at runtime is which agent and
// which facility (for rack/gate/station cells) currently occupy it.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellObstacle
	CellRack
	CellGate
	CellStation
)

// Cell is a single grid square. At most one agent and one facility may
// occupy a cell at any time; a facility reference is only ever non-zero
// for rack/gate/station cells.
type Cell struct {
	Kind CellKind

	agentID     AgentID
	hasAgent    bool
	facilityID  FacilityID
	hasFacility bool
	locked      bool

	// timeline is an advisory schedule of which agent is expected to occupy
	// this cell at a future tick. It does not gate execution; the movement
	// coordinator resolves conflicts live.
	timeline map[uint64]AgentID
}

// Agent returns the id of the agent occupying the cell, if any.
func (c *Cell) Agent() (AgentID, bool) { return c.agentID, c.hasAgent }

// SetAgent sets or clears the occupying agent.
func (c *Cell) SetAgent(id AgentID, ok bool) {
	c.agentID, c.hasAgent = id, ok
}

// Facility returns the id of the facility placed on the cell, if any.
func (c *Cell) Facility() (FacilityID, bool) { return c.facilityID, c.hasFacility }

// setFacility is only called during grid construction; facility placement is
// static for the life of a warehouse.
func (c *Cell) setFacility(id FacilityID) {
	c.facilityID, c.hasFacility = id, true
}

// Lock marks the cell as impassable regardless of obstacle status. Used by
// Agent.deactivate to freeze the cell a deactivated agent sits on.
func (c *Cell) Lock() { c.locked = true }

// Unlock clears a previously set lock.
func (c *Cell) Unlock() { c.locked = false }

// Locked reports whether the cell is currently locked.
func (c *Cell) Locked() bool { return c.locked }

// IsBlocked reports whether the cell cannot be entered: it is an obstacle or
// currently locked.
func (c *Cell) IsBlocked() bool { return c.Kind == CellObstacle || c.locked }

// IsEmpty reports whether the cell carries neither a facility nor an agent.
func (c *Cell) IsEmpty() bool { return c.Kind == CellEmpty && !c.hasAgent }

// ScheduleAt records that agent id is expected to occupy the cell at the
// given future tick. Advisory only.
func (c *Cell) ScheduleAt(tick uint64, id AgentID) {
	if c.timeline == nil {
		c.timeline = make(map[uint64]AgentID)
	}
	c.timeline[tick] = id
}

// ScheduledAt returns the agent expected to occupy the cell at tick, if any.
func (c *Cell) ScheduledAt(tick uint64) (AgentID, bool) {
	id, ok := c.timeline[tick]
	return id, ok
}

// ClearSchedule drops every advisory reservation held for the cell. Nothing
// in the package calls it.
func (c *Cell) ClearSchedule() {
	clear(c.timeline)
}

// Grid is the fixed-size 2D map of cells shared by every agent in the
// warehouse. Facility placement and obstacle layout never change after
// construction; only per-cell agent occupancy and lock state do.
type Grid struct {
	Height, Width int
	cells         [][]Cell

	// facilityIndex maps row*Width+col -> facility id for O(1) lookups through
	// FacilityAt, which the planner's breadth-first search calls for the
	// cells it expands. A specialised int->int map
	// (github.com/brentp/intintmap) avoids Go map overhead on that path. The
	// dispatcher does not read it; it iterates the warehouse's facility map.
	facilityIndex *intintmap.Map
}

// NewGrid allocates an empty height x width grid. Cells default to CellEmpty.
func NewGrid(height, width int) *Grid {
	cells := make([][]Cell, height)
	for r := range cells {
		cells[r] = make([]Cell, width)
	}
	return &Grid{
		Height:        height,
		Width:         width,
		cells:         cells,
		facilityIndex: intintmap.New(64, 0.6),
	}
}

// InBounds reports whether (row, col) lies within the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Height && col >= 0 && col < g.Width
}

// At returns the cell at (row, col). Callers must check InBounds first;
// At panics on an out-of-range position, treating it as programmer error.
func (g *Grid) At(row, col int) *Cell {
	return &g.cells[row][col]
}

// index computes the flattened facility-index key for (row, col).
func (g *Grid) index(row, col int) int64 {
	return int64(row*g.Width + col)
}

// PlaceObstacle marks (row, col) as an obstacle.
func (g *Grid) PlaceObstacle(row, col int) {
	g.cells[row][col].Kind = CellObstacle
}

// PlaceFacility marks (row, col) as hosting the facility kind/id, and
// records it in the facility index.
func (g *Grid) PlaceFacility(row, col int, kind CellKind, id FacilityID) {
	c := &g.cells[row][col]
	c.Kind = kind
	c.setFacility(id)
	g.facilityIndex.Put(g.index(row, col), int64(id))
}

// FacilityAt returns the facility id placed at (row, col), if any.
func (g *Grid) FacilityAt(row, col int) (FacilityID, bool) {
	v, ok := g.facilityIndex.Get(g.index(row, col))
	if !ok {
		return 0, false
	}
	return FacilityID(v), true
}

// Fingerprint returns a fast non-cryptographic digest of the grid's static
// layout (dimensions, obstacle placement, and facility placement — not
// per-tick occupancy), so operators can confirm two warehouses were started
// from the same map without diffing the full config.
func (g *Grid) Fingerprint() uint64 {
	buf := make([]byte, 8, 8+g.Height*g.Width*9)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(g.Height))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(g.Width))
	var idBuf [8]byte
	for r := range g.cells {
		for c := range g.cells[r] {
			cell := &g.cells[r][c]
			buf = append(buf, byte(cell.Kind))
			id, _ := cell.Facility()
			binary.LittleEndian.PutUint64(idBuf[:], uint64(id))
			buf = append(buf, idBuf[:]...)
		}
	}
	return xxhash.Sum64(buf)
}

// Neighbours returns the (at most 4) poses reachable from p by a single
// MOVE, ROTATE_RIGHT, ROTATE_LEFT, or RETREAT. It returns the poses only,
// not the actions that produce them. The planner's breadth-first search
// does not call it; it expands poses itself.
func (g *Grid) Neighbours(p action.Pose) []action.Pose {
	out := make([]action.Pose, 0, 4)
	for _, k := range [...]action.Kind{action.Move, action.RotateRight, action.RotateLeft, action.Retreat} {
		next := p.Next(k)
		if k == action.Move && !g.InBounds(next.Row, next.Col) {
			continue
		}
		out = append(out, next)
	}
	return out
}
