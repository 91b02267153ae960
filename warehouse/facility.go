package warehouse

import "fmt"

// FacilityKind identifies what a facility is, mirroring Cell.Kind for the
// rack/gate/station triple.
type FacilityKind uint8

const (
	FacilityRack FacilityKind = iota
	FacilityGate
	FacilityStation
)

// Facility is the common shape of racks, gates and stations. A facility
// may be bound to at most one agent at a time (exclusive, execution-owned)
// and allocated to at most one agent at a time (dispatcher-owned,
// independent of binding).
type Facility struct {
	ID    FacilityID
	Kind  FacilityKind
	Row   int
	Col   int
	Label string

	bound     AgentID
	hasBound  bool
	allocated AgentID
	hasAlloc  bool

	// Rack-only fields. Zero/empty for gates and stations.
	Capacity      float64
	ContainerMass float64
	Stored        map[ItemID]int
	Reserved      map[ItemID]int
}

// NewRack constructs a rack facility with the given capacity (max stored
// weight) and empty-container weight.
func NewRack(id FacilityID, row, col int, capacity, containerMass float64) *Facility {
	return &Facility{
		ID: id, Kind: FacilityRack, Row: row, Col: col,
		Capacity: capacity, ContainerMass: containerMass,
		Stored:   make(map[ItemID]int),
		Reserved: make(map[ItemID]int),
	}
}

// NewGate constructs a gate facility.
func NewGate(id FacilityID, row, col int) *Facility {
	return &Facility{ID: id, Kind: FacilityGate, Row: row, Col: col}
}

// NewStation constructs a charging station facility.
func NewStation(id FacilityID, row, col int) *Facility {
	return &Facility{ID: id, Kind: FacilityStation, Row: row, Col: col}
}

// Bound returns the agent currently bound to the facility, if any.
func (f *Facility) Bound() (AgentID, bool) { return f.bound, f.hasBound }

// Allocated returns the agent the facility is currently allocated to by the
// dispatcher, if any.
func (f *Facility) Allocated() (AgentID, bool) { return f.allocated, f.hasAlloc }

// Allocate reserves the facility for agent at the dispatcher level. It does
// not move the agent or touch binding.
func (f *Facility) Allocate(agent AgentID) {
	f.allocated, f.hasAlloc = agent, true
}

// Deallocate releases the facility's dispatcher-level reservation.
func (f *Facility) Deallocate() {
	f.hasAlloc = false
}

// IsCoincident reports whether an agent at pose (row, col) is positioned
// correctly to bind to the facility: racks require exact coincidence;
// gates and stations accept coincidence as well as 4-adjacency, since they
// are meant to be approached rather than straddled.
func (f *Facility) IsCoincident(row, col int) bool {
	if row == f.Row && col == f.Col {
		return true
	}
	if f.Kind == FacilityRack {
		return false
	}
	dr, dc := row-f.Row, col-f.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr+dc == 1
}

// CanBind reports whether agent may bind to the facility right now: a
// rack is bindable when agent is on the rack cell, has the rack allocated
// to it, and the rack is not bound to another agent.
func (f *Facility) CanBind(agentID AgentID, row, col int, hasActiveUnfulfilledOrder bool) bool {
	if f.hasBound && f.bound != agentID {
		return false
	}
	if !f.IsCoincident(row, col) {
		return false
	}
	switch f.Kind {
	case FacilityRack:
		alloc, ok := f.Allocated()
		return ok && alloc == agentID
	case FacilityGate:
		return hasActiveUnfulfilledOrder
	default:
		return true
	}
}

// Bind binds agent to the facility. Bind must only be called after CanBind
// has returned true for the same arguments; it does not re-check.
func (f *Facility) Bind(agentID AgentID) {
	f.bound, f.hasBound = agentID, true
}

// CanUnbind reports whether the facility may currently be released. Racks
// and stations may always unbind once bound; gates require their
// queue-of-orders-in-progress to have been drained by complete_active_order
// before release — the caller (Task) is responsible for only invoking
// Unbind once that is true, since the facility itself has no notion of
// order queues.
func (f *Facility) CanUnbind() bool { return f.hasBound }

// Unbind releases the facility's current binding.
func (f *Facility) Unbind() {
	f.hasBound = false
}

// StoredWeight returns the facility's current stored weight: the container's
// own mass plus Σ(quantity × unit weight) over its stored items.
func (f *Facility) StoredWeight(catalog *ItemCatalog) float64 {
	total := f.ContainerMass
	for id, qty := range f.Stored {
		if it, ok := catalog.Get(id); ok {
			total += float64(qty) * it.UnitWeight
		}
	}
	return total
}

// String implements fmt.Stringer for log fields.
func (f *Facility) String() string {
	kind := [...]string{"rack", "gate", "station"}[f.Kind]
	return fmt.Sprintf("%s#%d@(%d,%d)", kind, f.ID, f.Row, f.Col)
}
