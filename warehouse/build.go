package warehouse

import (
	"sort"

	"github.com/hivesim/warehouse/action"
)

// ObjectKind mirrors the wire config's per-cell object-type enum.
type ObjectKind int

const (
	ObjectGate ObjectKind = iota
	ObjectAgent
	ObjectRack
	ObjectStation
	ObjectObstacle
)

// ItemSpec is one item-catalog entry as it appears in a START config.
type ItemSpec struct {
	ID     ItemID
	Weight float64
}

// ItemQty is one (item, quantity) pair attached to a rack object spec.
type ItemQty struct {
	Item     ItemID
	Quantity int
}

// ObjectSpec is one object placed at a cell in a START config's map.
type ObjectSpec struct {
	Row, Col      int
	Kind          ObjectKind
	ID            uint64
	LoadCapacity  float64
	Direction     int
	Capacity      float64
	ContainerMass float64
	Items         []ItemQty
}

// MapSpec is the full grid layout carried by a START config.
type MapSpec struct {
	Height, Width int
	Objects       []ObjectSpec
}

// BuildSpec is everything needed to (re)construct a Warehouse's grid and
// registries from a START message's config payload.
type BuildSpec struct {
	Map   MapSpec
	Items []ItemSpec
}

// Rebuild tears down the warehouse's grid and every registry and builds
// fresh ones from spec — the "build grid/entities" step of the START
// control message. It does not itself transition state; callers call Start
// once Rebuild succeeds. Client-supplied ids are preserved verbatim rather
// than reassigned, since orders and racks reference them directly.
func (w *Warehouse) Rebuild(spec BuildSpec) *Error {
	if spec.Map.Height <= 0 || spec.Map.Width <= 0 {
		return NewError(CodeInvalidArgs, nil, "map")
	}

	grid := NewGrid(spec.Map.Height, spec.Map.Width)
	w.grid = grid
	w.planner = NewPlanner(grid)
	w.items = NewItemCatalog()
	w.agents = make(map[AgentID]*Agent)
	w.facilities = make(map[FacilityID]*Facility)
	w.orders = make(map[OrderID]*Order)
	w.tasks = make(map[TaskID]*Task)
	w.priority = make(map[AgentID]int)
	w.idleAgents = make(map[AgentID]struct{})
	w.activeAgents = make(map[AgentID]struct{})
	w.pendingOrders = nil
	w.pendingActions = nil
	w.pendingLogs = nil
	w.stats = Stats{}
	w.nextAgentID, w.nextFacilityID = 0, 0
	w.nextItemID, w.nextOrderID, w.nextTaskID = 0, 0, 0
	w.time = 0

	for _, it := range spec.Items {
		w.items.Register(it.ID, it.Weight, 0)
		if uint64(it.ID) > w.nextItemID {
			w.nextItemID = uint64(it.ID)
		}
	}

	var agentSpecs []ObjectSpec
	for _, obj := range spec.Map.Objects {
		if !grid.InBounds(obj.Row, obj.Col) {
			return NewError(CodeInvalidArgs, nil, "row", obj.Row, "col", obj.Col)
		}
		switch obj.Kind {
		case ObjectObstacle:
			grid.PlaceObstacle(obj.Row, obj.Col)
		case ObjectRack:
			f := NewRack(FacilityID(obj.ID), obj.Row, obj.Col, obj.Capacity, obj.ContainerMass)
			for _, iq := range obj.Items {
				f.Stored[iq.Item] += iq.Quantity
				w.items.AddTotal(iq.Item, iq.Quantity)
			}
			w.facilities[f.ID] = f
			grid.PlaceFacility(obj.Row, obj.Col, CellRack, f.ID)
			if obj.ID > w.nextFacilityID {
				w.nextFacilityID = obj.ID
			}
		case ObjectGate:
			f := NewGate(FacilityID(obj.ID), obj.Row, obj.Col)
			w.facilities[f.ID] = f
			grid.PlaceFacility(obj.Row, obj.Col, CellGate, f.ID)
			if obj.ID > w.nextFacilityID {
				w.nextFacilityID = obj.ID
			}
		case ObjectStation:
			f := NewStation(FacilityID(obj.ID), obj.Row, obj.Col)
			w.facilities[f.ID] = f
			grid.PlaceFacility(obj.Row, obj.Col, CellStation, f.ID)
			if obj.ID > w.nextFacilityID {
				w.nextFacilityID = obj.ID
			}
		case ObjectAgent:
			agentSpecs = append(agentSpecs, obj)
		default:
			return NewError(CodeInvalidArgs, nil, "object_type", obj.Kind)
		}
	}

	// Agents are registered only after every facility is placed, so the
	// fixed grid layout the planner's BFS relies on is already complete by
	// the time any agent's starting cell occupancy is recorded. Priority is
	// assigned by ascending agent id, matching the ordering guarantee's
	// tie-break rule.
	sort.Slice(agentSpecs, func(i, j int) bool { return agentSpecs[i].ID < agentSpecs[j].ID })
	for _, obj := range agentSpecs {
		pose := action.Pose{Row: obj.Row, Col: obj.Col, Dir: action.Dir(obj.Direction)}
		a := NewAgent(AgentID(obj.ID), pose, obj.LoadCapacity)
		w.agents[a.ID] = a
		w.priority[a.ID] = len(w.priority)
		w.idleAgents[a.ID] = struct{}{}
		grid.At(obj.Row, obj.Col).SetAgent(a.ID, true)
		if obj.ID > w.nextAgentID {
			w.nextAgentID = obj.ID
		}
	}

	w.log.Info("grid rebuilt", "height", spec.Map.Height, "width", spec.Map.Width, "fingerprint", grid.Fingerprint())
	return nil
}
