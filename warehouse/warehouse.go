package warehouse

import (
	"context"
	"log/slog"

	"github.com/hivesim/warehouse/action"
)

// State is the warehouse's coarse run state.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSE"
	default:
		return "IDLE"
	}
}

// ActionEvent records one primitive action an agent performed on a given
// tick, the unit the per-tick UPDATE batch and the ACTION wire message are
// built from.
type ActionEvent struct {
	Tick   uint64
	Agent  AgentID
	Action action.Kind
}

// LogKind tags a LogEvent with one of the wire-stable log kinds a client may
// want to render distinctly; the zero value covers internal diagnostics that
// don't correspond to one of those (e.g. an invariant violation).
type LogKind string

const (
	LogTaskAssigned   LogKind = "task-assigned"
	LogTaskCompleted  LogKind = "task-completed"
	LogOrderFulfilled LogKind = "order-fulfilled"
	LogBatteryUpdated LogKind = "battery-updated"
)

// LogEvent is one structured log line also fanned out to attached listeners
// (e.g. an admin console), so a single log sink feeds both stderr and
// in-process consumers.
type LogEvent struct {
	Tick    uint64
	Kind    LogKind
	Level   slog.Level
	Message string
	Args    []any
}

// Stats is a small set of rolling fleet counters, reported verbatim as the
// UPDATE message's statistics field. Nothing in the core reads Stats back to
// make a decision; it exists purely for observer consumption.
type Stats struct {
	TicksRun        uint64
	OrdersFulfilled uint64
	TasksAssigned   uint64
	TasksCompleted  uint64
	ActionsEmitted  uint64
}

// UpdateEvent is the per-tick batch delivered as the wire UPDATE message:
// the new tick number, every action performed to reach it, every log line
// recorded during it, and a snapshot of the running fleet statistics.
type UpdateEvent struct {
	Tick    uint64
	Actions []ActionEvent
	Logs    []LogEvent
	Stats   Stats
}

// Warehouse is the simulation's root aggregate: the grid, every registry of
// domain entities, the planner and item catalog shared by all of them, and
// the bookkeeping the tick controller needs — stable ids plus side tables
// rather than a pointer graph.
type Warehouse struct {
	cfg Config
	log *slog.Logger

	grid    *Grid
	planner *Planner
	items   *ItemCatalog

	agents     map[AgentID]*Agent
	facilities map[FacilityID]*Facility
	orders     map[OrderID]*Order
	tasks      map[TaskID]*Task

	// priority gives each agent's tie-break rank: lower value wins. Agents
	// execute in strict priority order, ties broken by ascending id —
	// assigned at registration time in ascending id order so it can double
	// as that tie-break directly.
	priority map[AgentID]int

	idleAgents   map[AgentID]struct{}
	activeAgents map[AgentID]struct{}

	pendingOrders []OrderID

	time  uint64
	state State

	nextAgentID    uint64
	nextFacilityID uint64
	nextItemID     uint64
	nextOrderID    uint64
	nextTaskID     uint64

	pendingActions []ActionEvent
	pendingLogs    []LogEvent
	stats          Stats

	queue   chan inboundFn
	closing chan struct{}

	acksNeeded   int
	acksReceived int
	// ackedSessions tracks which sessions (by transport-assigned id) have
	// already acked the current tick, so a duplicate ACK_UPDATE from the
	// same session is rejected instead of over-satisfying the gate. Cleared
	// by ArmAckGate at the end of every tick.
	ackedSessions map[string]struct{}

	// sessionCounter reports how many transport sessions are currently
	// connected, used to arm the ACK gate at the end of each tick. Must be
	// set before Run starts; it is read only from the tick goroutine.
	sessionCounter func() int

	Actions *EventFeed[ActionEvent]
	Logs    *EventFeed[LogEvent]
	Updates *EventFeed[UpdateEvent]
}

// New constructs an empty Warehouse over a grid of the configured size.
func New(cfg Config) *Warehouse {
	grid := NewGrid(cfg.Grid.Height, cfg.Grid.Width)
	w := &Warehouse{
		cfg:           cfg,
		log:           cfg.NewLogger(),
		grid:          grid,
		planner:       NewPlanner(grid),
		items:         NewItemCatalog(),
		agents:        make(map[AgentID]*Agent),
		facilities:    make(map[FacilityID]*Facility),
		orders:        make(map[OrderID]*Order),
		tasks:         make(map[TaskID]*Task),
		priority:      make(map[AgentID]int),
		idleAgents:    make(map[AgentID]struct{}),
		activeAgents:  make(map[AgentID]struct{}),
		ackedSessions: make(map[string]struct{}),
		state:         StateIdle,
		queue:         make(chan inboundFn),
		closing:       make(chan struct{}),
		Actions:       NewEventFeed[ActionEvent](),
		Logs:          NewEventFeed[LogEvent](),
		Updates:       NewEventFeed[UpdateEvent](),
	}
	return w
}

// Grid returns the warehouse's grid.
func (w *Warehouse) Grid() *Grid { return w.grid }

// Time returns the current tick number.
func (w *Warehouse) Time() uint64 { return w.time }

// State returns the warehouse's current run state.
func (w *Warehouse) State() State { return w.state }

// Items returns the shared item catalog.
func (w *Warehouse) Items() *ItemCatalog { return w.items }

// Stats returns a snapshot of the running fleet counters.
func (w *Warehouse) Stats() Stats { return w.stats }

func (w *Warehouse) facility(id FacilityID) *Facility { return w.facilities[id] }
func (w *Warehouse) order(id OrderID) *Order           { return w.orders[id] }
func (w *Warehouse) agent(id AgentID) *Agent           { return w.agents[id] }
func (w *Warehouse) task(id TaskID) *Task              { return w.tasks[id] }

func (w *Warehouse) priorityOf(id AgentID) int {
	p, ok := w.priority[id]
	if !ok {
		return int(^uint(0) >> 1)
	}
	return p
}

// RegisterAgent adds an agent to the warehouse at the given pose and marks
// it idle. Agents must be registered in ascending desired-priority order;
// RegisterAgent assigns priority by registration order.
func (w *Warehouse) RegisterAgent(pose action.Pose, loadCapacity float64) *Agent {
	w.nextAgentID++
	id := AgentID(w.nextAgentID)
	a := NewAgent(id, pose, loadCapacity)
	w.agents[id] = a
	w.priority[id] = len(w.priority)
	w.idleAgents[id] = struct{}{}
	w.grid.At(pose.Row, pose.Col).SetAgent(id, true)
	return a
}

// RegisterRack adds a rack facility to the grid.
func (w *Warehouse) RegisterRack(row, col int, capacity, containerMass float64) *Facility {
	w.nextFacilityID++
	id := FacilityID(w.nextFacilityID)
	f := NewRack(id, row, col, capacity, containerMass)
	w.facilities[id] = f
	w.grid.PlaceFacility(row, col, CellRack, id)
	return f
}

// RegisterGate adds a gate facility to the grid.
func (w *Warehouse) RegisterGate(row, col int) *Facility {
	w.nextFacilityID++
	id := FacilityID(w.nextFacilityID)
	f := NewGate(id, row, col)
	w.facilities[id] = f
	w.grid.PlaceFacility(row, col, CellGate, id)
	return f
}

// RegisterStation adds a charging station facility to the grid.
func (w *Warehouse) RegisterStation(row, col int) *Facility {
	w.nextFacilityID++
	id := FacilityID(w.nextFacilityID)
	f := NewStation(id, row, col)
	w.facilities[id] = f
	w.grid.PlaceFacility(row, col, CellStation, id)
	return f
}

// RegisterItem adds an item kind to the catalog.
func (w *Warehouse) RegisterItem(unitWeight float64, totalUnits int) *Item {
	w.nextItemID++
	return w.items.Register(ItemID(w.nextItemID), unitWeight, totalUnits)
}

// EnqueueOrder registers a new order under id and places it on the pending
// queue. id is caller-supplied (the client's own ORDER message id) rather
// than minted here, so wire replies and later status queries can always
// correlate back to the order the client submitted.
func (w *Warehouse) EnqueueOrder(id OrderID, kind OrderKind, gate FacilityID, rack FacilityID, lines []ItemLine) *Order {
	if uint64(id) > w.nextOrderID {
		w.nextOrderID = uint64(id)
	}
	o := NewOrder(id, kind, gate, lines)
	o.Rack = rack
	w.orders[id] = o
	w.pendingOrders = append(w.pendingOrders, id)
	if kind == OrderCollect {
		for _, l := range lines {
			w.items.Reserve(l.Item, l.Qty)
		}
	}
	return o
}

func (w *Warehouse) newTaskID() TaskID {
	w.nextTaskID++
	return TaskID(w.nextTaskID)
}

func (w *Warehouse) moveAgentToIdle(id AgentID) {
	delete(w.activeAgents, id)
	w.idleAgents[id] = struct{}{}
}

func (w *Warehouse) moveAgentToActive(id AgentID) {
	delete(w.idleAgents, id)
	w.activeAgents[id] = struct{}{}
}

func (w *Warehouse) emitAction(id AgentID, k action.Kind) {
	evt := ActionEvent{Tick: w.time, Agent: id, Action: k}
	w.pendingActions = append(w.pendingActions, evt)
	w.stats.ActionsEmitted++
	w.Actions.Emit(evt)
}

func (w *Warehouse) clearAgentSchedule(id AgentID) {
	// A no-op: nothing in the package writes per-cell timelines
	// (Grid.ScheduleAt has no callers), so an agent has no schedule to
	// clear beyond its own plan, which the caller already drops.
	_ = id
}

// recordLog logs at level through the configured slog.Logger, fans the event
// out on the Logs feed for in-process subscribers, and appends it to the
// current tick's pending batch so it rides the next UPDATE message.
func (w *Warehouse) recordLog(kind LogKind, level slog.Level, msg string, kv ...any) {
	w.log.Log(context.Background(), level, msg, kv...)
	evt := LogEvent{Tick: w.time, Kind: kind, Level: level, Message: msg, Args: kv}
	w.pendingLogs = append(w.pendingLogs, evt)
	w.Logs.Emit(evt)
}

// invariantViolation logs a domain-invariant violation at Warn level; the
// caller decides how to recover, typically by blocking the offending
// agent's in-flight action.
func (w *Warehouse) invariantViolation(msg string, kv ...any) {
	w.recordLog("", slog.LevelWarn, msg, kv...)
}

func (w *Warehouse) logOrderFulfilled(id OrderID) {
	w.stats.OrdersFulfilled++
	w.recordLog(LogOrderFulfilled, slog.LevelInfo, "order fulfilled", "order", id)
}

func (w *Warehouse) logTaskCompleted(id TaskID) {
	w.stats.TasksCompleted++
	w.recordLog(LogTaskCompleted, slog.LevelInfo, "task completed", "task", id)
}

func (w *Warehouse) logTaskAssigned(id TaskID, agent AgentID, rack FacilityID) {
	w.stats.TasksAssigned++
	w.recordLog(LogTaskAssigned, slog.LevelInfo, "task assigned", "task", id, "agent", agent, "rack", rack)
}

func (w *Warehouse) logBatteryUpdated(id AgentID, level float64) {
	w.recordLog(LogBatteryUpdated, slog.LevelInfo, "battery updated", "agent", id, "battery", level)
}

// SetSessionCounter registers the callback used to size the ACK gate after
// each tick. Must be called before Run starts.
func (w *Warehouse) SetSessionCounter(fn func() int) {
	w.sessionCounter = fn
}

// Control applies an operator-issued activate/deactivate command to the
// named agent. Only valid while RUNNING.
func (w *Warehouse) Control(id AgentID, activate bool) *Error {
	if w.state != StateRunning {
		return NewError(CodeInvalidArgs, id, "state")
	}
	a := w.agent(id)
	if a == nil {
		return NewError(CodeInvalidArgs, id, "agent")
	}
	if activate {
		a.activate(w)
	} else {
		a.deactivate(w)
	}
	return nil
}
