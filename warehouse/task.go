package warehouse

import "github.com/hivesim/warehouse/action"

// StepKind identifies one entry of a task's step deque.
type StepKind uint8

const (
	StepSelectGate StepKind = iota
	StepBind
	StepUnbind
)

// Step is one (kind, facility) entry of a task's deque. Facility is unused
// (zero) for StepSelectGate.
type Step struct {
	Kind     StepKind
	Facility FacilityID
}

// TaskStatus mirrors OrderStatus for a task's own lifecycle.
type TaskStatus uint8

const (
	TaskInactive TaskStatus = iota
	TaskActive
	TaskFulfilled
)

// Task couples one agent with one rack for a lifetime that spans load ->
// one or more gate deliveries -> offload. A task may accumulate multiple
// compatible orders (same rack, same or different gate).
type Task struct {
	ID       TaskID
	Agent    AgentID
	Rack     FacilityID
	Status   TaskStatus
	Priority int

	steps []Step

	// gateQueues holds, per gate facility, the FIFO of orders this task will
	// deliver there.
	gateQueues map[FacilityID][]OrderID
	// contribution records, per order, the item quantities this task's rack
	// will contribute towards that order — fixed at the moment the order was
	// folded into the task, so later rack-state changes cannot alter what
	// was already promised and reserved.
	contribution map[OrderID]map[ItemID]int

	runningOrders int
}

// NewTask constructs a fresh task for agent over rack, with the initial
// step sequence [(BIND, rack), (SELECT_GATE, —), (UNBIND, rack)].
func NewTask(id TaskID, agent AgentID, rack FacilityID, priority int) *Task {
	return &Task{
		ID: id, Agent: agent, Rack: rack, Status: TaskInactive, Priority: priority,
		steps: []Step{
			{Kind: StepBind, Facility: rack},
			{Kind: StepSelectGate},
			{Kind: StepUnbind, Facility: rack},
		},
		gateQueues:   make(map[FacilityID][]OrderID),
		contribution: make(map[OrderID]map[ItemID]int),
	}
}

// Activate transitions the task to active, called once the dispatcher has
// bound it to an agent and rack.
func (t *Task) Activate() { t.Status = TaskActive }

// AddOrder folds order into the task, to be delivered at gate with the given
// item contribution. The task's first order is served by the
// (SELECT_GATE, —) step NewTask already placed; every later order inserts
// another (SELECT_GATE, —) step ahead of any trailing UNBIND step, so the
// task visits the new gate before finally returning the rack.
func (t *Task) AddOrder(order *Order, gate FacilityID, contribution map[ItemID]int) {
	first := len(t.gateQueues) == 0
	t.gateQueues[gate] = append(t.gateQueues[gate], order.ID)
	t.contribution[order.ID] = contribution
	t.runningOrders++
	order.AttachTask(t.ID)

	if first {
		return
	}
	if n := len(t.steps); n > 0 && t.steps[n-1].Kind == StepUnbind {
		t.steps = append(t.steps[:n-1], append([]Step{{Kind: StepSelectGate}}, t.steps[n-1:]...)...)
		return
	}
	t.steps = append(t.steps, Step{Kind: StepSelectGate})
}

// RunningOrders returns the number of order-task links this task still
// carries.
func (t *Task) RunningOrders() int { return t.runningOrders }

// Done reports whether the task's step deque is empty.
func (t *Task) Done() bool { return len(t.steps) == 0 }

// pendingGates returns the set of gates this task still owes a delivery to,
// used by SELECT_GATE resolution.
func (t *Task) pendingGates() []FacilityID {
	gates := make([]FacilityID, 0, len(t.gateQueues))
	for g, q := range t.gateQueues {
		if len(q) > 0 {
			gates = append(gates, g)
		}
	}
	return gates
}

// Execute runs one step of the task's state machine for the current tick:
// it completes the front step of the deque when the agent can, otherwise
// moves the agent one action towards that step's facility, and terminates
// the task once the deque is empty.
func (t *Task) Execute(w *Warehouse, agent *Agent) {
	if len(t.steps) == 0 {
		t.terminate(w)
		return
	}

	if t.steps[0].Kind == StepSelectGate {
		gate, ok := t.resolveSelectGate(w, agent)
		if !ok {
			// No gate has a queued order left: an earlier gate visit already
			// delivered them all (orders sharing a gate are served in one
			// visit), so this SELECT_GATE step is dropped.
			t.steps = t.steps[1:]
			if len(t.steps) == 0 {
				t.terminate(w)
			}
			return
		}
		t.steps[0] = Step{Kind: StepBind, Facility: gate}
	}

	step := t.steps[0]
	f := w.facility(step.Facility)
	if f == nil {
		w.invariantViolation("task references missing facility", "task", t.ID, "facility", step.Facility)
		agent.block(w)
		return
	}

	switch step.Kind {
	case StepBind:
		unfulfilled := f.Kind == FacilityGate && len(t.gateQueues[f.ID]) > 0
		if f.CanBind(agent.ID, agent.Pose.Row, agent.Pose.Col, unfulfilled) {
			t.steps = t.steps[1:]
			f.Bind(agent.ID)
			agent.setLastAction(w, action.Bind)
			if f.Kind == FacilityRack {
				agent.Loaded = true
			}
			if f.Kind == FacilityGate {
				t.completeActiveOrder(w, f)
			}
		} else {
			agent.reach(w, f)
		}
	case StepUnbind:
		if f.CanUnbind() {
			t.steps = t.steps[1:]
			f.Unbind()
			if f.Kind == FacilityRack {
				agent.Loaded = false
			}
			agent.setLastAction(w, action.Unbind)
		} else {
			agent.reach(w, f)
		}
	}

	if len(t.steps) == 0 {
		t.terminate(w)
	}
}

// resolveSelectGate picks the nearest gate among pending orders' gates, by
// planner distance from the agent's current pose.
func (t *Task) resolveSelectGate(w *Warehouse, agent *Agent) (FacilityID, bool) {
	gates := t.pendingGates()
	if len(gates) == 0 {
		return 0, false
	}
	best := gates[0]
	bestDist := -1
	for _, g := range gates {
		f := w.facility(g)
		if f == nil {
			continue
		}
		d, ok := w.planner.Distance(w, agent.Pose, f)
		if !ok {
			continue
		}
		if bestDist < 0 || d < bestDist {
			bestDist, best = d, g
		}
	}
	return best, true
}

// completeActiveOrder pops an order from gate's queue, applies its delivery
// effects, and enqueues the next step: another (BIND, gate) if the gate's
// queue still has orders, or (UNBIND, gate) otherwise.
func (t *Task) completeActiveOrder(w *Warehouse, gate *Facility) {
	queue := t.gateQueues[gate.ID]
	if len(queue) == 0 {
		return
	}
	orderID := queue[0]
	t.gateQueues[gate.ID] = queue[1:]

	order := w.order(orderID)
	rack := w.facility(t.Rack)
	if order != nil && rack != nil {
		for item, qty := range t.contribution[orderID] {
			switch order.Kind {
			case OrderCollect:
				rack.Stored[item] -= qty
				if rack.Stored[item] <= 0 {
					delete(rack.Stored, item)
				}
				rack.Reserved[item] -= qty
				if rack.Reserved[item] <= 0 {
					delete(rack.Reserved, item)
				}
				w.items.Release(item, qty)
				w.items.AddTotal(item, -qty)
				order.Complete(item, qty)
			case OrderRefill:
				rack.Stored[item] += qty
				w.items.AddTotal(item, qty)
				order.Complete(item, qty)
			}
		}
		delete(t.contribution, orderID)
	}
	t.runningOrders--
	if order != nil {
		order.DetachTask(t.ID)
		if order.TotalPending() == 0 {
			order.Fulfil()
			w.logOrderFulfilled(order.ID)
		}
	}

	if len(t.gateQueues[gate.ID]) > 0 {
		t.steps = append([]Step{{Kind: StepBind, Facility: gate.ID}}, t.steps...)
	} else {
		t.steps = append([]Step{{Kind: StepUnbind, Facility: gate.ID}}, t.steps...)
	}
}

// terminate finalizes the task: releases the rack's dispatcher-level
// allocation and clears the owning agent's task, returning it to idle.
func (t *Task) terminate(w *Warehouse) {
	if t.Status == TaskFulfilled {
		return
	}
	t.Status = TaskFulfilled
	if rack := w.facility(t.Rack); rack != nil {
		rack.Deallocate()
	}
	if agent := w.agent(t.Agent); agent != nil {
		agent.onTaskComplete(w)
	}
	w.logTaskCompleted(t.ID)
}
