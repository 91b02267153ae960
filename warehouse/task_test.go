package warehouse

import (
	"testing"

	"github.com/hivesim/warehouse/action"
)

func TestAddOrderInsertsSelectGateAheadOfUnbind(t *testing.T) {
	task := NewTask(1, 1, 1, 0)
	order := NewOrder(1, OrderCollect, 9, []ItemLine{{Item: 1, Qty: 2}})

	task.AddOrder(order, 9, map[ItemID]int{1: 2})

	if len(task.steps) != 3 {
		t.Fatalf("expected [BIND, SELECT_GATE, UNBIND], got %d steps", len(task.steps))
	}
	if task.steps[0].Kind != StepBind || task.steps[1].Kind != StepSelectGate || task.steps[2].Kind != StepUnbind {
		t.Fatalf("unexpected step order: %+v", task.steps)
	}
	if task.RunningOrders() != 1 {
		t.Fatalf("expected 1 running order, got %d", task.RunningOrders())
	}
}

func TestAddSecondOrderToDifferentGateInsertsAnotherSelectGate(t *testing.T) {
	task := NewTask(1, 1, 1, 0)
	o1 := NewOrder(1, OrderCollect, 9, []ItemLine{{Item: 1, Qty: 2}})
	o2 := NewOrder(2, OrderCollect, 10, []ItemLine{{Item: 1, Qty: 1}})

	task.AddOrder(o1, 9, map[ItemID]int{1: 2})
	// Simulate having already resolved the first SELECT_GATE into a BIND.
	task.steps[1] = Step{Kind: StepBind, Facility: 9}

	task.AddOrder(o2, 10, map[ItemID]int{1: 1})

	if len(task.steps) != 4 {
		t.Fatalf("expected 4 steps after folding a second gate, got %d: %+v", len(task.steps), task.steps)
	}
	last := task.steps[len(task.steps)-1]
	if last.Kind != StepUnbind {
		t.Fatalf("trailing step should remain UNBIND, got %+v", last)
	}
	secondToLast := task.steps[len(task.steps)-2]
	if secondToLast.Kind != StepSelectGate {
		t.Fatalf("new order should insert SELECT_GATE ahead of UNBIND, got %+v", secondToLast)
	}
}

func TestResolveSelectGatePicksNearestPendingGate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = 10, 1
	w := New(cfg)
	near := w.RegisterGate(2, 0)
	far := w.RegisterGate(8, 0)

	task := NewTask(1, 1, 1, 0)
	o1 := NewOrder(1, OrderCollect, far.ID, []ItemLine{{Item: 1, Qty: 1}})
	o2 := NewOrder(2, OrderCollect, near.ID, []ItemLine{{Item: 1, Qty: 1}})
	task.AddOrder(o1, far.ID, map[ItemID]int{1: 1})
	task.AddOrder(o2, near.ID, map[ItemID]int{1: 1})

	agent := NewAgent(1, action.Pose{Row: 0, Col: 0, Dir: action.South}, 10)
	gate, ok := task.resolveSelectGate(w, agent)
	if !ok {
		t.Fatal("expected a resolvable gate")
	}
	if gate != near.ID {
		t.Fatalf("expected nearest gate %d, got %d", near.ID, gate)
	}
}

func TestCompleteActiveOrderAppliesCollectEffectsAndFulfils(t *testing.T) {
	cfg := DefaultConfig()
	w := New(cfg)
	rack := w.RegisterRack(0, 0, 1000, 10)
	gate := w.RegisterGate(1, 0)
	w.RegisterItem(1, 5)
	rack.Stored[1] = 5
	rack.Reserved[1] = 3

	task := NewTask(1, 1, rack.ID, 0)
	o := NewOrder(1, OrderCollect, gate.ID, []ItemLine{{Item: 1, Qty: 3}})
	w.orders[o.ID] = o
	task.AddOrder(o, gate.ID, map[ItemID]int{1: 3})

	task.completeActiveOrder(w, gate)

	if rack.Stored[1] != 2 {
		t.Fatalf("expected 2 units left on rack, got %d", rack.Stored[1])
	}
	if _, ok := rack.Reserved[1]; ok {
		t.Fatal("reservation should be fully released once delivered")
	}
	if o.Status != OrderFulfilled {
		t.Fatalf("expected order fulfilled, got %v", o.Status)
	}
	if task.RunningOrders() != 0 {
		t.Fatalf("expected 0 running orders after completion, got %d", task.RunningOrders())
	}

	next := task.steps[0]
	if next.Kind != StepUnbind || next.Facility != gate.ID {
		t.Fatalf("expected next step to be UNBIND the gate, got %+v", next)
	}
}

func TestTerminateDeallocatesRackAndReturnsAgentIdle(t *testing.T) {
	cfg := DefaultConfig()
	w := New(cfg)
	rack := w.RegisterRack(0, 0, 1000, 10)
	agent := w.RegisterAgent(action.Pose{Row: 0, Col: 1, Dir: action.West}, 10)
	rack.Allocate(agent.ID)
	agent.AssignTask(5)
	w.moveAgentToActive(agent.ID)

	task := NewTask(5, agent.ID, rack.ID, 0)
	task.steps = nil
	task.terminate(w)

	if _, allocated := rack.Allocated(); allocated {
		t.Fatal("terminate should deallocate the rack")
	}
	if _, hasTask := agent.Task(); hasTask {
		t.Fatal("terminate should clear the agent's task")
	}
	if _, idle := w.idleAgents[agent.ID]; !idle {
		t.Fatal("terminate should return the agent to the idle set")
	}
}
