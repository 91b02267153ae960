package warehouse

import (
	"testing"

	"github.com/hivesim/warehouse/action"
)

func TestDispatchFoldsSecondOrderIntoActiveTask(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = 5, 1
	w := New(cfg)

	rack := w.RegisterRack(2, 0, 1000, 10)
	gate := w.RegisterGate(4, 0)
	w.RegisterItem(1, 10)
	rack.Stored[1] = 10

	w.RegisterAgent(action.Pose{Row: 0, Col: 0, Dir: action.South}, 100)

	o1 := w.EnqueueOrder(1, OrderCollect, gate.ID, 0, []ItemLine{{Item: 1, Qty: 4}})
	if !w.tryDispatchOrder(o1) {
		t.Fatal("first order should dispatch onto the only idle agent")
	}
	if len(w.tasks) != 1 {
		t.Fatalf("expected exactly one task, got %d", len(w.tasks))
	}

	o2 := w.EnqueueOrder(2, OrderCollect, gate.ID, 0, []ItemLine{{Item: 1, Qty: 3}})
	if !w.tryDispatchOrder(o2) {
		t.Fatal("second compatible order should fold into the existing task")
	}
	if len(w.tasks) != 1 {
		t.Fatalf("folding should not create a second task, got %d tasks", len(w.tasks))
	}

	var task *Task
	for _, tk := range w.tasks {
		task = tk
	}
	if task.RunningOrders() != 2 {
		t.Fatalf("expected 2 running orders on the folded task, got %d", task.RunningOrders())
	}
	if rack.Reserved[1] != 7 {
		t.Fatalf("expected 7 reserved units across both orders, got %d", rack.Reserved[1])
	}
}

func TestEligibleAgentPicksClosestOnTie(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = 10, 1
	w := New(cfg)

	rack := w.RegisterRack(5, 0, 1000, 10)
	w.RegisterItem(1, 10)
	rack.Stored[1] = 10

	far := w.RegisterAgent(action.Pose{Row: 0, Col: 0, Dir: action.South}, 100)
	near := w.RegisterAgent(action.Pose{Row: 4, Col: 0, Dir: action.South}, 100)
	_ = far

	picked := w.eligibleAgent(rack)
	if picked == nil {
		t.Fatal("expected an eligible agent")
	}
	if picked.ID != near.ID {
		t.Fatalf("expected the closer agent %d to be picked, got %d", near.ID, picked.ID)
	}
}

func TestRefillOrderDispatchesToDesignatedRack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = 5, 1
	w := New(cfg)

	rack := w.RegisterRack(2, 0, 1000, 10)
	gate := w.RegisterGate(4, 0)
	w.RegisterItem(1, 0)
	w.RegisterAgent(action.Pose{Row: 0, Col: 0, Dir: action.South}, 100)

	order := w.EnqueueOrder(1, OrderRefill, gate.ID, rack.ID, []ItemLine{{Item: 1, Qty: 5}})
	if !w.tryDispatchOrder(order) {
		t.Fatal("refill order should dispatch against its designated rack")
	}
	if len(w.tasks) != 1 {
		t.Fatalf("expected exactly one task, got %d", len(w.tasks))
	}
}

func TestRefillOrderStaysPendingWhenRackFull(t *testing.T) {
	cfg := DefaultConfig()
	w := New(cfg)

	rack := w.RegisterRack(0, 0, 10, 9.5)
	gate := w.RegisterGate(1, 0)
	w.RegisterItem(1, 0)
	w.RegisterAgent(action.Pose{Row: 0, Col: 1, Dir: action.West}, 100)

	order := w.EnqueueOrder(1, OrderRefill, gate.ID, rack.ID, []ItemLine{{Item: 1, Qty: 100}})
	if w.tryDispatchOrder(order) {
		t.Fatal("refill exceeding rack capacity should not dispatch")
	}
}
