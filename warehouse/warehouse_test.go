package warehouse

import (
	"testing"

	"github.com/hivesim/warehouse/action"
)

// buildSimpleWarehouse lays out a 5x1 corridor: agent at (0,0) facing south,
// a rack at (2,0) holding 5 units of item 1, and a gate at (4,0).
func buildSimpleWarehouse(t *testing.T) (*Warehouse, *Agent, *Facility, *Facility) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = 5, 1
	w := New(cfg)

	rack := w.RegisterRack(2, 0, 1000, 10)
	gate := w.RegisterGate(4, 0)
	w.RegisterItem(1, 5) // item id 1, total 5 units

	rack.Stored[1] = 5

	agent := w.RegisterAgent(action.Pose{Row: 0, Col: 0, Dir: action.South}, 100)
	return w, agent, rack, gate
}

func runUntil(t *testing.T, w *Warehouse, maxTicks int, done func() bool) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		if done() {
			return
		}
		w.runTick()
	}
	t.Fatalf("condition not met within %d ticks", maxTicks)
}

func TestCollectOrderEndToEnd(t *testing.T) {
	w, _, rack, gate := buildSimpleWarehouse(t)

	wErr := w.SubmitOrder(1, OrderCollect, gate.ID, 0, []ItemLine{{Item: 1, Qty: 5}})
	if wErr != nil {
		t.Fatalf("SubmitOrder failed: %v", wErr)
	}
	w.Start()

	runUntil(t, w, 200, func() bool {
		order := w.orders[1]
		return order != nil && order.Status == OrderFulfilled
	})

	if got := rack.Stored[1]; got != 0 {
		t.Fatalf("rack should be emptied, stored[1] = %d", got)
	}
	if it, _ := w.items.Get(1); it.TotalUnits() != 0 {
		t.Fatalf("collected units should leave the warehouse entirely, total = %d", it.TotalUnits())
	}
}

func TestSubmitOrderRejectsImpossibleCollect(t *testing.T) {
	w, _, _, gate := buildSimpleWarehouse(t)
	err := w.SubmitOrder(1, OrderCollect, gate.ID, 0, []ItemLine{{Item: 1, Qty: 999}})
	if err == nil {
		t.Fatal("expected an infeasibility error")
	}
	if err.Code != CodeOrderInfeasibleCollect {
		t.Fatalf("expected %s, got %s", CodeOrderInfeasibleCollect, err.Code)
	}
}

func TestSubmitOrderRejectsUnknownGate(t *testing.T) {
	w, _, _, _ := buildSimpleWarehouse(t)
	err := w.SubmitOrder(1, OrderCollect, 999, 0, []ItemLine{{Item: 1, Qty: 1}})
	if err == nil || err.Code != CodeInvalidArgs {
		t.Fatalf("expected CodeInvalidArgs, got %+v", err)
	}
}

func TestSubmitOrderRejectsOversizedRefill(t *testing.T) {
	w, _, rack, gate := buildSimpleWarehouse(t)
	err := w.SubmitOrder(1, OrderRefill, gate.ID, rack.ID, []ItemLine{{Item: 1, Qty: 100000}})
	if err == nil || err.Code != CodeOrderInfeasibleRefill {
		t.Fatalf("expected CodeOrderInfeasibleRefill, got %+v", err)
	}
}

func TestPriorityOrderingIsRegistrationOrder(t *testing.T) {
	cfg := DefaultConfig()
	w := New(cfg)
	a1 := w.RegisterAgent(action.Pose{}, 10)
	a2 := w.RegisterAgent(action.Pose{Row: 1}, 10)
	if w.priorityOf(a1.ID) >= w.priorityOf(a2.ID) {
		t.Fatal("first-registered agent should have a lower (higher-precedence) priority value")
	}
}
