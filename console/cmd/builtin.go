package cmd

import (
	"strconv"
	"strings"

	"github.com/hivesim/warehouse"
)

func init() {
	Register(Command{Name: "status", Usage: "status — show tick, state, agent and order counts", Run: runStatus})
	Register(Command{Name: "start", Usage: "start — begin ticking the simulation", Run: runStart})
	Register(Command{Name: "stop", Usage: "stop — halt the simulation and drop in-flight plans", Run: runStop})
	Register(Command{Name: "pause", Usage: "pause — freeze ticking without discarding state", Run: runPause})
	Register(Command{Name: "resume", Usage: "resume — unfreeze a paused simulation", Run: runResume})
	Register(Command{Name: "order", Usage: "order <id> <collect|refill> <gate> [rack] <item:qty>... — submit an order", Run: runOrder})
	Register(Command{Name: "control", Usage: "control <activate|deactivate> <agent> — force an agent's active state", Run: runControl})
	Register(Command{Name: "help", Usage: "help — list every command", Run: runHelp})
}

func runStatus(_ Source, w *warehouse.Warehouse, _ []string, out *Output) {
	out.Printf("state: %s", w.State())
	out.Printf("tick: %d", w.Time())
	g := w.Grid()
	out.Printf("grid: %dx%d", g.Height, g.Width)
}

func runStart(_ Source, w *warehouse.Warehouse, _ []string, out *Output) {
	w.Start()
	out.Print("simulation started")
}

func runStop(_ Source, w *warehouse.Warehouse, _ []string, out *Output) {
	w.Stop()
	out.Print("simulation stopped")
}

func runPause(_ Source, w *warehouse.Warehouse, _ []string, out *Output) {
	w.Pause()
	out.Print("simulation paused")
}

func runResume(_ Source, w *warehouse.Warehouse, _ []string, out *Output) {
	w.Resume()
	out.Print("simulation resumed")
}

func runHelp(_ Source, _ *warehouse.Warehouse, _ []string, out *Output) {
	for _, c := range All() {
		out.Print(c.Usage)
	}
}

// runControl issues the activate/deactivate operator command directly
// against the named agent, bypassing the transport's CONTROL envelope.
func runControl(_ Source, w *warehouse.Warehouse, args []string, out *Output) {
	if len(args) != 2 {
		out.Error("usage: control <activate|deactivate> <agent>")
		return
	}
	var activate bool
	switch strings.ToLower(args[0]) {
	case "activate":
		activate = true
	case "deactivate":
		activate = false
	default:
		out.Errorf("unknown control command: %s", args[0])
		return
	}
	agentID, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		out.Errorf("invalid agent id: %s", args[1])
		return
	}
	if wErr := w.Control(warehouse.AgentID(agentID), activate); wErr != nil {
		out.Error(wErr.Error())
		return
	}
	out.Print("control applied")
}

// runOrder parses "order 42 collect 3 1:10 2:4" style input into a
// SubmitOrder call. Kept deliberately simple: no named flags, a leading
// client-chosen order id, then positional gate and (for refill) rack ids
// followed by item:qty pairs.
func runOrder(_ Source, w *warehouse.Warehouse, args []string, out *Output) {
	if len(args) < 3 {
		out.Error("usage: order <id> <collect|refill> <gate> [rack] <item:qty>...")
		return
	}

	orderID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		out.Errorf("invalid order id: %s", args[0])
		return
	}

	var kind warehouse.OrderKind
	switch strings.ToLower(args[1]) {
	case "collect":
		kind = warehouse.OrderCollect
	case "refill":
		kind = warehouse.OrderRefill
	default:
		out.Errorf("unknown order kind: %s", args[1])
		return
	}

	gateID, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		out.Errorf("invalid gate id: %s", args[2])
		return
	}

	rest := args[3:]
	var rackID uint64
	if kind == warehouse.OrderRefill {
		if len(rest) == 0 {
			out.Error("refill orders require a rack id")
			return
		}
		rackID, err = strconv.ParseUint(rest[0], 10, 64)
		if err != nil {
			out.Errorf("invalid rack id: %s", rest[0])
			return
		}
		rest = rest[1:]
	}

	lines := make([]warehouse.ItemLine, 0, len(rest))
	for _, tok := range rest {
		parts := strings.SplitN(tok, ":", 2)
		if len(parts) != 2 {
			out.Errorf("invalid item:qty pair: %s", tok)
			return
		}
		item, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			out.Errorf("invalid item id: %s", parts[0])
			return
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil {
			out.Errorf("invalid quantity: %s", parts[1])
			return
		}
		lines = append(lines, warehouse.ItemLine{Item: warehouse.ItemID(item), Qty: qty})
	}
	if len(lines) == 0 {
		out.Error("order requires at least one item:qty pair")
		return
	}

	if wErr := w.SubmitOrder(warehouse.OrderID(orderID), kind, warehouse.FacilityID(gateID), warehouse.FacilityID(rackID), lines); wErr != nil {
		out.Error(wErr.Error())
		return
	}
	out.Print("order submitted")
}
