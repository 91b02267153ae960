package warehouse

import (
	"testing"

	"github.com/hivesim/warehouse/action"
)

func TestAgentBlockUndoesMove(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = 3, 3
	w := New(cfg)
	a := w.RegisterAgent(action.Pose{Row: 1, Col: 1, Dir: action.North}, 10)

	a.commitMove(w, action.Pose{Row: 0, Col: 1, Dir: action.North})
	if a.Pose.Row != 0 {
		t.Fatalf("expected agent to have moved to row 0, got %d", a.Pose.Row)
	}

	a.block(w)
	if a.Pose.Row != 1 || a.Pose.Col != 1 {
		t.Fatalf("block should undo the move, agent at (%d,%d)", a.Pose.Row, a.Pose.Col)
	}
	if !a.Blocked {
		t.Fatal("agent should be marked blocked after block()")
	}
	if _, ok := w.grid.At(0, 1).Agent(); ok {
		t.Fatal("vacated cell should no longer report the agent")
	}
	if id, ok := w.grid.At(1, 1).Agent(); !ok || id != a.ID {
		t.Fatal("original cell should report the agent again")
	}
}

func TestAgentBlockUndoesRotation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = 3, 3
	w := New(cfg)
	a := w.RegisterAgent(action.Pose{Row: 1, Col: 1, Dir: action.North}, 10)

	a.Pose = a.Pose.Next(action.RotateRight)
	a.setLastAction(w, action.RotateRight)
	if a.Pose.Dir != action.East {
		t.Fatalf("expected East after rotate, got %v", a.Pose.Dir)
	}

	a.block(w)
	if a.Pose.Dir != action.North {
		t.Fatalf("block should undo the rotation, dir = %v", a.Pose.Dir)
	}
}

func TestAgentRecoverReplaysMove(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = 3, 3
	w := New(cfg)
	a := w.RegisterAgent(action.Pose{Row: 1, Col: 1, Dir: action.North}, 10)

	a.LastAction = action.Move
	a.Blocked = true

	if !a.recover(w) {
		t.Fatal("recover should succeed into an empty forward cell")
	}
	if a.Pose.Row != 0 || a.Pose.Col != 1 {
		t.Fatalf("expected agent at (0,1), got (%d,%d)", a.Pose.Row, a.Pose.Col)
	}
	if a.Blocked {
		t.Fatal("recover should clear Blocked on success")
	}
}

func TestAgentBlockIsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	w := New(cfg)
	a := w.RegisterAgent(action.Pose{Row: 1, Col: 1, Dir: action.North}, 10)
	a.block(w)
	pose := a.Pose
	a.block(w)
	if a.Pose != pose {
		t.Fatal("a second block() call must not move the agent again")
	}
}

func TestLowerPrecedenceAgentYieldsOnSlide(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = 1, 3
	w := New(cfg)
	high := w.RegisterAgent(action.Pose{Row: 0, Col: 0, Dir: action.East}, 10)
	low := w.RegisterAgent(action.Pose{Row: 0, Col: 1, Dir: action.East}, 10)

	if !low.slide(w, high) {
		t.Fatal("lower-precedence agent should yield its cell")
	}
}
