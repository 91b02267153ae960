package action

import "testing"

func TestPoseNextMove(t *testing.T) {
	p := Pose{Row: 2, Col: 2, Dir: North}
	next := p.Next(Move)
	if next.Row != 1 || next.Col != 2 {
		t.Fatalf("expected (1,2), got (%d,%d)", next.Row, next.Col)
	}
}

func TestPoseNextRotate(t *testing.T) {
	p := Pose{Row: 0, Col: 0, Dir: North}
	if got := p.Next(RotateRight).Dir; got != East {
		t.Fatalf("expected East, got %v", got)
	}
	if got := p.Next(RotateLeft).Dir; got != West {
		t.Fatalf("expected West, got %v", got)
	}
	if got := p.Next(Retreat).Dir; got != South {
		t.Fatalf("expected South, got %v", got)
	}
}

func TestPoseNextPreviousRoundTrip(t *testing.T) {
	start := Pose{Row: 3, Col: 4, Dir: East}
	for _, k := range []Kind{Move, RotateRight, RotateLeft, Retreat} {
		next := start.Next(k)
		back := next.Previous(k)
		if back != start {
			t.Fatalf("action %v: Previous(Next(p)) = %+v, want %+v", k, back, start)
		}
	}
}

func TestDirArithmetic(t *testing.T) {
	if North.Right() != East || East.Right() != South || South.Right() != West || West.Right() != North {
		t.Fatal("Right() cycle broken")
	}
	if North.Left() != West {
		t.Fatalf("expected West, got %v", North.Left())
	}
	if North.Reverse() != South || East.Reverse() != West {
		t.Fatal("Reverse() broken")
	}
}

func TestActionWireCodesStable(t *testing.T) {
	cases := map[Kind]int{
		Move: 1, RotateRight: 2, RotateLeft: 3, Retreat: 4,
		Load: 5, Offload: 6, Bind: 7, Unbind: 8,
	}
	for k, want := range cases {
		if got := k.Wire(); got != want {
			t.Errorf("%v.Wire() = %d, want %d", k, got, want)
		}
	}
	if Nothing.Wire() != int(Stop) {
		t.Errorf("Nothing.Wire() should fall back to Stop")
	}
}
