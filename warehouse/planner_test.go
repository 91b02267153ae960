package warehouse

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hivesim/warehouse/action"
)

func TestPlannerReachesAdjacentGate(t *testing.T) {
	Convey("Given a 5x5 empty grid with a gate at (4,4)", t, func() {
		grid := NewGrid(5, 5)
		gate := NewGate(1, 4, 4)
		grid.PlaceFacility(4, 4, CellGate, 1)
		planner := NewPlanner(grid)

		Convey("A planner rooted at the origin facing east", func() {
			start := action.Pose{Row: 0, Col: 0, Dir: action.East}

			Convey("finds a plan that ends coincident with the gate", func() {
				plan, ok := planner.Plan(nil, start, gate)
				So(ok, ShouldBeTrue)
				So(len(plan), ShouldBeGreaterThan, 0)

				pose := start
				for _, k := range plan {
					pose = pose.Next(k)
				}
				So(gate.IsCoincident(pose.Row, pose.Col), ShouldBeTrue)
			})

			Convey("returns the identical plan from cache on a second call", func() {
				first, _ := planner.Plan(nil, start, gate)
				second, _ := planner.Plan(nil, start, gate)
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestPlannerUnreachableGoal(t *testing.T) {
	Convey("Given a rack walled off by obstacles on every side", t, func() {
		grid := NewGrid(3, 3)
		rack := NewRack(1, 1, 1, 100, 10)
		grid.PlaceFacility(1, 1, CellRack, 1)
		grid.PlaceObstacle(0, 1)
		grid.PlaceObstacle(2, 1)
		grid.PlaceObstacle(1, 0)
		grid.PlaceObstacle(1, 2)
		planner := NewPlanner(grid)

		Convey("no plan exists from outside the walls", func() {
			_, ok := planner.Plan(nil, action.Pose{Row: 0, Col: 0, Dir: action.East}, rack)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestPlannerAlreadyAtGoal(t *testing.T) {
	Convey("Given an agent already coincident with its destination rack", t, func() {
		grid := NewGrid(3, 3)
		rack := NewRack(1, 1, 1, 100, 10)
		grid.PlaceFacility(1, 1, CellRack, 1)
		planner := NewPlanner(grid)

		Convey("the plan is empty", func() {
			plan, ok := planner.Plan(nil, action.Pose{Row: 1, Col: 1, Dir: action.North}, rack)
			So(ok, ShouldBeTrue)
			So(len(plan), ShouldEqual, 0)
		})
	})
}
