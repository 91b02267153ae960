package warehouse

import "github.com/hivesim/warehouse/action"

// Agent is the runtime state of one mobile robot: its pose, its current
// plan, its block/recover state, and its active task.
type Agent struct {
	ID   AgentID
	Name string

	Pose action.Pose

	LoadCapacity float64
	Loaded       bool
	Battery      float64

	Locked      bool
	Blocked     bool
	Deactivated bool

	LastAction     action.Kind
	LastActionTime uint64
	slidingTime    uint64

	plan           []action.Kind
	targetFacility FacilityID
	hasTarget      bool

	ActiveTask TaskID
	hasTask    bool
}

// NewAgent constructs an agent at the given starting pose.
func NewAgent(id AgentID, pose action.Pose, loadCapacity float64) *Agent {
	return &Agent{ID: id, Pose: pose, LoadCapacity: loadCapacity, Battery: 100}
}

// Task returns the agent's currently assigned task id, if any.
func (a *Agent) Task() (TaskID, bool) { return a.ActiveTask, a.hasTask }

// AssignTask records that the agent now owns the given task.
func (a *Agent) AssignTask(id TaskID) {
	a.ActiveTask, a.hasTask = id, true
}

// onTaskComplete clears the agent's task assignment once its task
// terminates.
func (a *Agent) onTaskComplete(w *Warehouse) {
	a.hasTask = false
	a.dropPlan(w)
	w.moveAgentToIdle(a.ID)
}

// isAlreadyMoved reports whether the agent already performed an action in
// the current tick: it has acted at least once (LastAction is not the zero
// value Stop) and lastActionTime >= warehouse.time.
func (a *Agent) isAlreadyMoved(w *Warehouse) bool {
	return a.LastAction != action.Stop && a.LastActionTime >= w.time
}

// alreadySliding reports whether the agent has already been asked to slide
// in the current tick (used to break cycles in recursive slide). slidingTime
// holds the tick of the last slide plus one, so its zero value means the
// agent never slid.
func (a *Agent) alreadySliding(w *Warehouse) bool {
	return a.slidingTime > w.time
}

func (a *Agent) markSliding(w *Warehouse) {
	a.slidingTime = w.time + 1
}

func (a *Agent) setLastAction(w *Warehouse, k action.Kind) {
	a.LastAction = k
	a.LastActionTime = w.time
	w.emitAction(a.ID, k)
	a.drainBattery(w)
}

// batteryDrainPerAction is the fixed cost charged against an agent's battery
// for every primitive action it performs. Battery is observed and logged but
// never read back to influence dispatch or movement decisions.
const batteryDrainPerAction = 0.05

// drainBattery lowers the agent's battery level and, only when that crosses
// an integer percentage boundary, emits a battery-updated log so the wire
// isn't flooded with a log line per action.
func (a *Agent) drainBattery(w *Warehouse) {
	before := a.Battery
	a.Battery -= batteryDrainPerAction
	if a.Battery < 0 {
		a.Battery = 0
	}
	if int(before) != int(a.Battery) {
		w.logBatteryUpdated(a.ID, a.Battery)
	}
}

// dropPlan discards the agent's current plan and any scheduled cell-timeline
// reservations it made.
func (a *Agent) dropPlan(w *Warehouse) {
	a.plan = nil
	a.hasTarget = false
	w.clearAgentSchedule(a.ID)
}

// reach ensures a plan exists towards dst and advances the agent by one
// primitive action towards it.
func (a *Agent) reach(w *Warehouse, dst *Facility) {
	if !a.hasTarget || a.targetFacility != dst.ID || a.plan == nil {
		plan, ok := w.planner.Plan(w, a.Pose, dst)
		if !ok {
			w.invariantViolation("planner could not find a plan", "agent", a.ID, "facility", dst.ID)
			a.block(w)
			return
		}
		a.plan = plan
		a.targetFacility = dst.ID
		a.hasTarget = true
	}
	if len(a.plan) == 0 {
		return
	}

	next := a.plan[0]
	if next == action.RotateRight || next == action.RotateLeft || next == action.Retreat {
		a.Pose = a.Pose.Next(next)
		a.plan = a.plan[1:]
		a.setLastAction(w, next)
		return
	}
	if next != action.Move {
		// The plan's non-geometric tail (LOAD/OFFLOAD/BIND/UNBIND/NOTHING)
		// is never produced by the planner for in-transit steps; treat it
		// as a stale plan and recompute next time reach is called.
		a.dropPlan(w)
		return
	}
	a.resolveNextCell(w)
}

// resolveNextCell implements the next-cell resolution algorithm, the
// coordination core of the movement coordinator.
func (a *Agent) resolveNextCell(w *Warehouse) {
	nextPose := a.Pose.Next(action.Move)
	if !w.grid.InBounds(nextPose.Row, nextPose.Col) {
		a.dropPlan(w)
		return
	}
	nextCell := w.grid.At(nextPose.Row, nextPose.Col)
	if nextCell.IsBlocked() {
		a.dropPlan(w)
		return
	}

	occupantID, hasOccupant := nextCell.Agent()
	if !hasOccupant {
		a.commitMove(w, nextPose)
		return
	}
	if occupantID == a.ID {
		w.invariantViolation("agent scheduled to slide into its own cell", "agent", a.ID)
		a.dropPlan(w)
		return
	}

	occupant := w.agent(occupantID)
	if occupant == nil {
		a.dropPlan(w)
		return
	}
	if occupant.slide(w, a) && nextCell.IsEmpty() {
		a.commitMove(w, nextPose)
		return
	}
	a.dropPlan(w)
}

// commitMove physically moves the agent into nextPose: clears the current
// cell, occupies the next one, pops the plan, and records the action.
func (a *Agent) commitMove(w *Warehouse, nextPose action.Pose) {
	cur := w.grid.At(a.Pose.Row, a.Pose.Col)
	cur.SetAgent(0, false)
	next := w.grid.At(nextPose.Row, nextPose.Col)
	next.SetAgent(a.ID, true)
	a.Pose = nextPose
	if len(a.plan) > 0 {
		a.plan = a.plan[1:]
	}
	a.setLastAction(w, action.Move)
}

// slide asks a to vacate its current cell for caller, recursively
// displacing whatever else occupies a's candidate cells if needed. It
// returns true when a moved out of its cell, when a only rotated to face a
// free candidate cell, or when a has the same or higher precedence than
// caller and so stays put; the caller still checks that the cell is empty
// before moving in.
func (a *Agent) slide(w *Warehouse, caller *Agent) bool {
	if a.Locked || a.Blocked {
		return false
	}
	if a.isAlreadyMoved(w) {
		return false
	}
	if a.alreadySliding(w) {
		return false
	}
	if w.priorityOf(a.ID) <= w.priorityOf(caller.ID) {
		// a has the same or higher precedence than the caller: the caller
		// yields rather than displacing a.
		return true
	}
	a.markSliding(w)

	candidates := a.slideCandidates()
	for _, d := range candidates {
		if a.trySlideDirection(w, d) {
			return true
		}
	}
	return false
}

// slideCandidates returns the directions slide should try, in order: the
// agent's own planned direction, then rotate-right, rotate-left, then the
// reverse of it.
func (a *Agent) slideCandidates() []action.Dir {
	base := a.Pose.Dir
	if len(a.plan) > 0 {
		switch a.plan[0] {
		case action.Move:
			base = a.Pose.Dir
		case action.RotateRight:
			base = a.Pose.Dir.Right()
		case action.RotateLeft:
			base = a.Pose.Dir.Left()
		case action.Retreat:
			base = a.Pose.Dir.Reverse()
		}
	}
	return []action.Dir{base, base.Right(), base.Left(), base.Reverse()}
}

// trySlideDirection attempts to vacate a's cell by moving a in direction d.
func (a *Agent) trySlideDirection(w *Warehouse, d action.Dir) bool {
	dr, dc := d.Delta()
	targetRow, targetCol := a.Pose.Row+dr, a.Pose.Col+dc
	if !w.grid.InBounds(targetRow, targetCol) {
		return false
	}
	target := w.grid.At(targetRow, targetCol)
	if _, hasFacility := target.Facility(); hasFacility {
		return false
	}
	if target.IsBlocked() {
		return false
	}

	if target.IsEmpty() {
		if a.Pose.Dir != d {
			a.rotateTo(w, d)
			return true
		}
		a.commitMove(w, action.Pose{Row: targetRow, Col: targetCol, Dir: d})
		return true
	}

	occID, ok := target.Agent()
	if !ok {
		return false
	}
	occ := w.agent(occID)
	if occ == nil {
		return false
	}
	if occ.slide(w, a) && target.IsEmpty() {
		if a.Pose.Dir != d {
			a.rotateTo(w, d)
			return true
		}
		a.commitMove(w, action.Pose{Row: targetRow, Col: targetCol, Dir: d})
		return true
	}
	return false
}

// rotateTo rotates the agent to face d, choosing the shorter of
// ROTATE_RIGHT/ROTATE_LEFT. Ties (180 degree turns) use RETREAT, matching
// the primitive action set available for a one-tick reorientation.
func (a *Agent) rotateTo(w *Warehouse, d action.Dir) {
	switch {
	case a.Pose.Dir.Right() == d:
		a.Pose = a.Pose.Next(action.RotateRight)
		a.setLastAction(w, action.RotateRight)
	case a.Pose.Dir.Left() == d:
		a.Pose = a.Pose.Next(action.RotateLeft)
		a.setLastAction(w, action.RotateLeft)
	default:
		a.Pose = a.Pose.Next(action.Retreat)
		a.setLastAction(w, action.Retreat)
	}
}

// deactivate locks the agent's current cell, then blocks it. Locking
// invalidates every cached plan, since a route that crossed this cell is no
// longer feasible.
func (a *Agent) deactivate(w *Warehouse) {
	w.grid.At(a.Pose.Row, a.Pose.Col).Lock()
	w.planner.invalidate()
	a.Deactivated = true
	a.block(w)
}

// activate reverses deactivate: unlocks the cell, invalidates the plan
// cache so routes through it are considered again, and schedules a recover
// attempt on the next recover phase.
func (a *Agent) activate(w *Warehouse) {
	w.grid.At(a.Pose.Row, a.Pose.Col).Unlock()
	w.planner.invalidate()
	a.Deactivated = false
}

// block undoes the agent's last not-yet-acknowledged action. Idempotent:
// calling it on an already-blocked agent is a no-op beyond re-dropping its
// plan.
func (a *Agent) block(w *Warehouse) {
	if a.Blocked {
		a.dropPlan(w)
		return
	}
	a.Blocked = true
	a.dropPlan(w)

	switch a.LastAction {
	case action.RotateLeft:
		a.Pose = a.Pose.Previous(action.RotateLeft)
	case action.RotateRight:
		a.Pose = a.Pose.Previous(action.RotateRight)
	case action.Retreat:
		a.Pose = a.Pose.Previous(action.Retreat)
	case action.Move:
		prev := a.Pose.Previous(action.Move)
		cur := w.grid.At(a.Pose.Row, a.Pose.Col)
		cur.SetAgent(0, false)
		prevCell := w.grid.At(prev.Row, prev.Col)
		if otherID, ok := prevCell.Agent(); ok && otherID != a.ID {
			if other := w.agent(otherID); other != nil {
				other.block(w)
			}
		}
		prevCell.SetAgent(a.ID, true)
		a.Pose = prev
	default:
		// LOAD/OFFLOAD/BIND/UNBIND/NOTHING have no geometric undo.
	}
}

// recover replays the agent's last action forward. It is only attempted
// for agents that are not deactivated.
func (a *Agent) recover(w *Warehouse) bool {
	if a.Deactivated {
		return false
	}
	if !a.Blocked {
		return false
	}

	switch a.LastAction {
	case action.RotateLeft, action.RotateRight, action.Retreat:
		a.Pose = a.Pose.Next(a.LastAction)
		a.Blocked = false
		return true
	case action.Move:
		forward := a.Pose.Next(action.Move)
		if !w.grid.InBounds(forward.Row, forward.Col) {
			return false
		}
		forwardCell := w.grid.At(forward.Row, forward.Col)
		if forwardCell.IsEmpty() && !forwardCell.IsBlocked() {
			a.commitMove(w, forward)
			a.Blocked = false
			return true
		}
		if occID, ok := forwardCell.Agent(); ok {
			if occ := w.agent(occID); occ != nil && occ.Deactivated && forwardCell.Locked() {
				return false
			}
		} else if forwardCell.Locked() {
			return false
		}
		a.Pose = a.Pose.Next(action.Retreat)
		a.LastAction = action.Retreat
		a.Blocked = false
		return true
	default:
		a.Blocked = false
		return true
	}
}
