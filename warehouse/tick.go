package warehouse

import (
	"context"
	"sort"
	"time"

	"github.com/hivesim/warehouse/action"
)

// inboundFn is a closure queued by Exec to run on the warehouse's single
// tick goroutine, preserving single-writer access to all simulation state.
type inboundFn func(*Warehouse)

// Exec schedules fn to run exclusively on the tick goroutine and returns a
// channel that closes once it has run. Safe to call from any goroutine
// (transport sessions, the console); fn itself must not call Exec again.
func (w *Warehouse) Exec(fn func(*Warehouse)) <-chan struct{} {
	done := make(chan struct{})
	wrapped := func(ww *Warehouse) {
		fn(ww)
		close(done)
	}
	select {
	case w.queue <- wrapped:
	case <-w.closing:
		close(done)
	}
	return done
}

// Start transitions the warehouse to RUNNING, per the START control message.
func (w *Warehouse) Start() { w.state = StateRunning }

// Stop transitions the warehouse to IDLE and drops every in-flight plan and
// binding; this is the fatal-error recovery behaviour, also reused for a
// plain STOP control message.
func (w *Warehouse) Stop() {
	w.state = StateIdle
	for _, a := range w.agents {
		a.dropPlan(w)
		a.Blocked = false
	}
	for _, f := range w.facilities {
		f.Deallocate()
		f.Unbind()
	}
}

// Pause transitions the warehouse to PAUSE: ticks stop advancing but no
// state is discarded, per the PAUSE control message.
func (w *Warehouse) Pause() { w.state = StatePaused }

// Resume transitions a paused warehouse back to RUNNING.
func (w *Warehouse) Resume() {
	if w.state == StatePaused {
		w.state = StateRunning
	}
}

// ackGateOpen reports whether the controller may proceed past the
// previous tick's ACK gate: either every session has acknowledged, or no
// sessions are currently tracked (a headless/batch run never blocks).
func (w *Warehouse) ackGateOpen() bool {
	return w.acksNeeded == 0 || w.acksReceived >= w.acksNeeded
}

// Ack records sessionID's ACK_UPDATE for the current tick. A session that
// acks twice before the next ArmAckGate is rejected rather than silently
// over-satisfying the gate.
func (w *Warehouse) Ack(sessionID string) *Error {
	if _, dup := w.ackedSessions[sessionID]; dup {
		return NewError(CodeMsgUnexpected, nil, "session", sessionID)
	}
	w.ackedSessions[sessionID] = struct{}{}
	w.acksReceived++
	return nil
}

// ArmAckGate resets the ack counters and declares how many sessions must
// acknowledge before the next tick may run.
func (w *Warehouse) ArmAckGate(sessions int) {
	w.acksNeeded = sessions
	w.acksReceived = 0
	clear(w.ackedSessions)
}

// priorityOrderedAgents returns every registered agent sorted by ascending
// priority (registration order), the strict order execution must follow.
func (w *Warehouse) priorityOrderedAgents() []*Agent {
	out := make([]*Agent, 0, len(w.agents))
	for _, a := range w.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return w.priorityOf(out[i].ID) < w.priorityOf(out[j].ID)
	})
	return out
}

// runTick executes one full tick: recover phase, dispatch phase, execute
// phase in strict priority order, then advance time and arm the next ACK
// gate. It assumes the caller has already checked state == RUNNING and the
// ACK gate is open.
func (w *Warehouse) runTick() {
	agents := w.priorityOrderedAgents()

	for _, a := range agents {
		if a.Blocked {
			a.recover(w)
		}
	}

	w.dispatch()

	for _, a := range agents {
		if a.Blocked || a.Deactivated {
			continue
		}
		taskID, hasTask := a.Task()
		if !hasTask {
			continue
		}
		t := w.task(taskID)
		if t == nil {
			continue
		}
		t.Execute(w, a)
	}

	w.time++
	w.stats.TicksRun++
	if len(w.pendingActions) > 0 || len(w.pendingLogs) > 0 {
		actions := make([]ActionEvent, len(w.pendingActions))
		copy(actions, w.pendingActions)
		logs := make([]LogEvent, len(w.pendingLogs))
		copy(logs, w.pendingLogs)
		w.Updates.Emit(UpdateEvent{Tick: w.time, Actions: actions, Logs: logs, Stats: w.stats})
	}
	w.pendingActions = w.pendingActions[:0]
	w.pendingLogs = w.pendingLogs[:0]

	if w.sessionCounter != nil {
		w.ArmAckGate(w.sessionCounter())
	} else {
		w.ArmAckGate(0)
	}
}

// Run drives the warehouse's tick loop until ctx is cancelled. It is the
// only goroutine that ever mutates warehouse state directly; every other
// caller must go through Exec.
func (w *Warehouse) Run(ctx context.Context) {
	if w.queue == nil {
		w.queue = make(chan inboundFn)
	}
	if w.closing == nil {
		w.closing = make(chan struct{})
	}

	var ticker *time.Ticker
	var tickC <-chan time.Time
	if w.cfg.Tick.Interval > 0 {
		ticker = time.NewTicker(w.cfg.Tick.Interval)
		tickC = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			close(w.closing)
			return
		case fn := <-w.queue:
			fn(w)
		case <-tickC:
			w.stepIfReady()
		default:
			if tickC == nil {
				w.stepIfReady()
			}
		}
	}
}

func (w *Warehouse) stepIfReady() {
	if w.state == StateRunning && w.ackGateOpen() {
		w.runTick()
	}
}

// resolveAtRest reports whether dst is reachable for agent's current
// pose without moving. Nothing in the package calls it.
func resolveAtRest(pose action.Pose, dst *Facility) bool {
	return dst.IsCoincident(pose.Row, pose.Col)
}
