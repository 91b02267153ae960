package transport

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hivesim/warehouse"
)

// Session is one connected client's view of the warehouse: a websocket
// connection plus the subscription that fans batched UPDATE events (each
// carrying the tick's actions, logs, and a statistics snapshot) to it. A
// session id is minted fresh on every connect and carries no state across
// reconnects — a client that drops and reconnects starts over rather than
// resuming a prior session.
type Session struct {
	ID uuid.UUID

	conn *websocket.Conn
	wh   *warehouse.Warehouse
	log  *slog.Logger

	writeMu sync.Mutex

	unsubUpdates func()
}

// newSession wraps conn and starts fanning warehouse events to it.
func newSession(conn *websocket.Conn, wh *warehouse.Warehouse, log *slog.Logger) *Session {
	s := &Session{ID: uuid.New(), conn: conn, wh: wh, log: log}

	updateSub := wh.Updates.Subscribe(func(evt warehouse.UpdateEvent) {
		s.sendUpdate(evt)
	})
	s.unsubUpdates = updateSub.Close
	return s
}

// Close detaches the session from the warehouse's event feeds and closes
// its socket.
func (s *Session) Close() error {
	s.unsubUpdates()
	return s.conn.Close()
}

func (s *Session) sendUpdate(evt warehouse.UpdateEvent) {
	actions := make([]ActionPayload, len(evt.Actions))
	for i, a := range evt.Actions {
		actions[i] = ActionPayload{Type: a.Action.Wire(), ID: a.Agent}
	}
	logs := make([]LogPayload, len(evt.Logs))
	for i, l := range evt.Logs {
		logs[i] = LogPayload{Kind: string(l.Kind), Level: l.Level.String(), Message: l.Message}
	}
	stats := StatisticsPayload{
		TicksRun:        evt.Stats.TicksRun,
		OrdersFulfilled: evt.Stats.OrdersFulfilled,
		TasksAssigned:   evt.Stats.TasksAssigned,
		TasksCompleted:  evt.Stats.TasksCompleted,
		ActionsEmitted:  evt.Stats.ActionsEmitted,
	}
	s.write(TypeUpdate, UpdatePayload{Tick: evt.Tick, Actions: actions, Logs: logs, Statistics: stats})
}

func (s *Session) sendError(err *warehouse.Error) {
	s.write(TypeAckErr, ErrorPayloadFrom(err))
}

func (s *Session) sendOK() {
	s.write(TypeAckOK, struct{}{})
}

func (s *Session) write(typ int, payload any) {
	b, err := Encode(typ, payload)
	if err != nil {
		s.log.Error("encode outbound message failed", "err", err, "type", typ)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		s.log.Debug("write to session failed", "err", err, "session", s.ID)
	}
}

// Serve reads inbound messages until the connection closes or ctx-driven
// shutdown happens elsewhere; it is meant to run in its own goroutine per
// connection.
func (s *Session) Serve() {
	defer s.Close()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := Decode(data)
		if err != nil {
			s.sendError(warehouse.NewError(warehouse.CodeMsgFormat, nil))
			continue
		}
		s.dispatch(env)
	}
}

func (s *Session) dispatch(env Envelope) {
	switch env.Type {
	case TypeStart:
		s.handleStart(env)
	case TypeStop:
		s.wh.Exec(func(w *warehouse.Warehouse) { w.Stop() })
		s.sendOK()
	case TypePause:
		s.wh.Exec(func(w *warehouse.Warehouse) { w.Pause() })
		s.sendOK()
	case TypeResume:
		s.wh.Exec(func(w *warehouse.Warehouse) { w.Resume() })
		s.sendOK()
	case TypeAckUpdate:
		done := make(chan *warehouse.Error, 1)
		sessionID := s.ID.String()
		s.wh.Exec(func(w *warehouse.Warehouse) {
			done <- w.Ack(sessionID)
		})
		if err := <-done; err != nil {
			s.sendError(err)
			return
		}
	case TypeOrder:
		s.handleOrder(env)
	case TypeControl:
		s.handleControl(env)
	default:
		s.sendError(warehouse.NewError(warehouse.CodeMsgUnexpected, nil))
	}
}

// handleStart decodes a START message's warehouse-state config, rebuilds
// the grid and every registry from it, and transitions to RUNNING.
func (s *Session) handleStart(env Envelope) {
	var p StartPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		s.sendError(warehouse.NewError(warehouse.CodeMsgFormat, nil))
		return
	}
	spec := p.toBuildSpec()

	done := make(chan *warehouse.Error, 1)
	s.wh.Exec(func(w *warehouse.Warehouse) {
		if err := w.Rebuild(spec); err != nil {
			done <- err
			return
		}
		w.Start()
		done <- nil
	})
	if err := <-done; err != nil {
		s.sendError(err)
		return
	}
	s.sendOK()
}

func (s *Session) handleOrder(env Envelope) {
	var p OrderPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		s.sendError(warehouse.NewError(warehouse.CodeMsgFormat, nil))
		return
	}
	lines := make([]warehouse.ItemLine, len(p.Items))
	for i, l := range p.Items {
		lines[i] = warehouse.ItemLine{Item: l.ID, Qty: l.Quantity}
	}

	var kind warehouse.OrderKind
	switch p.Type {
	case "COLLECT":
		kind = warehouse.OrderCollect
	case "REFILL":
		kind = warehouse.OrderRefill
	default:
		s.sendError(warehouse.NewError(warehouse.CodeInvalidArgs, warehouse.OrderID(p.ID)))
		return
	}

	done := make(chan *warehouse.Error, 1)
	s.wh.Exec(func(w *warehouse.Warehouse) {
		done <- w.SubmitOrder(warehouse.OrderID(p.ID), kind, p.GateID, p.RackID, lines)
	})
	if err := <-done; err != nil {
		s.sendError(err)
		return
	}
	s.sendOK()
}

func (s *Session) handleControl(env Envelope) {
	var p ControlPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		s.sendError(warehouse.NewError(warehouse.CodeMsgFormat, nil))
		return
	}

	var activate bool
	switch p.Type {
	case "activate":
		activate = true
	case "deactivate":
		activate = false
	default:
		s.sendError(warehouse.NewError(warehouse.CodeInvalidArgs, p.ID))
		return
	}

	done := make(chan *warehouse.Error, 1)
	s.wh.Exec(func(w *warehouse.Warehouse) {
		done <- w.Control(p.ID, activate)
	})
	if err := <-done; err != nil {
		s.sendError(err)
		return
	}
	s.sendOK()
}
