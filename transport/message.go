// Package transport implements the JSON-over-WebSocket wire protocol
// clients use to drive and observe a running warehouse.Warehouse.
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/hivesim/warehouse"
)

// Inbound message type discriminants, the numeric "type" field of every
// client -> server envelope. The wire gives explicit integer codes only for
// agent actions; these message-type codes are an implementer's choice
// (assigned in the order the inbound/outbound tables list them) rather than
// a literal spec value.
const (
	TypeStart     = 0
	TypeStop      = 1
	TypePause     = 2
	TypeResume    = 3
	TypeOrder     = 4
	TypeControl   = 5
	TypeAckUpdate = 6
)

// Outbound message type discriminants, the numeric "type" field of every
// server -> client envelope. ACTION and LOG entries never appear as their
// own envelope type — they are nested arrays within an UPDATE payload.
const (
	TypeUpdate  = 7
	TypeAckOK   = 8
	TypeAckErr  = 9
	TypeMessage = 10
)

// Envelope is the outermost shape of every message on the wire: a numeric
// type tag plus a lazily-decoded data payload.
type Envelope struct {
	Type int             `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ItemLinePayload is one (item, quantity) pair as it appears on the wire.
type ItemLinePayload struct {
	ID       warehouse.ItemID `json:"id"`
	Quantity int              `json:"quantity"`
}

// OrderPayload is the body of an inbound ORDER message. ID is the client's
// own order id, carried through SubmitOrder/EnqueueOrder verbatim so every
// ACK_ORDER reply (success or ORDER_INFEASIBLE_*) can report the order the
// client actually submitted.
type OrderPayload struct {
	ID     uint64               `json:"id"`
	Type   string               `json:"type"` // "COLLECT" or "REFILL"
	GateID warehouse.FacilityID `json:"gate_id"`
	RackID warehouse.FacilityID `json:"rack_id,omitempty"`
	Items  []ItemLinePayload    `json:"items"`
}

// ItemConfigPayload is one item-catalog entry of a START message's config.
type ItemConfigPayload struct {
	ID     warehouse.ItemID `json:"id"`
	Weight float64          `json:"weight"`
}

// ItemQtyPayload is one (item, quantity) pair attached to a rack object.
type ItemQtyPayload struct {
	ID       warehouse.ItemID `json:"id"`
	Quantity int              `json:"quantity"`
}

// CellObjectPayload is one object placed on a map cell: Type selects which
// of the object-specific fields apply (gate=0, agent=1, rack=2, station=3,
// obstacle=4).
type CellObjectPayload struct {
	Type      int              `json:"type"`
	ID        uint64           `json:"id"`
	LoadCap   float64          `json:"load_cap,omitempty"`
	Direction int              `json:"direction,omitempty"`
	Capacity  float64          `json:"capacity,omitempty"`
	Weight    float64          `json:"weight,omitempty"`
	Items     []ItemQtyPayload `json:"items,omitempty"`
}

// CellPayload is one cell of a START config's map grid.
type CellPayload struct {
	Objects []CellObjectPayload `json:"objects"`
}

// MapPayload is the map section of a START config.
type MapPayload struct {
	Height int             `json:"height"`
	Width  int             `json:"width"`
	Grid   [][]CellPayload `json:"grid"`
}

// StateConfigPayload is the full warehouse-state config carried by START.
type StateConfigPayload struct {
	Map   MapPayload          `json:"map"`
	Items []ItemConfigPayload `json:"items"`
}

// StartPayload is the body of an inbound START message.
type StartPayload struct {
	Mode  int                `json:"mode"`
	State StateConfigPayload `json:"state"`
}

// toBuildSpec flattens the nested per-cell object config into the warehouse
// package's BuildSpec shape.
func (p StartPayload) toBuildSpec() warehouse.BuildSpec {
	spec := warehouse.BuildSpec{
		Map: warehouse.MapSpec{Height: p.State.Map.Height, Width: p.State.Map.Width},
	}
	for _, it := range p.State.Items {
		spec.Items = append(spec.Items, warehouse.ItemSpec{ID: it.ID, Weight: it.Weight})
	}
	for r, row := range p.State.Map.Grid {
		for c, cell := range row {
			for _, obj := range cell.Objects {
				o := warehouse.ObjectSpec{
					Row: r, Col: c,
					Kind:          warehouse.ObjectKind(obj.Type),
					ID:            obj.ID,
					LoadCapacity:  obj.LoadCap,
					Direction:     obj.Direction,
					Capacity:      obj.Capacity,
					ContainerMass: obj.Weight,
				}
				for _, iq := range obj.Items {
					o.Items = append(o.Items, warehouse.ItemQty{Item: iq.ID, Quantity: iq.Quantity})
				}
				spec.Map.Objects = append(spec.Map.Objects, o)
			}
		}
	}
	return spec
}

// ControlPayload carries an operator-issued activate/deactivate command
// targeting one agent, distinct from the stateless START/STOP/PAUSE/RESUME
// lifecycle messages.
type ControlPayload struct {
	ID   warehouse.AgentID `json:"id"`
	Type string            `json:"type"` // "activate" or "deactivate"
}

// AckUpdatePayload is the body of an inbound ACK_UPDATE, acknowledging
// receipt of the previous tick's UPDATE.
type AckUpdatePayload struct{}

// ActionPayload is the body of one outbound ACTION entry within an UPDATE.
type ActionPayload struct {
	Type int               `json:"type"`
	ID   warehouse.AgentID `json:"id"`
}

// LogPayload is one entry of an UPDATE message's logs array.
type LogPayload struct {
	Kind    string `json:"kind,omitempty"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// StatisticsPayload is the body of an UPDATE message's statistics field: a
// passthrough snapshot of rolling fleet counters, reported but never
// consumed by the core itself.
type StatisticsPayload struct {
	TicksRun        uint64 `json:"ticks_run"`
	OrdersFulfilled uint64 `json:"orders_fulfilled"`
	TasksAssigned   uint64 `json:"tasks_assigned"`
	TasksCompleted  uint64 `json:"tasks_completed"`
	ActionsEmitted  uint64 `json:"actions_emitted"`
}

// UpdatePayload is the body of an outbound UPDATE message: the tick that was
// just reached, every action performed to reach it, every log line recorded
// during it, and a statistics snapshot.
type UpdatePayload struct {
	Tick       uint64            `json:"timestep"`
	Actions    []ActionPayload   `json:"actions"`
	Logs       []LogPayload      `json:"logs"`
	Statistics StatisticsPayload `json:"statistics"`
}

// ErrorPayload is the body of an outbound ACK_ERROR message, mirroring
// warehouse.Error's wire-stable fields.
type ErrorPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
	ID     any    `json:"id,omitempty"`
	Args   []any  `json:"args,omitempty"`
}

// ErrorPayloadFrom converts a domain error into its wire shape.
func ErrorPayloadFrom(err *warehouse.Error) ErrorPayload {
	return ErrorPayload{Code: string(err.Code), Reason: err.Reason, ID: err.ID, Args: err.Args}
}

// MessagePayload is a free-form informational message from server to
// client, outside the structured LOG/UPDATE channel.
type MessagePayload struct {
	Text string `json:"text"`
}

// Encode marshals typ/payload into an Envelope-shaped JSON document.
func Encode(typ int, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("transport: encode type %d payload: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Data: raw})
}

// Decode splits b into its envelope type and raw payload.
func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("transport: decode envelope: %w", err)
	}
	return env, nil
}
