package warehouse

// OrderKind distinguishes collect orders (remove items from racks, deliver
// to a gate) from refill orders (add items to one designated rack).
type OrderKind uint8

const (
	OrderCollect OrderKind = iota
	OrderRefill
)

// OrderStatus tracks an order's lifecycle.
type OrderStatus uint8

const (
	OrderInactive OrderStatus = iota
	OrderActive
	OrderFulfilled
)

// ItemLine is a (item, quantity) pair, the unit of an order's multiset.
type ItemLine struct {
	Item ItemID
	Qty  int
}

// Order holds a multiset of pending (item, quantity) lines and a target
// gate. Collect orders remove items from racks; refill orders add items to
// one designated rack.
type Order struct {
	ID     OrderID
	Kind   OrderKind
	Gate   FacilityID
	Rack   FacilityID // only meaningful for OrderRefill
	Status OrderStatus

	Pending map[ItemID]int
	tasks   map[TaskID]struct{}
}

// NewOrder constructs an order with the given pending item lines.
func NewOrder(id OrderID, kind OrderKind, gate FacilityID, lines []ItemLine) *Order {
	pending := make(map[ItemID]int, len(lines))
	for _, l := range lines {
		pending[l.Item] += l.Qty
	}
	return &Order{
		ID: id, Kind: kind, Gate: gate, Status: OrderInactive,
		Pending: pending,
		tasks:   make(map[TaskID]struct{}),
	}
}

// TotalPending returns the sum of pending quantities across all items.
func (o *Order) TotalPending() int {
	total := 0
	for _, q := range o.Pending {
		total += q
	}
	return total
}

// AttachTask records that a task has taken on (part of) this order.
func (o *Order) AttachTask(id TaskID) {
	o.tasks[id] = struct{}{}
	o.Status = OrderActive
}

// DetachTask removes a task's link to this order (used when a task is
// cancelled via block() and the order must return to pending).
func (o *Order) DetachTask(id TaskID) {
	delete(o.tasks, id)
	if len(o.tasks) == 0 && o.TotalPending() > 0 {
		o.Status = OrderInactive
	}
}

// TaskCount returns how many tasks currently carry (part of) this order.
func (o *Order) TaskCount() int { return len(o.tasks) }

// Fulfil marks the order fulfilled once its pending multiset has reached
// zero and every task carrying it has completed.
func (o *Order) Fulfil() {
	o.Status = OrderFulfilled
}

// Complete reduces the order's pending quantities by one delivered line. It
// is invoked by Task.completeActiveOrder when a gate bind signals that line
// has been handed over.
func (o *Order) Complete(item ItemID, qty int) {
	remaining := o.Pending[item] - qty
	if remaining <= 0 {
		delete(o.Pending, item)
	} else {
		o.Pending[item] = remaining
	}
}
