package warehouse

// SubmitOrder validates and, if feasible, enqueues a new order under the
// given client-supplied id. It is the single input-validation boundary for
// order submission: a rejection here leaves the warehouse's state untouched
// and returns a stable *Error the transport layer turns into an ACK_ERROR.
// id is never minted here — it always comes from the client's wire ORDER
// message, so an infeasibility reply can report the order it actually
// refers to.
func (w *Warehouse) SubmitOrder(id OrderID, kind OrderKind, gate, rack FacilityID, lines []ItemLine) *Error {
	if len(lines) == 0 {
		return NewError(CodeInvalidArgs, id, "lines")
	}

	gateFacility := w.facility(gate)
	if gateFacility == nil || gateFacility.Kind != FacilityGate {
		return NewError(CodeInvalidArgs, id, "gate", gate)
	}

	switch kind {
	case OrderCollect:
		if err := w.validateCollect(id, lines); err != nil {
			return err
		}
	case OrderRefill:
		rackFacility := w.facility(rack)
		if rackFacility == nil || rackFacility.Kind != FacilityRack {
			return NewError(CodeInvalidArgs, id, "rack", rack)
		}
		if err := w.validateRefill(id, rackFacility, lines); err != nil {
			return err
		}
	default:
		return NewError(CodeInvalidArgs, id, "kind")
	}

	w.EnqueueOrder(id, kind, gate, rack, lines)
	return nil
}

// validateCollect rejects a collect order that could never be satisfied
// right now: one asking for more units of an item than are currently
// available (total units minus whatever other active orders already hold
// reserved). Feasibility is a point-in-time admission check, not a
// reservation against future availability.
func (w *Warehouse) validateCollect(id OrderID, lines []ItemLine) *Error {
	totals := make(map[ItemID]int, len(lines))
	for _, l := range lines {
		if l.Qty <= 0 {
			return NewError(CodeInvalidArgs, id, "qty", l.Qty)
		}
		totals[l.Item] += l.Qty
	}
	var short []ItemID
	for item, qty := range totals {
		it, ok := w.items.Get(item)
		if !ok {
			return NewError(CodeInvalidArgs, id, "item", item)
		}
		if qty > it.AvailableUnits() {
			short = append(short, item)
		}
	}
	if len(short) > 0 {
		return NewError(CodeOrderInfeasibleCollect, id, short)
	}
	return nil
}

// validateRefill rejects a refill order whose items would push the rack's
// projected stored weight (what it already holds plus what this order
// would add) past its capacity.
func (w *Warehouse) validateRefill(id OrderID, rack *Facility, lines []ItemLine) *Error {
	added := 0.0
	for _, l := range lines {
		if l.Qty <= 0 {
			return NewError(CodeInvalidArgs, id, "qty", l.Qty)
		}
		it, ok := w.items.Get(l.Item)
		if !ok {
			return NewError(CodeInvalidArgs, id, "item", l.Item)
		}
		added += float64(l.Qty) * it.UnitWeight
	}
	projected := rack.StoredWeight(w.items) + added
	if projected > rack.Capacity {
		return NewError(CodeOrderInfeasibleRefill, id, rack.ID, projected-rack.Capacity)
	}
	return nil
}
