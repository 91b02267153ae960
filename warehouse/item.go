package warehouse

// Item is one entry of the item catalog: a kind of stock with a per-unit
// weight, a known total number of units in the warehouse, and a count of
// units currently reserved by active orders.
type Item struct {
	ID         ItemID
	UnitWeight float64

	totalUnits    int
	reservedUnits int
}

// TotalUnits returns the total number of units of this item known to exist
// across all racks.
func (it *Item) TotalUnits() int { return it.totalUnits }

// ReservedUnits returns the number of units currently reserved by active
// orders' pending quantities.
func (it *Item) ReservedUnits() int { return it.reservedUnits }

// AvailableUnits returns the units not currently reserved by any active
// order: TotalUnits - ReservedUnits.
func (it *Item) AvailableUnits() int { return it.totalUnits - it.reservedUnits }

// ItemCatalog is the warehouse's registry of item kinds.
type ItemCatalog struct {
	items map[ItemID]*Item
}

// NewItemCatalog constructs an empty catalog.
func NewItemCatalog() *ItemCatalog {
	return &ItemCatalog{items: make(map[ItemID]*Item)}
}

// Register adds an item kind with the given unit weight and starting total
// units (the sum of what every rack's initial config reports storing).
func (c *ItemCatalog) Register(id ItemID, unitWeight float64, totalUnits int) *Item {
	it := &Item{ID: id, UnitWeight: unitWeight, totalUnits: totalUnits}
	c.items[id] = it
	return it
}

// Get returns the item with the given id.
func (c *ItemCatalog) Get(id ItemID) (*Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// Reserve increments an item's reserved-units counter by qty. Called by
// EnqueueOrder when a collect order is admitted.
func (c *ItemCatalog) Reserve(id ItemID, qty int) {
	if it, ok := c.items[id]; ok {
		it.reservedUnits += qty
	}
}

// Release decrements an item's reserved-units counter by qty, floored at
// zero. Called by task completion/termination.
func (c *ItemCatalog) Release(id ItemID, qty int) {
	if it, ok := c.items[id]; ok {
		it.reservedUnits -= qty
		if it.reservedUnits < 0 {
			it.reservedUnits = 0
		}
	}
}

// AddTotal adjusts an item's known total units, used when a refill order
// completes and adds freshly stocked units to the warehouse's total.
func (c *ItemCatalog) AddTotal(id ItemID, delta int) {
	if it, ok := c.items[id]; ok {
		it.totalUnits += delta
	}
}
