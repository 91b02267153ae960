package warehouse

// AgentID, FacilityID, ItemID, OrderID and TaskID are the stable integer
// identifiers used throughout the warehouse registries. Cyclic references
// (cell<->agent, cell<->facility, task<->agent<->rack) are represented with
// these ids plus side tables in the Warehouse registry rather than Go
// pointers.
type (
	AgentID    uint64
	FacilityID uint64
	ItemID     uint64
	OrderID    uint64
	TaskID     uint64
)
