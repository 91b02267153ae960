package warehouse

import "testing"

func TestItemCatalogReserveRelease(t *testing.T) {
	c := NewItemCatalog()
	it := c.Register(1, 1.5, 20)

	c.Reserve(1, 5)
	if got := it.AvailableUnits(); got != 15 {
		t.Fatalf("AvailableUnits() = %d, want 15", got)
	}

	c.Release(1, 3)
	if got := it.ReservedUnits(); got != 2 {
		t.Fatalf("ReservedUnits() = %d, want 2", got)
	}

	c.Release(1, 100)
	if got := it.ReservedUnits(); got != 0 {
		t.Fatalf("ReservedUnits() should floor at 0, got %d", got)
	}
}

func TestItemCatalogAddTotal(t *testing.T) {
	c := NewItemCatalog()
	it := c.Register(1, 1, 10)
	c.AddTotal(1, 5)
	if it.TotalUnits() != 15 {
		t.Fatalf("TotalUnits() = %d, want 15", it.TotalUnits())
	}
	c.AddTotal(1, -20)
	if it.TotalUnits() != -5 {
		t.Fatalf("AddTotal should not clamp, got %d", it.TotalUnits())
	}
}

func TestItemCatalogGetMissing(t *testing.T) {
	c := NewItemCatalog()
	if _, ok := c.Get(99); ok {
		t.Fatal("expected missing item to report ok=false")
	}
}
