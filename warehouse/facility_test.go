package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRackIsCoincidentExactOnly(t *testing.T) {
	rack := NewRack(1, 5, 5, 100, 10)
	assert.True(t, rack.IsCoincident(5, 5))
	assert.False(t, rack.IsCoincident(5, 6))
	assert.False(t, rack.IsCoincident(4, 5))
}

func TestGateIsCoincidentAdjacent(t *testing.T) {
	gate := NewGate(1, 5, 5)
	assert.True(t, gate.IsCoincident(5, 5))
	assert.True(t, gate.IsCoincident(5, 6))
	assert.True(t, gate.IsCoincident(4, 5))
	assert.False(t, gate.IsCoincident(6, 6))
}

func TestRackCanBindRequiresAllocation(t *testing.T) {
	rack := NewRack(1, 0, 0, 100, 10)
	require.False(t, rack.CanBind(42, 0, 0, false), "unallocated rack must reject bind")

	rack.Allocate(42)
	assert.True(t, rack.CanBind(42, 0, 0, false))
	assert.False(t, rack.CanBind(7, 0, 0, false), "rack allocated to a different agent")
}

func TestGateCanBindRequiresUnfulfilledOrder(t *testing.T) {
	gate := NewGate(1, 0, 0)
	assert.False(t, gate.CanBind(1, 0, 0, false))
	assert.True(t, gate.CanBind(1, 0, 0, true))
}

func TestStationAlwaysBindable(t *testing.T) {
	station := NewStation(1, 0, 0)
	assert.True(t, station.CanBind(99, 0, 0, false))
}

func TestBindRejectsWhenAlreadyBoundToAnotherAgent(t *testing.T) {
	station := NewStation(1, 0, 0)
	station.Bind(1)
	assert.False(t, station.CanBind(2, 0, 0, false))
	assert.True(t, station.CanBind(1, 0, 0, false))
}

func TestUnbindClearsBound(t *testing.T) {
	rack := NewRack(1, 0, 0, 100, 10)
	rack.Allocate(1)
	require.True(t, rack.CanBind(1, 0, 0, false))
	rack.Bind(1)

	bound, ok := rack.Bound()
	require.True(t, ok)
	require.Equal(t, AgentID(1), bound)
	require.True(t, rack.CanUnbind())

	rack.Unbind()
	assert.False(t, rack.CanUnbind())
	_, ok = rack.Bound()
	assert.False(t, ok)
}

func TestStoredWeight(t *testing.T) {
	catalog := NewItemCatalog()
	catalog.Register(1, 2.5, 100)
	catalog.Register(2, 1.0, 100)

	rack := NewRack(1, 0, 0, 1000, 5)
	rack.Stored[1] = 4
	rack.Stored[2] = 10

	got := rack.StoredWeight(catalog)
	want := 5.0 + 4*2.5 + 10*1.0
	assert.Equal(t, want, got)
}
