package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderAggregatesLines(t *testing.T) {
	o := NewOrder(1, OrderCollect, 10, []ItemLine{{Item: 1, Qty: 3}, {Item: 1, Qty: 2}, {Item: 2, Qty: 1}})
	assert.Equal(t, 5, o.Pending[1])
	assert.Equal(t, 1, o.Pending[2])
	assert.Equal(t, 6, o.TotalPending())
}

func TestOrderAttachDetachLifecycle(t *testing.T) {
	o := NewOrder(1, OrderCollect, 10, []ItemLine{{Item: 1, Qty: 3}})
	assert.Equal(t, OrderInactive, o.Status)

	o.AttachTask(100)
	assert.Equal(t, OrderActive, o.Status)
	assert.Equal(t, 1, o.TaskCount())

	o.DetachTask(100)
	assert.Equal(t, 0, o.TaskCount())
	assert.Equal(t, OrderInactive, o.Status, "an order with remaining pending units reverts to inactive once its task is detached")
}

func TestOrderCompleteZeroesPending(t *testing.T) {
	o := NewOrder(1, OrderCollect, 10, []ItemLine{{Item: 1, Qty: 3}})
	o.Complete(1, 3)
	assert.Equal(t, 0, o.TotalPending())
	_, ok := o.Pending[1]
	assert.False(t, ok)
}

func TestOrderFulfilDoesNotDetachTasks(t *testing.T) {
	o := NewOrder(1, OrderCollect, 10, []ItemLine{{Item: 1, Qty: 1}})
	o.AttachTask(5)
	o.Complete(1, 1)
	o.Fulfil()
	assert.Equal(t, OrderFulfilled, o.Status)
	assert.Equal(t, 1, o.TaskCount())
}
