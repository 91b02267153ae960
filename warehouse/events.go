package warehouse

import "github.com/hivesim/warehouse/event"

// EventFeed is the warehouse package's name for a generic event hub,
// instantiated per concrete event type (ActionEvent, LogEvent, UpdateEvent).
type EventFeed[T any] = event.Hub[T]

// NewEventFeed constructs an empty feed of T.
func NewEventFeed[T any]() *EventFeed[T] { return event.NewHub[T]() }
