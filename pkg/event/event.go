// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Gameplay event types
const (
	CraftDestroyed Type = "craft_destroyed"
	HarpoonFired   Type = "harpoon_fired"
	TetherAttached Type = "tether_attached"
	EntityDisabled Type = "entity_disabled"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler.
type Subscription struct {
	ID        uint64
	EventType Type
}

type registered struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]registered
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registered),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registered{id: id, handler: handler})
	return &Subscription{ID: id, EventType: eventType}
}

// Unsubscribe removes a subscription. Unknown or nil subscriptions are ignored.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[sub.EventType]
	for i, h := range handlers {
		if h.id == sub.ID {
			b.handlers[sub.EventType] = append(handlers[:i:i], handlers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers. Handlers run
// synchronously on the publishing goroutine, in subscription order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]registered(nil), b.handlers[event.GetType()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h.handler(event)
	}
}

// CraftEvent reports a change to the player craft.
type CraftEvent struct {
	BaseEvent
	X, Y float64
}

// NewCraftEvent creates a craft event located at (x, y).
func NewCraftEvent(eventType Type, source interface{}, x, y float64) *CraftEvent {
	return &CraftEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		X:         x,
		Y:         y,
	}
}

// TetherEvent reports a tether connecting the craft to another entity.
type TetherEvent struct {
	BaseEvent
	Target interface{}
	Length float64
}

// NewTetherEvent creates a TetherAttached event.
func NewTetherEvent(source, target interface{}, length float64) *TetherEvent {
	return &TetherEvent{
		BaseEvent: BaseEvent{EventType: TetherAttached, Source: source},
		Target:    target,
		Length:    length,
	}
}

// FaultEvent reports an entity that was taken out of the simulation after
// it failed.
type FaultEvent struct {
	BaseEvent
	Reason string
}

// NewFaultEvent creates an EntityDisabled event.
func NewFaultEvent(source interface{}, reason string) *FaultEvent {
	return &FaultEvent{
		BaseEvent: BaseEvent{EventType: EntityDisabled, Source: source},
		Reason:    reason,
	}
}
