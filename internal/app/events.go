package app

import "sync"

// EventType identifies different session events.
type EventType int

const (
	EventMarked EventType = iota
	EventImageChanged
	EventLabelChanged
	EventZoomChanged
	EventExported
	EventCatalogReloaded
	EventSessionSaved
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// events is a listener registry. Listeners run on the emitting goroutine,
// after the controller has released its lock.
type events struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventListener
}

// On registers an event listener for the specified event type.
func (e *events) On(event EventType, listener EventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (e *events) Emit(event EventType, data interface{}) {
	e.mu.RLock()
	listeners := e.listeners[event]
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
