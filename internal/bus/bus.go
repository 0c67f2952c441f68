// Package bus provides the in-process publish/subscribe channel that
// connects the sync engine, the lifecycle monitor, and the background
// flush agent. Publishers emit the event variants declared in models;
// subscribers receive every published event and ignore the kinds they
// do not understand.
package bus

import (
	"sync"

	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/models"
)

// Handler consumes one published event. Handlers run on the publisher's
// goroutine and must not block.
type Handler func(event models.Event)

// Bus is an in-process publish/subscribe registry. The zero value is not
// usable; construct with [New].
type Bus struct {
	logger *logger.Logger

	mu     sync.RWMutex
	nextID int64
	subs   map[int64]Handler
}

// New constructs an empty bus.
func New(log *logger.Logger) *Bus {
	return &Bus{
		logger: log,
		subs:   make(map[int64]Handler),
	}
}

// Subscription identifies one registered handler and can cancel it.
type Subscription struct {
	bus *Bus
	id  int64
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}

	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
}

// Subscribe registers a handler for every published event and returns a
// handle that cancels the registration.
func (b *Bus) Subscribe(handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[id] = handler

	return &Subscription{bus: b, id: id}
}

// Publish delivers the event to every current subscriber. Delivery order
// between subscribers is not guaranteed. A nil event is dropped.
func (b *Bus) Publish(event models.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	b.logger.Debug().
		Str("func", "Bus.Publish").
		Str("event", string(event.Kind())).
		Int("subscribers", len(handlers)).
		Msg("publishing event")

	for _, h := range handlers {
		h(event)
	}
}
