package event

import "sync"

// Bus is an in-process broadcast channel for change notifications.
//
// Publish stamps each event with the next clock seq and hands it to
// every subscriber. Delivery is synchronous on the publisher's
// goroutine, which preserves the guarantee that an event is observed
// only after the write it describes was durably acknowledged - the
// publisher calls Publish strictly after the store write returns.
//
// Thread-safety: Publish and Subscribe may be called from any
// goroutine. Subscribers must not block for long; they are on the
// mutation path.
type Bus struct {
	mu     sync.Mutex
	clock  *Clock
	ids    IDGenerator
	subs   map[int]func(Event)
	nextID int
	closed bool
}

// NewBus creates a bus using UUIDv7 event IDs.
func NewBus() *Bus {
	return NewBusWithIDs(UUIDv7Generator{})
}

// NewBusWithIDs creates a bus with a custom ID generator (for tests).
func NewBusWithIDs(ids IDGenerator) *Bus {
	return &Bus{
		clock: NewClock(),
		ids:   ids,
		subs:  make(map[int]func(Event)),
	}
}

// Publish stamps the event with an ID and seq and delivers it to all
// current subscribers. Returns false if the bus is closed.
func (b *Bus) Publish(e Event) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	e.ID = b.ids.Generate()
	e.Seq = b.clock.Next()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
	return true
}

// Subscribe registers a consumer. Returns a cancel function.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Close stops the bus; further publishes return false.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.subs = make(map[int]func(Event))
	b.mu.Unlock()
}

// Seq returns the last assigned sequence number.
func (b *Bus) Seq() int64 {
	return b.clock.Current()
}
