// Package identity derives the active storage key from session state.
//
// Progress and bookmarks are partitioned by storage identity: the
// anonymous device identity before login, the authenticated user id
// after. Switching identity switches the key wholesale - there is no
// automatic carry-over of data between identities.
package identity

import (
	"strings"
	"sync"

	"github.com/kitab-io/kitab/internal/reading"
)

// Session is the minimal view of the auth provider's state this core
// depends on. An empty UserID means unauthenticated.
type Session struct {
	UserID string
}

// Resolve returns the storage identity for a session: the authenticated
// user id when present, else the anonymous identity. Pure function.
func Resolve(s Session) string {
	if id := strings.TrimSpace(s.UserID); id != "" {
		return id
	}
	return reading.Guest
}

// Watcher holds the current session and re-resolves the identity on
// every change, notifying subscribers so dependent reads and writes
// re-key immediately on login/logout.
//
// Thread-safety: all methods are safe for concurrent use. Callbacks run
// synchronously on the goroutine that called Set.
type Watcher struct {
	mu      sync.Mutex
	session Session
	subs    map[int]func(identity string)
	nextID  int
}

// NewWatcher creates a watcher holding the given initial session.
func NewWatcher(initial Session) *Watcher {
	return &Watcher{
		session: initial,
		subs:    make(map[int]func(string)),
	}
}

// Identity returns the storage identity for the current session.
func (w *Watcher) Identity() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Resolve(w.session)
}

// Set replaces the session. Subscribers are notified only when the
// resolved identity actually changed.
func (w *Watcher) Set(s Session) {
	w.mu.Lock()
	prev := Resolve(w.session)
	w.session = s
	next := Resolve(s)
	var subs []func(string)
	if next != prev {
		subs = make([]func(string), 0, len(w.subs))
		for _, fn := range w.subs {
			subs = append(subs, fn)
		}
	}
	w.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// Subscribe registers a callback invoked with the new identity on every
// identity change. Returns a cancel function removing the subscription.
func (w *Watcher) Subscribe(fn func(identity string)) (cancel func()) {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}
