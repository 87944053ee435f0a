// Package navigator decides, per outbound in-app link, between a soft
// in-app transition and a hard full-document navigation.
//
// The decision is the load-bearing part of offline reading: soft
// transitions fetch lightweight data payloads the background caching
// proxy cannot intercept as documents, so while offline the only way to
// guarantee the cached-document tier is consulted is a full document
// request. An implementation that always navigates softly will fail
// offline even with a perfectly populated cache.
package navigator

import (
	"sync"

	"github.com/kitab-io/kitab/internal/connectivity"
)

// Mode is the navigator's two-state machine state.
type Mode int

const (
	// ModeOnline routes links through soft in-app transitions.
	ModeOnline Mode = iota + 1
	// ModeOffline routes links through hard document navigations.
	ModeOffline
)

func (m Mode) String() string {
	switch m {
	case ModeOnline:
		return "online"
	case ModeOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Kind is the transport chosen for one navigation.
type Kind int

const (
	// KindSoft is an in-app transition: preserves client state, fetches
	// partial data over the network.
	KindSoft Kind = iota + 1
	// KindHard is a full document navigation: reissues the document
	// request so the caching proxy's document tier is consulted.
	KindHard
)

func (k Kind) String() string {
	switch k {
	case KindSoft:
		return "soft"
	case KindHard:
		return "hard"
	default:
		return "unknown"
	}
}

// Navigation is the navigator's decision for one link activation.
type Navigation struct {
	Kind   Kind
	Target string
}

// Navigator centralizes the soft-vs-hard decision so it lives in one
// testable state machine instead of being duplicated at each link.
//
// Transitions are driven only by the connectivity monitor's events; the
// initial mode comes from the monitor's probed state at construction,
// never from an assumed-online default.
type Navigator struct {
	mu     sync.Mutex
	mode   Mode
	cancel func()
}

// New creates a navigator tracking the given monitor.
func New(monitor *connectivity.Monitor) *Navigator {
	n := &Navigator{}
	if monitor.Online() {
		n.mode = ModeOnline
	} else {
		n.mode = ModeOffline
	}
	n.cancel = monitor.Subscribe(func(online bool) {
		n.mu.Lock()
		if online {
			n.mode = ModeOnline
		} else {
			n.mode = ModeOffline
		}
		n.mu.Unlock()
	})
	return n
}

// Mode returns the current state.
func (n *Navigator) Mode() Mode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mode
}

// Navigate decides the transport for a link activation. The target is
// identical in both modes; only the mechanism changes.
func (n *Navigator) Navigate(target string) Navigation {
	n.mu.Lock()
	mode := n.mode
	n.mu.Unlock()

	if mode == ModeOffline {
		return Navigation{Kind: KindHard, Target: target}
	}
	return Navigation{Kind: KindSoft, Target: target}
}

// Close detaches the navigator from the connectivity monitor.
func (n *Navigator) Close() {
	if n.cancel != nil {
		n.cancel()
	}
}
