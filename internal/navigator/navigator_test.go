package navigator

import (
	"testing"

	"github.com/kitab-io/kitab/internal/connectivity"
)

func TestNew_InitialModeFromProbe(t *testing.T) {
	offline := New(connectivity.New(func() bool { return false }))
	defer offline.Close()
	if offline.Mode() != ModeOffline {
		t.Errorf("mode = %v, want offline (probe said offline)", offline.Mode())
	}

	online := New(connectivity.New(func() bool { return true }))
	defer online.Close()
	if online.Mode() != ModeOnline {
		t.Errorf("mode = %v, want online", online.Mode())
	}
}

func TestNavigate_SoftOnlineHardOffline(t *testing.T) {
	monitor := connectivity.New(func() bool { return true })
	n := New(monitor)
	defer n.Close()

	nav := n.Navigate("/section/2")
	if nav.Kind != KindSoft {
		t.Errorf("online navigation kind = %v, want soft", nav.Kind)
	}

	monitor.SetOnline(false)
	nav = n.Navigate("/section/2")
	if nav.Kind != KindHard {
		t.Errorf("offline navigation kind = %v, want hard", nav.Kind)
	}
	if nav.Target != "/section/2" {
		t.Errorf("target changed across modes: %q", nav.Target)
	}

	monitor.SetOnline(true)
	if n.Navigate("/section/2").Kind != KindSoft {
		t.Error("came-online should restore soft navigation")
	}
}

func TestClose_DetachesFromMonitor(t *testing.T) {
	monitor := connectivity.New(func() bool { return true })
	n := New(monitor)
	n.Close()

	monitor.SetOnline(false)
	if n.Mode() != ModeOnline {
		t.Error("closed navigator should stop tracking transitions")
	}
}
