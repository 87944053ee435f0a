package connectivity

import "testing"

func TestNew_ProbesInitialState(t *testing.T) {
	offline := New(func() bool { return false })
	if offline.Online() {
		t.Error("monitor should start offline when probe says offline")
	}

	online := New(func() bool { return true })
	if !online.Online() {
		t.Error("monitor should start online when probe says online")
	}
}

func TestSetOnline_NotifiesOnTransitionsOnly(t *testing.T) {
	m := New(func() bool { return true })

	var got []bool
	cancel := m.Subscribe(func(online bool) { got = append(got, online) })
	defer cancel()

	m.SetOnline(true)  // no transition
	m.SetOnline(false) // went-offline
	m.SetOnline(false) // no transition
	m.SetOnline(true)  // came-online

	want := []bool{false, true}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSubscribe_CancelStopsNotifications(t *testing.T) {
	m := New(func() bool { return true })

	count := 0
	cancel := m.Subscribe(func(bool) { count++ })
	m.SetOnline(false)
	cancel()
	m.SetOnline(true)

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
