package queue

import (
	"testing"
	"time"
)

func TestParseItemState(t *testing.T) {
	tests := []struct {
		input string
		want  ItemState
		ok    bool
	}{
		{"queued", ItemQueued, true},
		{" Active ", ItemActive, true},
		{"GIVEN_UP", ItemGivenUp, true},
		{"succeeded", ItemSucceeded, true},
		{"error", ItemError, true},
		{"", "", false},
		{"bogus", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseItemState(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseItemState(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, state := range AllItemStates() {
		want := state == ItemSucceeded || state == ItemGivenUp
		if state.Terminal() != want {
			t.Fatalf("Terminal(%q) = %v, want %v", state, state.Terminal(), want)
		}
	}
}

func TestDeriveState(t *testing.T) {
	entered := time.Now().UTC()
	tests := []struct {
		name   string
		paused bool
		head   *ItemStatus
		want   State
	}{
		{"empty running", false, nil, StateRunning},
		{"paused wins", true, &ItemStatus{State: ItemError, Entered: entered}, StatePaused},
		{"fresh head running", false, &ItemStatus{State: ItemQueued, Entered: entered}, StateRunning},
		{"active head running", false, &ItemStatus{State: ItemActive, Attempts: 1, Entered: entered}, StateRunning},
		{"error head blocked", false, &ItemStatus{State: ItemError, Attempts: 1, Entered: entered}, StateBlocked},
		{"retry wait blocked", false, &ItemStatus{State: ItemQueued, Attempts: 2, Entered: entered}, StateBlocked},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := deriveState(tc.paused, tc.head); got != tc.want {
				t.Fatalf("deriveState = %q, want %q", got, tc.want)
			}
		})
	}
}
