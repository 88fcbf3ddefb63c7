package calls

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to CallStatus
		want     bool
	}{
		{CallStatusInitiated, CallStatusInProgress, true},
		{CallStatusInitiated, CallStatusCompleted, true},
		{CallStatusInitiated, CallStatusFailed, true},
		{CallStatusInProgress, CallStatusCompleted, true},
		{CallStatusInProgress, CallStatusFailed, true},

		// same-status reapplication is allowed (no-op at the store)
		{CallStatusInitiated, CallStatusInitiated, true},
		{CallStatusCompleted, CallStatusCompleted, true},

		// no regressions out of terminal states
		{CallStatusCompleted, CallStatusInitiated, false},
		{CallStatusCompleted, CallStatusInProgress, false},
		{CallStatusCompleted, CallStatusFailed, false},
		{CallStatusFailed, CallStatusCompleted, false},
		{CallStatusFailed, CallStatusInProgress, false},

		// in_progress never moves back to initiated
		{CallStatusInProgress, CallStatusInitiated, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if CallStatusInitiated.IsTerminal() || CallStatusInProgress.IsTerminal() {
		t.Fatalf("live statuses must not be terminal")
	}
	if !CallStatusCompleted.IsTerminal() || !CallStatusFailed.IsTerminal() {
		t.Fatalf("completed and failed must be terminal")
	}
}
