package retry

import (
	"testing"
	"time"
)

// TestMachineRetryableExhaustsAfterThreeAttempts: with the default budget of
// two retries a persistently failing transient upstream gets exactly three attempts.
func TestMachineRetryableExhaustsAfterThreeAttempts(t *testing.T) {
	m := NewMachine(DefaultPolicy())

	for i := 1; i <= 2; i++ {
		if m.State() != StateAttempting {
			t.Fatalf("attempt %d: expected attempting got %s", i, m.State())
		}
		if got := m.Attempt(); got != i {
			t.Fatalf("expected in-flight attempt %d got %d", i, got)
		}
		m.Observe(OutcomeRetryable)
		if m.State() != StateBackoff {
			t.Fatalf("after failure %d expected backoff got %s", i, m.State())
		}
		m.Next()
	}

	m.Observe(OutcomeRetryable)
	if m.State() != StateExhausted {
		t.Fatalf("expected exhausted got %s", m.State())
	}
	if !m.Done() {
		t.Fatal("exhausted machine should report done")
	}
	if m.Attempts() != 3 {
		t.Fatalf("expected 3 attempts got %d", m.Attempts())
	}
}

// TestMachineFatalStopsImmediately: a client error never earns a retry.
func TestMachineFatalStopsImmediately(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	m.Observe(OutcomeFatal)
	if m.State() != StateExhausted {
		t.Fatalf("expected exhausted got %s", m.State())
	}
	if m.Attempts() != 1 {
		t.Fatalf("expected exactly 1 attempt got %d", m.Attempts())
	}
}

func TestMachineSuccessTerminates(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	m.Observe(OutcomeRetryable)
	m.Next()
	m.Observe(OutcomeSuccess)
	if m.State() != StateSucceeded {
		t.Fatalf("expected succeeded got %s", m.State())
	}
	if !m.Done() {
		t.Fatal("succeeded machine should report done")
	}
	if m.Attempts() != 2 {
		t.Fatalf("expected 2 attempts got %d", m.Attempts())
	}
	// terminal states ignore further observations
	m.Observe(OutcomeRetryable)
	if m.State() != StateSucceeded {
		t.Fatalf("terminal state changed to %s", m.State())
	}
}

// TestMachineBackoffSchedule verifies the 2s/4s exponential schedule the
// default policy produces for the first two retries.
func TestMachineBackoffSchedule(t *testing.T) {
	m := NewMachine(DefaultPolicy())

	m.Observe(OutcomeRetryable)
	if d := m.BackoffDelay(); d != 2*time.Second {
		t.Fatalf("first backoff expected 2s got %v", d)
	}
	m.Next()

	m.Observe(OutcomeRetryable)
	if d := m.BackoffDelay(); d != 4*time.Second {
		t.Fatalf("second backoff expected 4s got %v", d)
	}
}

func TestMachineBackoffDelayOutsideBackoffIsZero(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	if d := m.BackoffDelay(); d != 0 {
		t.Fatalf("expected 0 outside backoff got %v", d)
	}
}

func TestMachineCancel(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	m.Observe(OutcomeRetryable)
	m.Cancel()
	if m.State() != StateExhausted {
		t.Fatalf("expected exhausted after cancel got %s", m.State())
	}
	if !m.Done() {
		t.Fatal("canceled machine should report done")
	}
}

// TestMachineZeroRetries: maxRetries 0 means a single attempt only.
func TestMachineZeroRetries(t *testing.T) {
	p := DefaultPolicy()
	p.MaxRetries = 0
	m := NewMachine(p)
	m.Observe(OutcomeRetryable)
	if m.State() != StateExhausted {
		t.Fatalf("expected exhausted got %s", m.State())
	}
	if m.Attempts() != 1 {
		t.Fatalf("expected 1 attempt got %d", m.Attempts())
	}
}
