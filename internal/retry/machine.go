package retry

import "time"

// State enumerates the attempt lifecycle states.
type State string

const (
	StateAttempting State = "attempting"
	StateBackoff    State = "backoff"
	StateSucceeded  State = "succeeded"
	StateExhausted  State = "exhausted"
)

// Outcome classifies a single attempt's result for the machine.
type Outcome int

const (
	// OutcomeSuccess terminates the machine in StateSucceeded.
	OutcomeSuccess Outcome = iota
	// OutcomeRetryable (5xx, network error, timeout) transitions to backoff
	// while budget remains, otherwise to exhausted.
	OutcomeRetryable
	// OutcomeFatal (4xx) transitions to exhausted immediately; the condition
	// is non-transient and retrying wastes the backoff budget.
	OutcomeFatal
)

// Machine drives the attempt lifecycle for a single logical fetch. It keeps
// the retry contract testable independently of the HTTP call itself.
type Machine struct {
	policy  Policy
	state   State
	attempt int // attempts made so far
}

// NewMachine returns a machine ready for its first attempt.
func NewMachine(policy Policy) *Machine {
	return &Machine{policy: policy, state: StateAttempting}
}

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// Attempt returns the 1-based number of the attempt currently in flight,
// valid while the machine is in StateAttempting.
func (m *Machine) Attempt() int { return m.attempt + 1 }

// Attempts returns the total attempts made so far.
func (m *Machine) Attempts() int { return m.attempt }

// Observe records an attempt outcome and advances the state.
func (m *Machine) Observe(o Outcome) {
	if m.state != StateAttempting {
		return
	}
	m.attempt++
	switch o {
	case OutcomeSuccess:
		m.state = StateSucceeded
	case OutcomeFatal:
		m.state = StateExhausted
	case OutcomeRetryable:
		if m.attempt > m.policy.MaxRetries {
			m.state = StateExhausted
		} else {
			m.state = StateBackoff
		}
	}
}

// BackoffDelay returns the delay before the next attempt. Only meaningful in
// StateBackoff; the retry count equals the attempts already failed.
func (m *Machine) BackoffDelay() time.Duration {
	if m.state != StateBackoff {
		return 0
	}
	return m.policy.Delay(m.attempt)
}

// Next transitions Backoff -> Attempting after the caller has slept (or had
// its context canceled, in which case Cancel should be used instead).
func (m *Machine) Next() {
	if m.state == StateBackoff {
		m.state = StateAttempting
	}
}

// Cancel terminates the machine, treating cancellation as exhaustion.
func (m *Machine) Cancel() {
	if m.state == StateAttempting || m.state == StateBackoff {
		m.state = StateExhausted
	}
}

// Done reports whether the machine reached a terminal state.
func (m *Machine) Done() bool {
	return m.state == StateSucceeded || m.state == StateExhausted
}
