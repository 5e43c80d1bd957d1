// Package executor implements the bounded-concurrency job scheduler &
// fan-out dispatcher (spec §4.E): a fixed-size worker pool draining a
// bounded work-item queue, retry with exponential backoff, cancellation,
// and time/cost/request-count budget enforcement. Grounded on the
// teacher's pkg/queue/pool.go (WorkerPool/Worker pair, session cancel
// registry) and pkg/queue/executor.go (goroutine-per-unit dispatch,
// channel-collect, sort-by-index).
package executor

import "sync"

// targetState is the per-target state machine from §4.E:
// ready -> active -> (active | quarantined) -> drained.
type targetState int

const (
	stateReady targetState = iota
	stateActive
	stateQuarantined
	stateDrained
)

// targetTracker guards one target's state and consecutive-connection-error
// count behind a single mutex; transitions are monotonic.
type targetTracker struct {
	mu                     sync.Mutex
	state                  targetState
	consecutiveConnErrors  int
	inFlight               int
}

func newTargetTracker() *targetTracker {
	return &targetTracker{state: stateReady}
}

// markDispatched transitions ready->active on first dispatch and tracks an
// in-flight call. Returns false if the target is already quarantined or
// drained (caller must not dispatch).
func (t *targetTracker) markDispatched() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == stateQuarantined || t.state == stateDrained {
		return false
	}
	if t.state == stateReady {
		t.state = stateActive
	}
	t.inFlight++
	return true
}

// isQuarantined reports the current quarantine status without mutating
// in-flight count.
func (t *targetTracker) isQuarantined() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == stateQuarantined
}

// recordOutcome updates the consecutive-connection-error counter and
// quarantines the target on authentication failure or 3+ consecutive
// connection errors (§4.E). Returns true if this call caused quarantine.
func (t *targetTracker) recordOutcome(errKind string, success bool) (justQuarantined bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inFlight--

	if success {
		t.consecutiveConnErrors = 0
		return false
	}

	if errKind == "authentication_error" {
		if t.state != stateQuarantined {
			t.state = stateQuarantined
			return true
		}
		return false
	}

	if errKind == "connection_error" {
		t.consecutiveConnErrors++
		if t.consecutiveConnErrors >= 3 && t.state != stateQuarantined {
			t.state = stateQuarantined
			return true
		}
	} else {
		t.consecutiveConnErrors = 0
	}
	return false
}

// drain transitions active->drained once all in-flight work on the target
// has finished. Safe to call from the finalizer; no-op if already drained.
func (t *targetTracker) drain() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != stateDrained {
		t.state = stateDrained
	}
}
