// Package orchestrator routes classified chat turns to the right agent and
// shields the pipeline from failing agents with per-agent circuit breakers.
package orchestrator

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's observable state.
type BreakerState string

const (
	// StateClosed lets requests through and counts consecutive failures.
	StateClosed BreakerState = "closed"
	// StateOpen rejects requests until the recovery timeout elapses.
	StateOpen BreakerState = "open"
	// StateHalfOpen lets one probe request decide the next state.
	StateHalfOpen BreakerState = "half_open"
)

const (
	defaultFailureThreshold = 3
	defaultRecoveryTimeout  = 30 * time.Second
)

// Breaker is a three-state circuit breaker guarding one agent. The open to
// half_open transition happens lazily inside State once the recovery timeout
// has elapsed since the last failure; there is no background timer.
type Breaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	recoveryTimeout  time.Duration

	state        BreakerState
	failures     int
	lastFailure  time.Time
	onTransition func(name string, from, to BreakerState)

	// now is swappable in tests.
	now func() time.Time
}

// BreakerOption tweaks a breaker at construction.
type BreakerOption func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithRecoveryTimeout sets how long the circuit stays open before a probe is
// allowed.
func WithRecoveryTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.recoveryTimeout = d
		}
	}
}

// WithTransitionHook registers a callback invoked (outside the lock) on every
// state change.
func WithTransitionHook(hook func(name string, from, to BreakerState)) BreakerOption {
	return func(b *Breaker) { b.onTransition = hook }
}

func withClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) { b.now = now }
}

// NewBreaker creates a closed breaker for the named agent.
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: defaultFailureThreshold,
		recoveryTimeout:  defaultRecoveryTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state, promoting open to half_open when the
// recovery timeout has elapsed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	state, hook := b.stateLocked()
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	return state
}

// stateLocked resolves the lazy open to half_open promotion. It returns a
// deferred transition hook so callbacks never run under the lock.
func (b *Breaker) stateLocked() (BreakerState, func()) {
	if b.state == StateOpen && b.now().Sub(b.lastFailure) > b.recoveryTimeout {
		b.state = StateHalfOpen
		return b.state, b.transitionHook(StateOpen, StateHalfOpen)
	}
	return b.state, nil
}

// IsAvailable reports whether a request may be sent through the breaker.
// Only the open state rejects.
func (b *Breaker) IsAvailable() bool {
	return b.State() != StateOpen
}

// RecordSuccess closes the circuit and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	from := b.state
	b.failures = 0
	b.state = StateClosed
	var hook func()
	if from != StateClosed {
		hook = b.transitionHook(from, StateClosed)
	}
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// RecordFailure counts a failure. The circuit opens at the failure threshold,
// and a half_open probe failure reopens it immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	from, promoted := b.stateLocked()
	b.failures++
	b.lastFailure = b.now()

	var hook func()
	switch {
	case from == StateHalfOpen:
		b.state = StateOpen
		hook = b.transitionHook(StateHalfOpen, StateOpen)
	case from == StateClosed && b.failures >= b.failureThreshold:
		b.state = StateOpen
		hook = b.transitionHook(StateClosed, StateOpen)
	}
	b.mu.Unlock()
	if promoted != nil {
		promoted()
	}
	if hook != nil {
		hook()
	}
}

func (b *Breaker) transitionHook(from, to BreakerState) func() {
	if b.onTransition == nil {
		return nil
	}
	name := b.name
	callback := b.onTransition
	return func() { callback(name, from, to) }
}
