package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a call is rejected without being attempted.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitBreakerState is exported as the circuit_breaker_state gauge value.
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerSettings tunes a CircuitBreaker.
type BreakerSettings struct {
	// Name labels metrics and logs, e.g. "tika" or "generation".
	Name string
	// MaxFailures consecutive failures open the breaker.
	MaxFailures int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// HalfOpenProbes successful probes close it again.
	HalfOpenProbes int
	// IsFailure decides whether an error counts against the dependency.
	// Nil counts every error except the caller's own cancellation.
	IsFailure func(error) bool
}

// CircuitBreaker guards one upstream (Tika or the generation backend).
type CircuitBreaker struct {
	settings BreakerSettings
	now      func() time.Time

	mu          sync.Mutex
	state       CircuitBreakerState
	failures    int
	probes      int
	lastFailure time.Time
}

// NewCircuitBreaker opens after maxFailures consecutive failures and probes
// again once cooldown has passed.
func NewCircuitBreaker(name string, maxFailures int, cooldown time.Duration) *CircuitBreaker {
	return NewCircuitBreakerWith(BreakerSettings{Name: name, MaxFailures: maxFailures, Cooldown: cooldown})
}

// NewCircuitBreakerWith builds a breaker from s, filling zero fields.
func NewCircuitBreakerWith(s BreakerSettings) *CircuitBreaker {
	if s.MaxFailures < 1 {
		s.MaxFailures = 1
	}
	if s.HalfOpenProbes < 1 {
		s.HalfOpenProbes = 2
	}
	if s.IsFailure == nil {
		s.IsFailure = countsAsFailure
	}
	RecordCircuitBreakerStatus(s.Name, int(StateClosed))
	return &CircuitBreaker{settings: s, now: time.Now, state: StateClosed}
}

func countsAsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// Call runs fn unless the breaker is open. The lock is not held while fn runs.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.allow() {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, cb.settings.Name)
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.now().Sub(cb.lastFailure) >= cb.settings.Cooldown {
		cb.transition(StateHalfOpen)
	}
	return cb.state != StateOpen
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil && cb.settings.IsFailure(err) {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == StateHalfOpen || cb.failures >= cb.settings.MaxFailures {
			cb.transition(StateOpen)
		}
		return
	}
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes++
		if cb.probes >= cb.settings.HalfOpenProbes {
			cb.transition(StateClosed)
		}
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to CircuitBreakerState) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.probes = 0
	if to == StateClosed {
		cb.failures = 0
	}
	RecordCircuitBreakerStatus(cb.settings.Name, int(to))
	lvl := slog.LevelInfo
	if to == StateOpen {
		lvl = slog.LevelWarn
	}
	slog.Log(context.Background(), lvl, "circuit breaker state changed",
		slog.String("breaker", cb.settings.Name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Int("failures", cb.failures))
}

// GetState returns the current state.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
	cb.failures = 0
}
