package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Outcome tells the executor how to treat a failed call.
type Outcome struct {
	Retryable     bool
	RecordFailure bool
}

type Classifier func(err error) Outcome

// Observer receives retry and breaker events, typically for metrics.
type Observer interface {
	ObserveRetry(operation string, attempt int)
	ObserveBreakerState(operation string, state string)
}

type Executor struct {
	policy   Policy
	observer Observer

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(policy Policy) *Executor {
	return &Executor{
		policy:   policy.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

func (e *Executor) WithObserver(observer Observer) *Executor {
	e.observer = observer
	return e
}

// Run calls fn under the retry policy and, when enabled, behind a circuit
// breaker keyed by operation. A nil classifier treats every error as final.
func (e *Executor) Run(ctx context.Context, operation string, fn func(context.Context) error, classify Classifier) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classify == nil {
		classify = Final
	}

	if !e.policy.Breaker.Enabled {
		return e.retry(ctx, op, fn, classify)
	}

	breaker := e.breaker(op, classify)
	_, err := breaker.Execute(func() (struct{}, error) {
		return struct{}{}, e.retry(ctx, op, fn, classify)
	})
	return err
}

func (e *Executor) retry(ctx context.Context, operation string, fn func(context.Context) error, classify Classifier) error {
	rp := e.policy.Retry
	backoff := rp.InitialBackoff

	var err error
	for attempt := 1; attempt <= rp.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !classify(err).Retryable || attempt == rp.MaxAttempts {
			return err
		}

		wait := min(backoff, rp.MaxBackoff)
		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", rp.MaxAttempts,
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", err,
		)
		if e.observer != nil {
			e.observer.ObserveRetry(operation, attempt)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		backoff = min(time.Duration(float64(backoff)*rp.Multiplier), rp.MaxBackoff)
	}
	return err
}

func (e *Executor) breaker(operation string, classify Classifier) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[operation]; ok {
		return cb
	}

	bp := e.policy.Breaker
	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: bp.HalfOpenMaxCalls,
		Timeout:     bp.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bp.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bp.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).RecordFailure
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
			if e.observer != nil {
				e.observer.ObserveBreakerState(name, to.String())
			}
		},
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](settings)
	e.breakers[operation] = cb
	return cb
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Final never retries and counts the error against the breaker.
func Final(error) Outcome {
	return Outcome{RecordFailure: true}
}

// Transient retries and counts the error against the breaker.
func Transient() Outcome {
	return Outcome{Retryable: true, RecordFailure: true}
}

// ContextOutcome reports caller cancellation, which is neither retried nor
// held against the dependency.
func ContextOutcome(err error) (Outcome, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{}, true
	}
	if IsCircuitOpen(err) {
		return Transient(), true
	}
	return Outcome{}, false
}
