package resilience

import "time"

// RetryPolicy bounds the attempts made for one call.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// BreakerPolicy configures the per-operation circuit breaker.
type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

type Policy struct {
	Retry   RetryPolicy
	Breaker BreakerPolicy
}

func DefaultPolicy() Policy {
	return Policy{
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     400 * time.Millisecond,
			Multiplier:     2.0,
		},
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      10,
			FailureRatio:     0.5,
			OpenTimeout:      30 * time.Second,
			HalfOpenMaxCalls: 2,
		},
	}
}

func (p Policy) normalize() Policy {
	out := p
	def := DefaultPolicy()

	if out.Retry.MaxAttempts <= 0 {
		out.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if out.Retry.InitialBackoff <= 0 {
		out.Retry.InitialBackoff = def.Retry.InitialBackoff
	}
	if out.Retry.MaxBackoff <= 0 {
		out.Retry.MaxBackoff = def.Retry.MaxBackoff
	}
	if out.Retry.MaxBackoff < out.Retry.InitialBackoff {
		out.Retry.MaxBackoff = out.Retry.InitialBackoff
	}
	if out.Retry.Multiplier < 1.0 {
		out.Retry.Multiplier = def.Retry.Multiplier
	}

	if out.Breaker.MinRequests == 0 {
		out.Breaker.MinRequests = def.Breaker.MinRequests
	}
	if out.Breaker.FailureRatio <= 0 || out.Breaker.FailureRatio > 1 {
		out.Breaker.FailureRatio = def.Breaker.FailureRatio
	}
	if out.Breaker.OpenTimeout <= 0 {
		out.Breaker.OpenTimeout = def.Breaker.OpenTimeout
	}
	if out.Breaker.HalfOpenMaxCalls == 0 {
		out.Breaker.HalfOpenMaxCalls = def.Breaker.HalfOpenMaxCalls
	}
	return out
}
