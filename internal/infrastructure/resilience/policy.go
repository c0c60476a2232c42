package resilience

import "time"

// Target groups outbound calls that share a retry policy and an error mapping.
type Target string

const (
	// TargetProvider covers completion, vision OCR and speech calls. A failed
	// provider call already becomes a rejection message, so it runs once by default.
	TargetProvider Target = "provider"
	TargetStorage  Target = "storage"
	TargetQueue    Target = "queue"
)

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// BreakerPolicy applies to every operation breaker; each operation trips on its own.
type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

type Config struct {
	Provider RetryPolicy
	Storage  RetryPolicy
	Queue    RetryPolicy
	Breaker  BreakerPolicy
}

func DefaultConfig() Config {
	return Config{
		Provider: RetryPolicy{
			MaxAttempts:    1,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     800 * time.Millisecond,
			Multiplier:     2.0,
		},
		Storage: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     400 * time.Millisecond,
			Multiplier:     2.0,
		},
		Queue: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 50 * time.Millisecond,
			MaxBackoff:     200 * time.Millisecond,
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

func (c Config) retryFor(target Target) RetryPolicy {
	switch target {
	case TargetStorage:
		return c.Storage
	case TargetQueue:
		return c.Queue
	default:
		return c.Provider
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	c.Provider = c.Provider.normalize(def.Provider)
	c.Storage = c.Storage.normalize(def.Storage)
	c.Queue = c.Queue.normalize(def.Queue)
	c.Breaker = c.Breaker.normalize(def.Breaker)
	return c
}

func (p RetryPolicy) normalize(def RetryPolicy) RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = def.MaxBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = def.Multiplier
	}
	return p
}

func (b BreakerPolicy) normalize(def BreakerPolicy) BreakerPolicy {
	if b.MinRequests == 0 {
		b.MinRequests = def.MinRequests
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		b.FailureRatio = def.FailureRatio
	}
	if b.OpenTimeout <= 0 {
		b.OpenTimeout = def.OpenTimeout
	}
	if b.HalfOpenMaxCalls == 0 {
		b.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return b
}
