package llm

import (
	"math/rand/v2"
	"time"
)

// RetryConfig holds retry configuration for LLM requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per endpoint.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration

	// Jitter is the relative spread applied to each backoff, 0.25 meaning
	// +/-25%.
	Jitter float64
}

// DefaultRetryConfig returns the default retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
		Jitter:            0.25,
	}
}

// Backoff returns the wait before the retry following attempt (1-based):
// BackoffBase * BackoffMultiplier^(attempt-1), capped at MaxBackoff, then
// spread by Jitter.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	backoff := float64(c.BackoffBase)
	for i := 1; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
		if c.MaxBackoff > 0 && backoff >= float64(c.MaxBackoff) {
			break
		}
	}
	if c.MaxBackoff > 0 && backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}

	if c.Jitter > 0 {
		backoff += backoff * c.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(backoff)
}

func (c RetryConfig) attempts() int {
	return max(c.MaxAttempts, 1)
}
