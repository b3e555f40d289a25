package config

import "time"

// PollConfig bounds the wait on an asynchronous OCR job.
type PollConfig struct {
	// InitialInterval is the delay before the second poll.
	InitialInterval time.Duration
	// MaxInterval caps the exponential growth of the delay.
	MaxInterval time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
	// MaxAttempts is the maximum number of polls.
	MaxAttempts int
	// Timeout is the overall deadline for the wait.
	Timeout time.Duration
}

// GetPollConfig returns the OCR poll bounds.
func (c Config) GetPollConfig() PollConfig {
	if c.IsTest() {
		return PollConfig{
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      1.5,
			MaxAttempts:     c.OCRPollMaxAttempts,
			Timeout:         2 * time.Second,
		}
	}
	return PollConfig{
		InitialInterval: c.OCRPollInterval,
		MaxInterval:     c.OCRPollMaxInterval,
		Multiplier:      c.OCRPollMultiplier,
		MaxAttempts:     c.OCRPollMaxAttempts,
		Timeout:         c.OCRPollTimeout,
	}
}
