package api

import (
	"context"
	"time"

	"github.com/julianstephens/goaltrack/internal/constants"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/logger"
)

// RetryOptions bounds retries of read requests.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = constants.DefaultReadAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = constants.DefaultRetryDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = constants.DefaultRetryMaxDelay
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	return o
}

// withRetry runs operation until it succeeds, fails with a non-network
// error, or exhausts opts.MaxAttempts. The last error is returned as is.
func withRetry(ctx context.Context, op string, operation func() error, opts RetryOptions) error {
	opts = opts.withDefaults()
	delay := opts.InitialDelay

	var err error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}
		if !apperrors.Is(err, apperrors.KindNetwork) || ctx.Err() != nil {
			return err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		logger.Warn("Read failed, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * opts.Multiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
	return err
}
