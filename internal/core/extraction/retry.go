package extraction

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/labelcheck/internal/config"
	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
)

// Retrying bounds every oracle attempt with Timeout and repeats
// retryable failures up to Retries times, doubling the wait from Backoff.
type Retrying struct {
	Oracle  Oracle
	Timeout time.Duration
	Retries int
	Backoff time.Duration
	Logger  *zap.Logger
}

func WithRetry(o Oracle, cfg config.OracleConfig, logger *zap.Logger) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{
		Oracle:  o,
		Timeout: cfg.Timeout(),
		Retries: cfg.Retries,
		Backoff: cfg.Backoff(),
		Logger:  logger,
	}
}

func (r *Retrying) Extract(ctx context.Context, req Request) (model.Extraction, error) {
	var lastErr error
	delay := r.Backoff

	for attempt := 0; attempt <= r.Retries; attempt++ {
		if attempt > 0 {
			r.Logger.Warn("oracle call failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(lastErr))
			if err := sleep(ctx, delay); err != nil {
				return nil, lastErr
			}
			delay *= 2
		}

		out, err := r.attempt(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !errs.IsRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
	}

	r.Logger.Error("oracle retries exhausted", zap.Int("attempts", r.Retries+1), zap.Error(lastErr))
	return nil, lastErr
}

func (r *Retrying) attempt(ctx context.Context, req Request) (model.Extraction, error) {
	const op = "extraction.attempt"

	actx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	out, err := r.Oracle.Extract(actx, req)
	if err == nil {
		return out, nil
	}
	if errs.Is(err, errs.KindOracleContract) || errs.Is(err, errs.KindConfiguration) || errs.Is(err, errs.KindValidation) {
		return nil, err
	}
	if errors.Is(actx.Err(), context.DeadlineExceeded) {
		return nil, errs.Timeout(op, err)
	}
	return nil, Classify(actx, op, err, false)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
