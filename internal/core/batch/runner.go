package batch

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
)

const DefaultConcurrency = 5

// Verifier runs a single verification.
type Verifier interface {
	Verify(ctx context.Context, image model.Image, app *model.ApplicationData) (model.VerificationResult, error)
}

// Runner verifies the complete pairs of a batch concurrently. At most
// Concurrency oracle calls are in flight and Limiter paces their start.
type Runner struct {
	Verifier    Verifier
	Concurrency int
	Limiter     *rate.Limiter
	Logger      *zap.Logger
}

// NewRunner builds a runner. A ratePerSecond of zero disables pacing.
func NewRunner(v Verifier, concurrency int, ratePerSecond float64, logger *zap.Logger) *Runner {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Verifier:    v,
		Concurrency: concurrency,
		Limiter:     rate.NewLimiter(limit, concurrency),
		Logger:      logger,
	}
}

// Run fills in Result or Error on every pair of b. A failing pair never
// stops the others; the returned error is only the caller's ctx error.
func (r *Runner) Run(ctx context.Context, b *model.VerificationBatch) error {
	log := r.Logger.With(zap.String("batch_id", b.ID))
	started := time.Now()
	var failed atomic.Int32

	g := new(errgroup.Group)
	g.SetLimit(r.Concurrency)

	for _, p := range b.Pairs {
		p := p
		switch p.Status {
		case model.PairMissingImage:
			p.Error = "no label image matches this application"
			continue
		case model.PairMissingApplication:
			p.Error = "no application matches this label image"
			continue
		}

		g.Go(func() error {
			if err := r.Limiter.Wait(ctx); err != nil {
				p.Error = errs.FailureMessage
				failed.Add(1)
				return nil
			}
			res, err := r.Verifier.Verify(ctx, *p.Image, p.Application)
			if err != nil {
				p.Error = errs.Message(err)
				failed.Add(1)
				log.Warn("pair failed",
					zap.String("pair_id", p.ID),
					zap.String("image", p.ImageName),
					zap.Error(err))
				return nil
			}
			p.Result = &res
			return nil
		})
	}
	_ = g.Wait()

	log.Info("batch completed",
		zap.Int("pairs", len(b.Pairs)),
		zap.Int32("failed", failed.Load()),
		zap.Duration("elapsed", time.Since(started)))
	return ctx.Err()
}

// Tally counts pairs by overall status. Pairs without a result are
// counted under "error".
func Tally(b *model.VerificationBatch) map[string]int {
	out := make(map[string]int)
	for _, p := range b.Pairs {
		if p.Result == nil {
			out["error"]++
			continue
		}
		out[string(p.Result.OverallStatus)]++
	}
	return out
}
