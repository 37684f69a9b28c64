package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/labelcheck/internal/core/compare"
	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/extraction"
	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/core/schema"
	"github.com/agenthands/labelcheck/internal/core/summary"
)

// State is the progress of one verification.
type State int

const (
	StateIdle State = iota
	StateSubmitted
	StateAwaitingOracle
	StateComparing
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitted:
		return "submitted"
	case StateAwaitingOracle:
		return "awaiting_oracle"
	case StateComparing:
		return "comparing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Verifier checks one label image against its application.
type Verifier struct {
	Oracle     extraction.Oracle
	Schema     *schema.Schema
	Comparator *compare.Comparator
	Logger     *zap.Logger

	// OnTransition, when set, is called on every state change.
	OnTransition func(id string, from, to State)
}

func NewVerifier(oracle extraction.Oracle, s *schema.Schema, cmp *compare.Comparator, logger *zap.Logger) *Verifier {
	if cmp == nil {
		cmp = compare.NewComparator(compare.DefaultTolerance())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		Oracle:     oracle,
		Schema:     s,
		Comparator: cmp,
		Logger:     logger,
	}
}

// Verify runs the oracle over image and compares every schema field with
// app. No partial result is returned on error.
func (v *Verifier) Verify(ctx context.Context, image model.Image, app *model.ApplicationData) (model.VerificationResult, error) {
	run := &verification{v: v, id: uuid.NewString(), started: time.Now()}
	run.log = v.Logger.With(zap.String("verification_id", run.id))

	res, err := run.execute(ctx, image, app)
	if err != nil {
		run.move(StateFailed)
		run.log.Error("verification failed",
			zap.String("kind", errs.KindOf(err).String()),
			zap.Duration("elapsed", time.Since(run.started)),
			zap.Error(err))
		return model.VerificationResult{}, err
	}

	run.move(StateCompleted)
	run.log.Info("verification completed",
		zap.String("overall_status", string(res.OverallStatus)),
		zap.Duration("elapsed", time.Since(run.started)))
	return res, nil
}

type verification struct {
	v       *Verifier
	id      string
	state   State
	started time.Time
	log     *zap.Logger
}

func (r *verification) move(to State) {
	from := r.state
	r.state = to
	r.log.Debug("state transition", zap.Stringer("from", from), zap.Stringer("to", to))
	if r.v.OnTransition != nil {
		r.v.OnTransition(r.id, from, to)
	}
}

func (r *verification) execute(ctx context.Context, image model.Image, app *model.ApplicationData) (model.VerificationResult, error) {
	const op = "verify"
	v := r.v

	r.move(StateSubmitted)
	if v.Schema == nil {
		return model.VerificationResult{}, errs.Configuration(op, "verifier has no schema")
	}
	if app == nil {
		return model.VerificationResult{}, errs.Validation(op, "application data is required")
	}
	mime, err := DetectImage(image.Data)
	if err != nil {
		return model.VerificationResult{}, err
	}
	image.MIMEType = mime

	r.move(StateAwaitingOracle)
	extracted, err := v.Oracle.Extract(ctx, extraction.Request{Image: image, Application: app, Schema: v.Schema})
	if err != nil {
		return model.VerificationResult{}, err
	}

	r.move(StateComparing)
	fields := make([]model.FieldResult, 0, len(extracted))
	for _, spec := range v.Schema.Fields() {
		value, ok := extracted[spec.ID]
		if !ok {
			return model.VerificationResult{}, errs.Contract(op, "oracle returned no entry for field %q", spec.ID)
		}
		res, err := v.Comparator.Compare(spec, value, schema.Expected(spec, app))
		if err != nil {
			return model.VerificationResult{}, err
		}
		fields = append(fields, res)
	}

	return summary.Build(fields), nil
}

// DetectImage sniffs data and returns its MIME type, rejecting anything
// that is not an image.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errs.Validation("verify", "label image is required")
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", errs.Validation("verify", fmt.Sprintf("label file is not an image (detected %s)", mt.String()))
	}
	return mt.String(), nil
}
