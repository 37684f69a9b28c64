package extraction

import (
	"context"
	"errors"

	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/core/schema"
)

// Oracle reads field values off a label image. Implementations are
// untrusted: their output is checked by DecodeExtraction before use.
type Oracle interface {
	Extract(ctx context.Context, req Request) (model.Extraction, error)
}

type Request struct {
	Image       model.Image
	Application *model.ApplicationData
	Schema      *schema.Schema
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, req Request) (model.Extraction, error)

func (f OracleFunc) Extract(ctx context.Context, req Request) (model.Extraction, error) {
	return f(ctx, req)
}

// Classify turns a failed oracle call into a typed error. Deadline
// expiry becomes a timeout; anything else is a transport failure.
func Classify(ctx context.Context, op string, err error, retryable bool) error {
	if err == nil {
		return nil
	}
	if errs.KindOf(err) != errs.KindUnknown {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.Timeout(op, err)
	}
	if errors.Is(err, context.Canceled) {
		retryable = false
	}
	return errs.Transport(op, err, retryable)
}
