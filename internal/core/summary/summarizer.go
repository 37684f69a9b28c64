// Package summary reduces field verdicts to an overall status and a
// one-sentence summary.
package summary

import (
	"fmt"

	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
)

// Overall applies, in order: any fail rejects, any warning needs review,
// otherwise approved. An empty slice needs review.
func Overall(fields []model.FieldResult) model.OverallStatus {
	if len(fields) == 0 {
		return model.OverallReview
	}
	fails, warnings := Count(fields)
	switch {
	case fails > 0:
		return model.OverallRejected
	case warnings > 0:
		return model.OverallReview
	default:
		return model.OverallApproved
	}
}

func Count(fields []model.FieldResult) (fails, warnings int) {
	for _, f := range fields {
		switch f.Status {
		case model.StatusFail:
			fails++
		case model.StatusWarning:
			warnings++
		}
	}
	return fails, warnings
}

func Summarize(fields []model.FieldResult) string {
	if len(fields) == 0 {
		return "No fields were verified; manual review required."
	}
	fails, warnings := Count(fields)
	switch Overall(fields) {
	case model.OverallApproved:
		return fmt.Sprintf("All %d fields match the application; the label is fully compliant.", len(fields))
	case model.OverallRejected:
		if warnings > 0 {
			return fmt.Sprintf("Rejected: %s failed verification and %s review.", plural(fails), needs(warnings))
		}
		return fmt.Sprintf("Rejected: %s failed verification.", plural(fails))
	default:
		return fmt.Sprintf("Review required: %s review.", needs(warnings))
	}
}

func plural(n int) string {
	if n == 1 {
		return "1 field"
	}
	return fmt.Sprintf("%d fields", n)
}

func needs(n int) string {
	if n == 1 {
		return "1 field needs"
	}
	return plural(n) + " need"
}

// Build assembles a result from field verdicts in the order given.
func Build(fields []model.FieldResult) model.VerificationResult {
	return model.VerificationResult{
		OverallStatus: Overall(fields),
		Fields:        fields,
		Summary:       Summarize(fields),
	}
}

// Override replaces the verdict of one field with a human decision and
// recomputes the overall status and summary. The input is not modified.
func Override(res model.VerificationResult, field string, status model.Status, note string) (model.VerificationResult, error) {
	if !status.Valid() {
		return res, errs.Validation("override", fmt.Sprintf("invalid status %q", status))
	}
	i := res.FieldIndex(field)
	if i < 0 {
		return res, errs.Validation("override", fmt.Sprintf("unknown field %q", field))
	}

	fields := make([]model.FieldResult, len(res.Fields))
	copy(fields, res.Fields)
	fields[i].Status = status
	fields[i].Overridden = true
	if note != "" {
		fields[i].Note = note
	}
	return Build(fields), nil
}
