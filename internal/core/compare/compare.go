// Package compare turns one extracted label value and one expected
// application value into a field verdict.
package compare

import (
	"fmt"
	"strings"

	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/core/schema"
)

const (
	// DefaultAlcoholEpsilon is in percentage points of ABV (0.5 proof).
	DefaultAlcoholEpsilon = 0.25
	// DefaultVolumeTolerance is relative to the larger volume.
	DefaultVolumeTolerance = 0.01
)

const (
	NoteNotFound       = "not found on label"
	NoteNoExpected     = "no expected value given"
	NoteExactRequired  = "exact match required"
	NoteUnparseable    = "value not found or unparseable"
	NoteBadExpectation = "expected value unparseable"
	NoteABVDisagree    = "label alcohol statements disagree"
	NoteVolumeDisagree = "label net contents statements disagree"
)

type Tolerance struct {
	AlcoholEpsilon float64
	VolumeRelative float64
}

func DefaultTolerance() Tolerance {
	return Tolerance{
		AlcoholEpsilon: DefaultAlcoholEpsilon,
		VolumeRelative: DefaultVolumeTolerance,
	}
}

type Comparator struct {
	Tolerance Tolerance
}

func NewComparator(tol Tolerance) *Comparator {
	if tol.AlcoholEpsilon <= 0 {
		tol.AlcoholEpsilon = DefaultAlcoholEpsilon
	}
	if tol.VolumeRelative <= 0 {
		tol.VolumeRelative = DefaultVolumeTolerance
	}
	return &Comparator{Tolerance: tol}
}

// Compare uses the default tolerances.
func Compare(spec schema.FieldSpec, extracted model.ExtractedValue, expected string) (model.FieldResult, error) {
	return NewComparator(DefaultTolerance()).Compare(spec, extracted, expected)
}

func (c *Comparator) Compare(spec schema.FieldSpec, extracted model.ExtractedValue, expected string) (model.FieldResult, error) {
	res := model.FieldResult{
		Field:     spec.ID,
		Name:      spec.Name,
		Extracted: strings.TrimSpace(extracted.Text),
		Expected:  strings.TrimSpace(expected),
	}

	if !spec.Kind.Valid() {
		return res, errs.Configuration("compare", "field %q: unknown comparison kind %q", spec.ID, spec.Kind)
	}

	// Absence on the label fails every kind, before anything else.
	if !extracted.Found || res.Extracted == "" {
		res.Extracted = ""
		return verdict(res, model.StatusFail, NoteNotFound), nil
	}
	if res.Expected == "" {
		return verdict(res, model.StatusFail, NoteNoExpected), nil
	}

	switch spec.Kind {
	case schema.ExactCaseSensitive:
		if res.Extracted == res.Expected {
			return verdict(res, model.StatusPass, ""), nil
		}
		return verdict(res, model.StatusFail, NoteExactRequired), nil

	case schema.ExactCI:
		got, want := exactForm(res.Extracted), exactForm(res.Expected)
		if got == want {
			return verdict(res, model.StatusPass, ""), nil
		}
		if fold(got) == fold(want) {
			return verdict(res, model.StatusWarning, fmt.Sprintf("casing differs: label shows %q, application has %q", got, want)), nil
		}
		return verdict(res, model.StatusFail, fmt.Sprintf("mismatch: label shows %q, application has %q", got, want)), nil

	case schema.NormalizedText:
		if normalizedForm(res.Extracted) == normalizedForm(res.Expected) {
			return verdict(res, model.StatusPass, ""), nil
		}
		return verdict(res, model.StatusFail, fmt.Sprintf("mismatch: label shows %q, application has %q", res.Extracted, res.Expected)), nil

	case schema.NumericTolerance:
		return c.numeric(spec, res)
	}

	return res, errs.Configuration("compare", "field %q: unhandled comparison kind %q", spec.ID, spec.Kind)
}

func (c *Comparator) numeric(spec schema.FieldSpec, res model.FieldResult) (model.FieldResult, error) {
	switch spec.Quantity {
	case schema.QuantityABV:
		got, want := parseABV(res.Extracted), parseABV(res.Expected)
		if len(got) == 0 {
			return verdict(res, model.StatusFail, NoteUnparseable), nil
		}
		if len(want) == 0 {
			return verdict(res, model.StatusFail, NoteBadExpectation), nil
		}
		eq := func(a, b float64) bool { return within(a, b, c.Tolerance.AlcoholEpsilon) }
		if stated := statedABV(res.Extracted); len(stated) > 1 && !agree(stated, eq) {
			return verdict(res, model.StatusFail, NoteABVDisagree), nil
		}
		if g, _, ok := match(got, want, eq); ok {
			if isProof(res.Extracted) != isProof(res.Expected) {
				return verdict(res, model.StatusPass, fmt.Sprintf("proof and percentage forms agree at %s%% ABV", formatFloat(g))), nil
			}
			return verdict(res, model.StatusPass, ""), nil
		}
		return verdict(res, model.StatusFail, fmt.Sprintf("alcohol content mismatch: label %s%% ABV, application %s%% ABV",
			formatFloat(got[0]), formatFloat(want[0]))), nil

	case schema.QuantityVolume:
		got, want := parseVolume(res.Extracted), parseVolume(res.Expected)
		if len(got) == 0 {
			return verdict(res, model.StatusFail, NoteUnparseable), nil
		}
		if len(want) == 0 {
			return verdict(res, model.StatusFail, NoteBadExpectation), nil
		}
		eq := func(a, b float64) bool { return withinRelative(a, b, c.Tolerance.VolumeRelative) }
		if !agree(got, eq) {
			return verdict(res, model.StatusFail, NoteVolumeDisagree), nil
		}
		if !agree(want, eq) {
			return verdict(res, model.StatusFail, NoteBadExpectation), nil
		}
		if _, _, ok := match(got, want, eq); ok {
			return verdict(res, model.StatusPass, ""), nil
		}
		return verdict(res, model.StatusFail, fmt.Sprintf("net contents mismatch: label %s mL, application %s mL",
			formatFloat(got[0]), formatFloat(want[0]))), nil
	}

	return res, errs.Configuration("compare", "field %q: unknown quantity %q", spec.ID, spec.Quantity)
}

func match(got, want []float64, eq func(a, b float64) bool) (float64, float64, bool) {
	for _, g := range got {
		for _, w := range want {
			if eq(g, w) {
				return g, w, true
			}
		}
	}
	return 0, 0, false
}

func verdict(res model.FieldResult, status model.Status, note string) model.FieldResult {
	res.Status = status
	res.Note = note
	return res
}
