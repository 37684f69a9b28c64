package extraction

import (
	"github.com/tidwall/gjson"

	"github.com/agenthands/labelcheck/internal/core/common"
	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/core/schema"
)

type decodeOptions struct {
	ignoreUnknown bool
}

type DecodeOption func(*decodeOptions)

// IgnoreUnknownFields skips reply entries naming fields outside the
// schema, for oracles with a fixed field set of their own.
func IgnoreUnknownFields() DecodeOption {
	return func(o *decodeOptions) { o.ignoreUnknown = true }
}

// DecodeExtraction validates an oracle reply against s and returns the
// extracted values. The reply must hold a "fields" array with one entry
// per schema field:
//
//	{"fields": [{"field": "brand_name", "extracted": "OLD TOM"}, ...]}
//
// "field" may be the identifier or the display name. "extracted" is a
// string, or null when the field is not on the label.
func DecodeExtraction(response string, s *schema.Schema, opts ...DecodeOption) (model.Extraction, error) {
	const op = "extraction.decode"

	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := common.ExtractJSON(response)
	if err != nil {
		return nil, errs.Contract(op, "%v", err)
	}
	if !gjson.Valid(raw) {
		return nil, errs.Contract(op, "reply is not valid JSON")
	}

	fields := gjson.Get(raw, "fields")
	if !fields.IsArray() {
		return nil, errs.Contract(op, `reply has no "fields" array`)
	}

	out := make(model.Extraction)
	var bad error
	index := 0
	fields.ForEach(func(_, entry gjson.Result) bool {
		defer func() { index++ }()

		if !entry.IsObject() {
			bad = errs.Contract(op, "fields[%d] is not an object", index)
			return false
		}
		key := entry.Get("field")
		if key.Type != gjson.String {
			bad = errs.Contract(op, `fields[%d] has no "field" name`, index)
			return false
		}
		id, ok := s.Resolve(key.String())
		if !ok && o.ignoreUnknown {
			return true
		}
		if !ok {
			bad = errs.Contract(op, "fields[%d]: unknown field %q", index, key.String())
			return false
		}
		if _, dup := out[id]; dup {
			bad = errs.Contract(op, "field %q reported more than once", id)
			return false
		}
		if st := entry.Get("status"); st.Exists() {
			if st.Type != gjson.String || !model.Status(st.String()).Valid() {
				bad = errs.Contract(op, "field %q: invalid status %s", id, st.Raw)
				return false
			}
		}

		ex := entry.Get("extracted")
		switch {
		case !ex.Exists():
			bad = errs.Contract(op, `field %q has no "extracted" value`, id)
			return false
		case ex.Type == gjson.Null:
			out[id] = model.NotFound()
		case ex.Type == gjson.String:
			if found := entry.Get("found"); found.Exists() && found.Type == gjson.False {
				out[id] = model.NotFound()
			} else {
				out[id] = model.Found(ex.String())
			}
		default:
			bad = errs.Contract(op, "field %q: extracted must be a string or null, got %s", id, ex.Raw)
			return false
		}
		return true
	})
	if bad != nil {
		return nil, bad
	}

	for _, f := range s.Fields() {
		if _, ok := out[f.ID]; !ok {
			return nil, errs.Contract(op, "field %q missing from reply", f.ID)
		}
	}
	return out, nil
}
