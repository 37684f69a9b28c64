// Package schema defines the compliance fields checked on a label and how
// each one is compared. Schemas are versioned TOML documents; the built-in
// versions are embedded, and a deployment may load its own file.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
)

type Kind string

const (
	ExactCI            Kind = "exact-ci"
	NormalizedText     Kind = "normalized-text"
	NumericTolerance   Kind = "numeric-with-tolerance"
	ExactCaseSensitive Kind = "exact-case-sensitive"
)

func (k Kind) Valid() bool {
	switch k {
	case ExactCI, NormalizedText, NumericTolerance, ExactCaseSensitive:
		return true
	}
	return false
}

type Quantity string

const (
	QuantityABV    Quantity = "abv"
	QuantityVolume Quantity = "volume"
)

// DefaultVersion is the schema used when configuration names none.
const DefaultVersion = "v3"

// WarningPrefix must open the government warning exactly as written.
const WarningPrefix = "GOVERNMENT WARNING:"

// GovernmentWarningText is the statement required by 27 CFR part 16.
const GovernmentWarningText = WarningPrefix + " (1) According to the Surgeon General, women should not drink " +
	"alcoholic beverages during pregnancy because of the risk of birth defects. " +
	"(2) Consumption of alcoholic beverages impairs your ability to drive a car or " +
	"operate machinery, and may cause health problems."

type FieldSpec struct {
	ID       string   `toml:"id" json:"id"`
	Name     string   `toml:"name" json:"name"`
	Kind     Kind     `toml:"kind" json:"kind"`
	Quantity Quantity `toml:"quantity" json:"quantity,omitempty"`
	// Default is the expected value used when the application leaves the
	// field blank.
	Default string `toml:"default" json:"default,omitempty"`
}

type Schema struct {
	version     string
	description string
	fields      []FieldSpec
}

type document struct {
	Version     string      `toml:"version"`
	Description string      `toml:"description"`
	Fields      []FieldSpec `toml:"fields"`
}

//go:embed schemas/*.toml
var builtin embed.FS

// Versions lists the embedded schema versions.
func Versions() []string {
	entries, err := builtin.ReadDir("schemas")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(out)
	return out
}

// Load returns the embedded schema for version.
func Load(version string) (*Schema, error) {
	if version == "" {
		version = DefaultVersion
	}
	data, err := builtin.ReadFile("schemas/" + version + ".toml")
	if err != nil {
		return nil, errs.Configuration("schema.Load", "unknown schema version %q (known: %s)", version, strings.Join(Versions(), ", "))
	}
	return Parse(data)
}

// LoadFile reads a schema document from disk.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configuration("schema.LoadFile", "failed to read schema file '%s': %v", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Schema, error) {
	var doc document
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errs.Configuration("schema.Parse", "failed to parse TOML: %v", err)
	}
	return New(doc.Version, doc.Description, doc.Fields)
}

// New validates fields and builds a schema from them.
func New(version, description string, fields []FieldSpec) (*Schema, error) {
	if len(fields) == 0 {
		return nil, errs.Configuration("schema", "schema %q defines no fields", version)
	}

	seen := make(map[string]bool, len(fields))
	out := make([]FieldSpec, len(fields))
	for i, f := range fields {
		if err := validate(f); err != nil {
			return nil, err
		}
		if seen[f.ID] {
			return nil, errs.Configuration("schema", "field %q defined twice", f.ID)
		}
		seen[f.ID] = true

		if f.Name == "" {
			f.Name = f.ID
		}
		if f.ID == model.FieldGovernmentWarning && f.Default == "" {
			f.Default = GovernmentWarningText
		}
		out[i] = f
	}

	return &Schema{version: version, description: description, fields: out}, nil
}

func validate(f FieldSpec) error {
	if !model.IsApplicationField(f.ID) {
		return errs.Configuration("schema", "field %q has no application data attribute", f.ID)
	}
	if !f.Kind.Valid() {
		return errs.Configuration("schema", "field %q: unknown comparison kind %q", f.ID, f.Kind)
	}
	if f.Kind == NumericTolerance && f.Quantity != QuantityABV && f.Quantity != QuantityVolume {
		return errs.Configuration("schema", "field %q: numeric comparison needs quantity abv or volume, got %q", f.ID, f.Quantity)
	}
	switch f.ID {
	case model.FieldGovernmentWarning:
		if f.Kind != ExactCaseSensitive {
			return errs.Configuration("schema", "government warning must use %s comparison", ExactCaseSensitive)
		}
		if f.Default != "" && !strings.HasPrefix(f.Default, WarningPrefix) {
			return errs.Configuration("schema", "government warning default must start with %q", WarningPrefix)
		}
	case model.FieldAlcoholContent:
		if f.Kind != NumericTolerance || f.Quantity != QuantityABV {
			return errs.Configuration("schema", "alcohol content must use %s comparison with quantity abv", NumericTolerance)
		}
	}
	return nil
}

func (s *Schema) Version() string     { return s.version }
func (s *Schema) Description() string { return s.description }

// Fields returns the field specs in schema order.
func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) Lookup(id string) (FieldSpec, bool) {
	for _, f := range s.fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Resolve maps an identifier or a display name (case-insensitively) to
// the field identifier.
func (s *Schema) Resolve(key string) (string, bool) {
	key = strings.TrimSpace(key)
	for _, f := range s.fields {
		if f.ID == key || strings.EqualFold(f.Name, key) || strings.EqualFold(f.ID, key) {
			return f.ID, true
		}
	}
	return "", false
}

// Expected returns the expected value for spec from app, falling back to
// the field default.
func Expected(spec FieldSpec, app *model.ApplicationData) string {
	v, _ := app.Value(spec.ID)
	v = strings.TrimSpace(v)
	if v == "" {
		return spec.Default
	}
	return v
}

func (s *Schema) String() string {
	return fmt.Sprintf("schema %s (%d fields)", s.version, len(s.fields))
}
