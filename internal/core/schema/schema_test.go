package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
)

func TestBuiltinVersions(t *testing.T) {
	assert.Equal(t, []string{"v1", "v2", "v3"}, Versions())

	for _, v := range Versions() {
		s, err := Load(v)
		require.NoError(t, err, v)
		assert.Equal(t, v, s.Version())
	}
}

func TestDefaultSchemaMatchesApplicationData(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, s.Version())

	var ids []string
	for _, f := range s.Fields() {
		ids = append(ids, f.ID)
	}
	if diff := cmp.Diff(model.ApplicationFields, ids); diff != "" {
		t.Errorf("default schema out of step with ApplicationData (-want +got):\n%s", diff)
	}
}

func TestDefaultSchemaKinds(t *testing.T) {
	s, err := Load(DefaultVersion)
	require.NoError(t, err)

	want := map[string]Kind{
		model.FieldBrandName:         ExactCI,
		model.FieldClassType:         NormalizedText,
		model.FieldAlcoholContent:    NumericTolerance,
		model.FieldNetContents:       NumericTolerance,
		model.FieldProducerName:      NormalizedText,
		model.FieldCountryOfOrigin:   NormalizedText,
		model.FieldGovernmentWarning: ExactCaseSensitive,
	}
	for id, kind := range want {
		f, ok := s.Lookup(id)
		require.True(t, ok, id)
		assert.Equal(t, kind, f.Kind, id)
	}

	gw, _ := s.Lookup(model.FieldGovernmentWarning)
	assert.Equal(t, GovernmentWarningText, gw.Default)
}

func TestV1HasNoWarningField(t *testing.T) {
	s, err := Load("v1")
	require.NoError(t, err)
	assert.Len(t, s.Fields(), 4)
	_, ok := s.Lookup(model.FieldGovernmentWarning)
	assert.False(t, ok)
}

func TestUnknownVersion(t *testing.T) {
	_, err := Load("v9")
	assert.True(t, errs.Is(err, errs.KindConfiguration))
}

func TestParseRejectsMisconfiguredFields(t *testing.T) {
	cases := map[string]string{
		"unknown kind": `
version = "x"
[[fields]]
id = "brand_name"
kind = "fuzzy"`,
		"unknown field": `
version = "x"
[[fields]]
id = "vintage"
kind = "exact-ci"`,
		"duplicate field": `
version = "x"
[[fields]]
id = "brand_name"
kind = "exact-ci"
[[fields]]
id = "brand_name"
kind = "exact-ci"`,
		"numeric without quantity": `
version = "x"
[[fields]]
id = "net_contents"
kind = "numeric-with-tolerance"`,
		"lenient warning": `
version = "x"
[[fields]]
id = "government_warning"
kind = "exact-ci"`,
		"warning default without prefix": `
version = "x"
[[fields]]
id = "government_warning"
kind = "exact-case-sensitive"
default = "Government Warning: drink responsibly"`,
		"text alcohol": `
version = "x"
[[fields]]
id = "alcohol_content"
kind = "normalized-text"`,
		"no fields": `version = "x"`,
		"unknown key": `
version = "x"
[[fields]]
id = "brand_name"
kind = "exact-ci"
weight = 2`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	doc := `
version = "custom"
[[fields]]
id = "brand_name"
name = "Brand"
kind = "exact-ci"
[[fields]]
id = "net_contents"
kind = "numeric-with-tolerance"
quantity = "volume"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", s.Version())

	fields := s.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "Brand", fields[0].Name)
	assert.Equal(t, "net_contents", fields[1].Name)
}

func TestResolve(t *testing.T) {
	s, err := Load(DefaultVersion)
	require.NoError(t, err)

	id, ok := s.Resolve("Brand Name")
	assert.True(t, ok)
	assert.Equal(t, model.FieldBrandName, id)

	id, ok = s.Resolve("class/type")
	assert.True(t, ok)
	assert.Equal(t, model.FieldClassType, id)

	_, ok = s.Resolve("Vintage")
	assert.False(t, ok)
}

func TestExpectedFallsBackToDefault(t *testing.T) {
	s, _ := Load(DefaultVersion)
	gw, _ := s.Lookup(model.FieldGovernmentWarning)
	brand, _ := s.Lookup(model.FieldBrandName)

	app := &model.ApplicationData{BrandName: "  ABC "}
	assert.Equal(t, GovernmentWarningText, Expected(gw, app))
	assert.Equal(t, "ABC", Expected(brand, app))
}
