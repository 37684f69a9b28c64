package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/core/schema"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func labelImage() model.Image {
	return model.Image{Name: "label.png", Data: pngHeader, MIMEType: "application/octet-stream"}
}

func fullApplication() *model.ApplicationData {
	return &model.ApplicationData{
		BrandName:         "MOUNTAIN BREW",
		ClassType:         "India Pale Ale",
		AlcoholContent:    "80 proof",
		NetContents:       "12 fl oz",
		ProducerName:      "Mountain Brew Co., Denver, CO",
		CountryOfOrigin:   "United States",
		GovernmentWarning: schema.GovernmentWarningText,
	}
}

// matchingExtraction is what a label agreeing with fullApplication reads as.
func matchingExtraction() model.Extraction {
	return model.Extraction{
		model.FieldBrandName:         model.Found("MOUNTAIN BREW"),
		model.FieldClassType:         model.Found("India Pale Ale"),
		model.FieldAlcoholContent:    model.Found("40% ABV"),
		model.FieldNetContents:       model.Found("12 FL. OZ."),
		model.FieldProducerName:      model.Found("Mountain Brew Co. Denver CO"),
		model.FieldCountryOfOrigin:   model.Found("united states"),
		model.FieldGovernmentWarning: model.Found(schema.GovernmentWarningText),
	}
}

func defaultSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Load(schema.DefaultVersion)
	require.NoError(t, err)
	return s
}
