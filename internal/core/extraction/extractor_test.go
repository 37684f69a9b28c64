package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/labelcheck/internal/config"
	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/llm"
)

func testRequest(t *testing.T) Request {
	return Request{
		Image: model.Image{Name: "label.png", Data: []byte("png-bytes"), MIMEType: "image/png"},
		Application: &model.ApplicationData{
			BrandName:      "OLD TOM DISTILLERY",
			ClassType:      "Kentucky Straight Bourbon Whiskey",
			AlcoholContent: "45%",
			NetContents:    "750 mL",
		},
		Schema: mustSchema(t, "v1"),
	}
}

func TestExtractorExtract(t *testing.T) {
	mockLLM := &MockLLMClient{Response: v1Reply}
	extractor := NewExtractor(mockLLM, config.DefaultExtractionPrompt)

	got, err := extractor.Extract(context.Background(), testRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "OLD TOM DISTILLERY", got[model.FieldBrandName].Text)
	assert.False(t, got[model.FieldNetContents].Found)

	require.Len(t, mockLLM.Images, 1)
	assert.Equal(t, "image/png", mockLLM.Images[0].MIMEType)
	assert.Contains(t, mockLLM.Prompt, "- brand_name (")
	assert.Contains(t, mockLLM.Prompt, ": 750 mL")
	assert.NotContains(t, mockLLM.Prompt, "%!")
}

func TestExtractorTransportErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		kind      errs.Kind
		retryable bool
	}{
		{"rate limited", &llm.APIError{Provider: "openai", StatusCode: 429, Err: errors.New("slow down")}, errs.KindOracleTransport, true},
		{"bad key", &llm.APIError{Provider: "openai", StatusCode: 401, Err: errors.New("who are you")}, errs.KindOracleTransport, false},
		{"network", errors.New("connection reset by peer"), errs.KindOracleTransport, true},
		{"deadline", context.DeadlineExceeded, errs.KindOracleTimeout, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			extractor := NewExtractor(&MockLLMClient{Err: tc.err}, config.DefaultExtractionPrompt)
			_, err := extractor.Extract(context.Background(), testRequest(t))
			require.Error(t, err)
			assert.Equal(t, tc.kind, errs.KindOf(err))
			assert.Equal(t, tc.retryable, errs.IsRetryable(err))
		})
	}
}

func TestExtractorMalformedReply(t *testing.T) {
	extractor := NewExtractor(&MockLLMClient{Response: `{"fields": "none"}`}, config.DefaultExtractionPrompt)
	_, err := extractor.Extract(context.Background(), testRequest(t))
	assert.True(t, errs.Is(err, errs.KindOracleContract))
}

func TestExtractorNeedsSchema(t *testing.T) {
	extractor := NewExtractor(&MockLLMClient{Response: v1Reply}, config.DefaultExtractionPrompt)
	req := testRequest(t)
	req.Schema = nil
	_, err := extractor.Extract(context.Background(), req)
	assert.True(t, errs.Is(err, errs.KindConfiguration))
}
