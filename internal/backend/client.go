package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/labelcheck/internal/core/common"
	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/extraction"
	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/core/schema"
)

const maxReplyBytes = 1 << 20

// Fields are the schema fields the OCR service reports a value for.
var Fields = []string{
	model.FieldBrandName,
	model.FieldClassType,
	model.FieldAlcoholContent,
	model.FieldNetContents,
}

// CheckSchema rejects a schema with a field the service never reports,
// since every reply would then fail to decode.
func CheckSchema(s *schema.Schema) error {
	for _, f := range s.Fields() {
		if !slices.Contains(Fields, f.ID) {
			return errs.Configuration("backend", "schema %s field %q is not reported by the backend oracle; use schema v1", s.Version(), f.ID)
		}
	}
	return nil
}

// Client is the extraction oracle backed by the Python OCR service. It
// posts the label to {Endpoint}/verify and reads the field list out of
// the service's own verdict, ignoring that verdict.
type Client struct {
	Endpoint string
	APIKey   string
	HTTP     *http.Client
	Logger   *zap.Logger
}

func NewClient(endpoint, apiKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Endpoint: strings.TrimRight(endpoint, "/"),
		APIKey:   apiKey,
		HTTP:     httpClient,
		Logger:   logger,
	}
}

func (c *Client) Extract(ctx context.Context, req extraction.Request) (model.Extraction, error) {
	const op = "backend.verify"
	if req.Schema == nil {
		return nil, errs.Configuration(op, "no schema in request")
	}

	body, contentType, err := encodeForm(req.Image, req.Application)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, errs.Configuration(op, "invalid backend endpoint %q: %v", c.Endpoint, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, extraction.Classify(ctx, op, err, true)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, extraction.Classify(ctx, op, fmt.Errorf("failed to read reply: %w", err), true)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		c.Logger.Warn("backend rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail(data)),
			zap.Bool("retryable", retryable))
		return nil, errs.Transport(op, fmt.Errorf("backend returned %d: %s", resp.StatusCode, detail(data)), retryable)
	}

	return extraction.DecodeExtraction(string(data), req.Schema, extraction.IgnoreUnknownFields())
}

type errorReply struct {
	Detail any `json:"detail"`
}

// detail pulls the FastAPI error message out of a reply body.
func detail(data []byte) string {
	if r, err := common.ParseJSON[errorReply](string(data)); err == nil && r.Detail != nil {
		return fmt.Sprint(r.Detail)
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
