package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
)

// Image is a picture attached to a prompt.
type Image struct {
	Data     []byte
	MIMEType string
}

func (i Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, base64.StdEncoding.EncodeToString(i.Data))
}

type LLMClient interface {
	// Generate sends prompt, with any images, and returns the text reply.
	Generate(ctx context.Context, prompt string, images ...Image) (string, error)
}

// APIError is a provider reply with an HTTP error status.
type APIError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsTransient reports whether a failed call may succeed when repeated.
// Errors without a provider status (network, timeouts) count as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}
