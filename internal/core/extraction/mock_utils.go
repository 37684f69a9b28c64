package extraction

import (
	"context"
	"sync"

	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/llm"
)

type MockLLMClient struct {
	Response string
	Err      error

	Prompt string
	Images []llm.Image
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, images ...llm.Image) (string, error) {
	m.Prompt = prompt
	m.Images = images
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// MockOracle replays Errs in order, then returns Extraction.
type MockOracle struct {
	Extraction model.Extraction
	Errs       []error
	// Block makes Extract wait for ctx to end.
	Block bool

	mu    sync.Mutex
	calls int
}

func (m *MockOracle) Extract(ctx context.Context, req Request) (model.Extraction, error) {
	m.mu.Lock()
	n := m.calls
	m.calls++
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n < len(m.Errs) && m.Errs[n] != nil {
		return nil, m.Errs[n]
	}
	return m.Extraction, nil
}

func (m *MockOracle) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
