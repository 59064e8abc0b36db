package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/leadquery/pkg/anthropic"
	"github.com/sells-group/leadquery/pkg/supplement"
)

// Compile-time interface checks.
var (
	_ anthropic.Client     = (*mockAnthropicClient)(nil)
	_ anthropic.Client     = (*scriptedBackend)(nil)
	_ supplement.Extractor = (*mockSupplementExtractor)(nil)
)

// --- Anthropic mock (sequential stages: selection tests) ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 20},
	}
}

// --- Scripted backend (concurrent fan-out: pipeline tests) ---

// scriptedBackend routes each call to a canned response by matching a
// marker substring against the system prompt. The four extractors run
// concurrently, so responses are keyed by stage rather than by order.
type scriptedBackend struct {
	mu        sync.Mutex
	responses map[string]string // system prompt marker -> response text
	errs      map[string]error  // system prompt marker -> forced error
	calls     map[string]int    // system prompt marker -> call count
}

// Stage markers taken from the system prompts.
const (
	markSelect    = "route a free-text request"
	markJobTitles = "extract job titles"
	markIndustry  = "extract industry keywords"
	markLocation  = "extract the location"
	markScreener  = "beyond job title, industry, and location"
)

func newScriptedBackend() *scriptedBackend {
	return &scriptedBackend{
		responses: make(map[string]string),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (s *scriptedBackend) respond(marker, text string) {
	s.responses[marker] = text
}

func (s *scriptedBackend) fail(marker string, err error) {
	s.errs[marker] = err
}

func (s *scriptedBackend) callCount(marker string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[marker]
}

func (s *scriptedBackend) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	var system string
	for _, b := range req.System {
		system += b.Text
	}
	system = strings.ToLower(system)

	for marker := range s.responses {
		if strings.Contains(system, marker) {
			s.mu.Lock()
			s.calls[marker]++
			s.mu.Unlock()
			return textResponse(s.responses[marker]), nil
		}
	}
	for marker, err := range s.errs {
		if strings.Contains(system, marker) {
			s.mu.Lock()
			s.calls[marker]++
			s.mu.Unlock()
			return nil, err
		}
	}
	return textResponse(`{}`), nil
}

// --- Supplement mock ---

type mockSupplementExtractor struct {
	mock.Mock
}

func (m *mockSupplementExtractor) Extract(ctx context.Context, query string) (*supplement.Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supplement.Result), args.Error(1)
}
