package llm

import (
	"context"
	"sync"

	perrors "github.com/sheetpilot/sheetpilot/internal/errors"
)

// Scripted replays canned completions in order. Tests use it to drive the
// classifier without a network.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	calls     int

	// Err, when set, is returned by every Complete call.
	Err error
}

// NewScripted builds a client that returns the given responses in sequence.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

// Complete returns the next scripted response.
func (s *Scripted) Complete(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.responses) == 0 {
		return "", perrors.NewProvider("scripted", nil)
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next, nil
}

// Calls reports how many completions were requested.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
