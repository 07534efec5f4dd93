package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedClient returns canned responses in order. Used by tests and by the
// offline analyze mode; it never touches the network.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int

	// LastMessages holds the messages of the most recent call, for prompt
	// assertions in tests.
	LastMessages []Message
	LastModel    string
}

// NewScriptedClient builds a client that answers with the given responses in
// sequence. A nil error slot means the corresponding call succeeds.
func NewScriptedClient(responses ...string) *ScriptedClient {
	return &ScriptedClient{responses: responses}
}

// FailWith inserts an error before the scripted responses; call n failures
// are consumed before the first successful answer.
func (s *ScriptedClient) FailWith(errs ...error) *ScriptedClient {
	s.errs = append(s.errs, errs...)
	return s
}

// Calls reports how many times Complete was invoked.
func (s *ScriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Complete implements Client.
func (s *ScriptedClient) Complete(_ context.Context, model string, messages []Message, _ bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.LastMessages = messages
	s.LastModel = model

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	if len(s.responses) == 0 {
		return "", fmt.Errorf("scripted client exhausted after %d calls", s.calls)
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

var _ Client = (*ScriptedClient)(nil)
