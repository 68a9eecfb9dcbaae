package ai

import (
	"context"
	"sync"

	"github.com/medlinehq/go-frontdesk/pkg/convo"
)

// Mock implements Completer for testing.
// Behavior can be customized via the function field.
type Mock struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, a canned reply is returned.
	CompleteFunc func(ctx context.Context, messages []convo.Turn) (string, error)

	mu    sync.Mutex
	calls [][]convo.Turn
}

// NewMock creates a mock that echoes a canned reply.
func NewMock() *Mock {
	return &Mock{
		CompleteFunc: func(ctx context.Context, messages []convo.Turn) (string, error) {
			return "How can I help you today?", nil
		},
	}
}

// WithReply returns a mock that always replies with the given text.
func WithReply(reply string) *Mock {
	return &Mock{
		CompleteFunc: func(ctx context.Context, messages []convo.Turn) (string, error) {
			return reply, nil
		},
	}
}

// WithError returns a mock that always fails with the given error.
func WithError(err error) *Mock {
	return &Mock{
		CompleteFunc: func(ctx context.Context, messages []convo.Turn) (string, error) {
			return "", err
		},
	}
}

// Complete calls CompleteFunc and records the call.
func (m *Mock) Complete(ctx context.Context, messages []convo.Turn) (string, error) {
	m.mu.Lock()
	snapshot := make([]convo.Turn, len(messages))
	copy(snapshot, messages)
	m.calls = append(m.calls, snapshot)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	return "", WrapError("mock", ErrEmptyCompletion)
}

// CallCount returns the number of Complete invocations.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the message list of the most recent call, or nil.
func (m *Mock) LastCall() []convo.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// Verify Mock implements Completer at compile time.
var _ Completer = (*Mock)(nil)
