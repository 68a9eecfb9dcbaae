package carrier

import (
	"context"
	"sync"
)

// MockMessenger implements Messenger for testing.
type MockMessenger struct {
	// SendFunc is called when SendMessage is invoked. Nil succeeds.
	SendFunc func(ctx context.Context, to, body string) error

	mu   sync.Mutex
	sent []SentMessage
}

// SentMessage records one SendMessage call.
type SentMessage struct {
	To   string
	Body string
}

// SendMessage calls SendFunc and records the call.
func (m *MockMessenger) SendMessage(ctx context.Context, to, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, body)
	}
	return nil
}

// Sent returns all recorded messages.
func (m *MockMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// MockCallLookup implements CallLookup for testing.
type MockCallLookup struct {
	// LookupFunc is called when LookupCall is invoked.
	// Nil returns an empty caller address.
	LookupFunc func(ctx context.Context, callSid string) (string, error)

	mu      sync.Mutex
	lookups []string
}

// LookupCall calls LookupFunc and records the call sid.
func (m *MockCallLookup) LookupCall(ctx context.Context, callSid string) (string, error) {
	m.mu.Lock()
	m.lookups = append(m.lookups, callSid)
	m.mu.Unlock()

	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, callSid)
	}
	return "", nil
}

// Lookups returns all recorded call sids.
func (m *MockCallLookup) Lookups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.lookups))
	copy(out, m.lookups)
	return out
}

// Verify mocks implement their interfaces at compile time.
var (
	_ Messenger  = (*MockMessenger)(nil)
	_ CallLookup = (*MockCallLookup)(nil)
)
