package stt

import "sync"

// Mock implements Live for testing. Emit delivers transcript events to the
// registered callback as if the recognizer produced them.
type Mock struct {
	// StartFunc, SendFunc, FinishFunc, CloseFunc customize behavior.
	// Nil fields succeed silently.
	StartFunc  func() error
	SendFunc   func(audio []byte) error
	FinishFunc func() error
	CloseFunc  func() error

	mu           sync.Mutex
	onTranscript func(Result)
	sent         [][]byte
	finished     bool
	closedCount  int
}

// NewMock creates a mock transcription stream.
func NewMock() *Mock {
	return &Mock{}
}

// OnTranscript registers the transcript callback.
func (m *Mock) OnTranscript(fn func(Result)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTranscript = fn
}

// Emit delivers a transcript event to the registered callback.
func (m *Mock) Emit(r Result) {
	m.mu.Lock()
	fn := m.onTranscript
	m.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}

// Start begins the mock stream.
func (m *Mock) Start() error {
	if m.StartFunc != nil {
		return m.StartFunc()
	}
	return nil
}

// Send records the audio bytes.
func (m *Mock) Send(audio []byte) error {
	m.mu.Lock()
	buf := make([]byte, len(audio))
	copy(buf, audio)
	m.sent = append(m.sent, buf)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(audio)
	}
	return nil
}

// Finish marks the stream finished.
func (m *Mock) Finish() error {
	m.mu.Lock()
	m.finished = true
	m.mu.Unlock()
	if m.FinishFunc != nil {
		return m.FinishFunc()
	}
	return nil
}

// Close records the close.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closedCount++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Sent returns all audio buffers received via Send.
func (m *Mock) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

// Finished reports whether Finish was called.
func (m *Mock) Finished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished
}

// CloseCount returns how many times Close was called.
func (m *Mock) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closedCount
}

// Verify Mock implements Live at compile time.
var _ Live = (*Mock)(nil)
