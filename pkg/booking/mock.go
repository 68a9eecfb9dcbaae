package booking

import (
	"context"
	"sync"
	"time"
)

// MockStore implements Store in memory for testing.
type MockStore struct {
	// InsertFunc is called when Insert is invoked. Nil succeeds.
	InsertFunc func(ctx context.Context, a *Appointment) error

	mu       sync.Mutex
	inserted []*Appointment
}

// Insert fills defaults, records the appointment, and calls InsertFunc.
func (m *MockStore) Insert(ctx context.Context, a *Appointment) error {
	a.FillDefaults(time.Now())

	m.mu.Lock()
	m.inserted = append(m.inserted, a)
	m.mu.Unlock()

	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, a)
	}
	return nil
}

// Inserted returns all recorded appointments.
func (m *MockStore) Inserted() []*Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Appointment, len(m.inserted))
	copy(out, m.inserted)
	return out
}

// Len returns the number of recorded appointments.
func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserted)
}

// Verify MockStore implements Store at compile time.
var _ Store = (*MockStore)(nil)
