package convo

import (
	"sync"
	"time"
)

// Thread is a text-channel conversation plus its bookkeeping.
// The lock serializes turns so at most one completion is in flight
// per sender at any time.
type Thread struct {
	// Lock is held by the caller for the duration of one text turn.
	Lock sync.Mutex

	Conversation *Conversation

	lastSeen time.Time
}

// Store maps sender addresses to conversation threads for the lifetime of a
// text interaction. Entries expire after the configured TTL so the map stays
// bounded; a janitor goroutine sweeps expired threads.
type Store struct {
	mu      sync.Mutex
	threads map[string]*Thread
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewStore creates a conversation store with the given idle TTL and starts
// its eviction janitor. Call Close to stop the janitor.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		threads: make(map[string]*Thread),
		ttl:     ttl,
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go s.janitor(ttl / 30)
	return s
}

// Get returns the thread for the sender, creating it on first contact.
func (s *Store) Get(sender string) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[sender]
	if !ok {
		t = &Thread{Conversation: New()}
		s.threads[sender] = t
	}
	t.lastSeen = s.now()
	return t
}

// Len returns the number of live threads.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// Close stops the eviction janitor. Idempotent.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) janitor(interval time.Duration) {
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evict()
		}
	}
}

func (s *Store) evict() {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for sender, t := range s.threads {
		if t.lastSeen.Before(cutoff) {
			delete(s.threads, sender)
		}
	}
}
