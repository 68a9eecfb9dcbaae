// Package call owns the live voice call: the per-call session, the
// turn coordinator driving STT → completion → TTS, transcript
// deduplication, audio framing, and the session registry.
package call

import (
	"strings"
	"sync"
)

// TranscriptBuffer holds the single most recent transcript for a call
// and filters out what should not reach the coordinator: empty or
// whitespace-only text, and exact repeats of the previous transcript.
type TranscriptBuffer struct {
	mu   sync.Mutex
	last string
}

// Accept reports whether the transcript should be forwarded. A
// forwarded transcript replaces the buffered one.
func (b *TranscriptBuffer) Accept(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if text == b.last {
		return false
	}
	b.last = text
	return true
}

// Last returns the most recently accepted transcript.
func (b *TranscriptBuffer) Last() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}
