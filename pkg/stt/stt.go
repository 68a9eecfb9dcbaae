// Package stt provides streaming speech-to-text for the voice pipeline.
//
// The default implementation streams raw telephony audio to Deepgram's live
// transcription WebSocket and surfaces transcript events through a callback.
// Implementations satisfy the Live interface so the call session can run
// against a mock in tests.
package stt

// Result is one transcript event. Only the first alternative is surfaced.
type Result struct {
	// Text is the transcribed text of the first alternative.
	Text string

	// Confidence is the provider's confidence score (0-1).
	Confidence float64

	// IsFinal means the provider marked this segment final. Multiple final
	// segments can occur within a single spoken turn.
	IsFinal bool

	// SpeechFinal means the provider detected end of speech via its
	// silence-based utterance-end threshold. This is the signal that a
	// caller turn has finished.
	SpeechFinal bool
}

// Live is a streaming transcription connection for one call.
type Live interface {
	// OnTranscript sets the transcript callback. Must be set before Start.
	OnTranscript(fn func(Result))

	// Start opens the stream.
	Start() error

	// Send forwards raw audio bytes to the recognizer.
	Send(audio []byte) error

	// Finish cleanly ends the audio stream, flushing pending transcripts.
	Finish() error

	// Close tears the connection down. Safe to call after Finish.
	Close() error
}
