package call

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/medlinehq/go-frontdesk/pkg/ai"
	"github.com/medlinehq/go-frontdesk/pkg/booking"
	"github.com/medlinehq/go-frontdesk/pkg/carrier"
	"github.com/medlinehq/go-frontdesk/pkg/convo"
	"github.com/medlinehq/go-frontdesk/pkg/stt"
	"github.com/medlinehq/go-frontdesk/pkg/tts"
)

// FrameWriter delivers outbound frames to the media stream connection.
// Implementations must be safe for concurrent use.
type FrameWriter interface {
	WriteFrame(f *carrier.Frame) error
}

// SessionConfig wires a call session's collaborators.
type SessionConfig struct {
	Completer   ai.Completer
	Synth       tts.Provider
	Transcriber stt.Live
	Detector    booking.Detector
	Store       booking.Store
	Lookup      carrier.CallLookup
	Writer      FrameWriter

	// Preamble is the clinic system prompt.
	Preamble string
	// Greeting is spoken when the stream starts.
	Greeting string

	// ChunkSize for outbound media frames. Zero selects the default.
	ChunkSize int
	// StepTimeout bounds completion/synthesis calls. Zero selects the
	// default.
	StepTimeout time.Duration

	// OnClose is called exactly once when the session closes.
	OnClose func(callSid string)

	Logger *slog.Logger
}

// Session owns one live call: the STT stream, the turn coordinator, the
// transcript buffer, and the outbound audio path.
type Session struct {
	cfg    SessionConfig
	logger *slog.Logger

	callSid   string
	streamSid string

	conv       *convo.Conversation
	coord      *Coordinator
	transcript *TranscriptBuffer
	framer     *Framer

	mu       sync.Mutex
	caller   string
	degraded bool
	started  bool

	// speakMu serializes whole replies so one reply's frames fully
	// drain before another's begin.
	speakMu sync.Mutex

	closeOnce sync.Once
}

// NewSession creates a session for an accepted media stream connection.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Session{
		cfg:        cfg,
		logger:     cfg.Logger.With("component", "call.session"),
		conv:       convo.New(),
		transcript: &TranscriptBuffer{},
		framer:     NewFramer(cfg.ChunkSize),
	}

	s.coord = NewCoordinator(CoordinatorConfig{
		Conversation: s.conv,
		Completer:    cfg.Completer,
		Synth:        cfg.Synth,
		Detector:     cfg.Detector,
		Store:        cfg.Store,
		Preamble:     cfg.Preamble,
		Caller:       s.Caller,
		Speak:        s.sendAudio,
		StepTimeout:  cfg.StepTimeout,
		Logger:       cfg.Logger,
	})
	return s
}

// CallSid returns the carrier call identifier, "" before start.
func (s *Session) CallSid() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callSid
}

// Caller returns the caller's address once the async lookup resolved.
func (s *Session) Caller() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caller
}

// Degraded reports whether the session runs without speech recognition.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// HandleFrame dispatches one inbound media stream frame.
func (s *Session) HandleFrame(f *carrier.Frame) {
	switch f.Event {
	case carrier.EventStart:
		if f.Start != nil {
			s.handleStart(f.Start)
		}
	case carrier.EventMedia:
		if f.Media != nil {
			s.handleMedia(f.Media)
		}
	case carrier.EventStop:
		s.Close()
	default:
		// Marks and unknown events are ignored.
	}
}

func (s *Session) handleStart(start *carrier.StartInfo) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.callSid = start.CallSid
	s.streamSid = start.StreamSid
	s.mu.Unlock()

	s.logger.Info("call started",
		"call_sid", start.CallSid,
		"stream_sid", start.StreamSid,
	)

	if s.cfg.Lookup != nil {
		go s.resolveCaller(start.CallSid)
	}

	if err := s.startTranscriber(); err != nil {
		// Fail open: the call stays up, audio keeps flowing, but no
		// transcripts means no AI turns.
		s.mu.Lock()
		s.degraded = true
		s.mu.Unlock()
		s.logger.Error("speech recognition unavailable, call degraded",
			"call_sid", start.CallSid, "error", err)
	}

	if s.cfg.Greeting != "" {
		go s.speakGreeting()
	}
}

func (s *Session) startTranscriber() error {
	if s.cfg.Transcriber == nil {
		return errors.New("call: no transcriber available")
	}
	s.cfg.Transcriber.OnTranscript(func(r stt.Result) {
		if !r.IsFinal {
			return
		}
		if !s.transcript.Accept(r.Text) {
			return
		}
		s.coord.Submit(r.Text)
	})

	return s.cfg.Transcriber.Start()
}

func (s *Session) resolveCaller(callSid string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	from, err := s.cfg.Lookup.LookupCall(ctx, callSid)
	if err != nil {
		s.logger.Warn("caller lookup failed", "call_sid", callSid, "error", err)
		return
	}

	s.mu.Lock()
	s.caller = from
	s.mu.Unlock()
	s.logger.Debug("caller resolved", "call_sid", callSid, "from", from)
}

func (s *Session) speakGreeting() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.cfg.Synth.Synthesize(ctx, s.cfg.Greeting)
	if err != nil {
		s.logger.Warn("greeting synthesis failed", "error", err)
		return
	}
	s.sendAudio(result.Audio)
}

func (s *Session) handleMedia(media *carrier.MediaInfo) {
	if s.Degraded() || s.cfg.Transcriber == nil {
		return
	}

	audio, err := base64.StdEncoding.DecodeString(media.Payload)
	if err != nil {
		s.logger.Debug("dropping undecodable media frame", "error", err)
		return
	}
	if err := s.cfg.Transcriber.Send(audio); err != nil {
		s.logger.Warn("forwarding audio failed", "error", err)
	}
}

// sendAudio base64-encodes the audio, chunks it, and writes the frames
// in order followed by a mark.
func (s *Session) sendAudio(audio []byte) {
	if len(audio) == 0 {
		return
	}

	s.speakMu.Lock()
	defer s.speakMu.Unlock()

	s.mu.Lock()
	streamSid := s.streamSid
	s.mu.Unlock()

	payload := base64.StdEncoding.EncodeToString(audio)
	for _, frame := range s.framer.Frames(streamSid, payload) {
		if err := s.cfg.Writer.WriteFrame(frame); err != nil {
			s.logger.Warn("writing media frame failed", "error", err)
			return
		}
	}
	if err := s.cfg.Writer.WriteFrame(carrier.NewMarkFrame(streamSid, "reply")); err != nil {
		s.logger.Warn("writing mark frame failed", "error", err)
	}
}

// Close tears the session down. Safe to call more than once; only the
// first call has any effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.coord.Close()

		if s.cfg.Transcriber != nil {
			if !s.Degraded() {
				if err := s.cfg.Transcriber.Finish(); err != nil {
					s.logger.Debug("finishing transcriber", "error", err)
				}
			}
			if err := s.cfg.Transcriber.Close(); err != nil {
				s.logger.Debug("closing transcriber", "error", err)
			}
		}

		if s.cfg.OnClose != nil {
			s.cfg.OnClose(s.CallSid())
		}
		s.logger.Info("call closed", "call_sid", s.CallSid(), "turns", s.conv.Len())
	})
}
