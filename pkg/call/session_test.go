package call_test

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/medlinehq/go-frontdesk/pkg/ai"
	"github.com/medlinehq/go-frontdesk/pkg/call"
	"github.com/medlinehq/go-frontdesk/pkg/carrier"
	"github.com/medlinehq/go-frontdesk/pkg/stt"
	"github.com/medlinehq/go-frontdesk/pkg/tts"
)

// frameRecorder is a FrameWriter that collects written frames.
type frameRecorder struct {
	mu     sync.Mutex
	frames []*carrier.Frame
}

func (r *frameRecorder) WriteFrame(f *carrier.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *frameRecorder) all() []*carrier.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*carrier.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

func startFrame(callSid, streamSid string) *carrier.Frame {
	return &carrier.Frame{
		Event: carrier.EventStart,
		Start: &carrier.StartInfo{CallSid: callSid, StreamSid: streamSid},
	}
}

func TestSessionLifecycle(t *testing.T) {
	rec := &frameRecorder{}
	transcriber := stt.NewMock()
	lookup := &carrier.MockCallLookup{
		LookupFunc: func(ctx context.Context, callSid string) (string, error) {
			return "+15550123", nil
		},
	}
	var closedSid string

	s := call.NewSession(call.SessionConfig{
		Completer:   ai.WithReply("Hello!"),
		Synth:       tts.NewMock(),
		Transcriber: transcriber,
		Lookup:      lookup,
		Writer:      rec,
		Greeting:    "Thank you for calling.",
		OnClose:     func(sid string) { closedSid = sid },
	})

	s.HandleFrame(startFrame("CA1", "MZ1"))

	if s.CallSid() != "CA1" {
		t.Errorf("expected CA1, got %q", s.CallSid())
	}

	waitFor(t, func() bool { return s.Caller() == "+15550123" },
		"caller was never resolved")

	// Greeting audio goes out as media frames ending with a mark.
	waitFor(t, func() bool {
		frames := rec.all()
		return len(frames) >= 2 && frames[len(frames)-1].Event == carrier.EventMark
	}, "greeting was never spoken")

	for _, f := range rec.all() {
		if f.StreamSid != "MZ1" {
			t.Errorf("frame bound to wrong stream: %+v", f)
		}
	}

	// Inbound media is decoded and forwarded to the recognizer.
	audio := []byte{0x01, 0x02, 0x03}
	s.HandleFrame(&carrier.Frame{
		Event: carrier.EventMedia,
		Media: &carrier.MediaInfo{Payload: base64.StdEncoding.EncodeToString(audio)},
	})
	sent := transcriber.Sent()
	if len(sent) != 1 || len(sent[0]) != 3 {
		t.Fatalf("expected forwarded audio, got %v", sent)
	}

	s.HandleFrame(&carrier.Frame{Event: carrier.EventStop})
	if !transcriber.Finished() {
		t.Error("expected transcriber to be finished")
	}
	if transcriber.CloseCount() != 1 {
		t.Errorf("expected 1 close, got %d", transcriber.CloseCount())
	}
	if closedSid != "CA1" {
		t.Errorf("expected OnClose with CA1, got %q", closedSid)
	}

	// Close is idempotent.
	s.Close()
	if transcriber.CloseCount() != 1 {
		t.Errorf("second close should be a no-op, got %d closes", transcriber.CloseCount())
	}
}

func TestSessionTranscriptDrivesTurn(t *testing.T) {
	rec := &frameRecorder{}
	transcriber := stt.NewMock()

	s := call.NewSession(call.SessionConfig{
		Completer:   ai.WithReply("We open at 9am."),
		Synth:       tts.NewMock(),
		Transcriber: transcriber,
		Writer:      rec,
	})
	s.HandleFrame(startFrame("CA2", "MZ2"))

	transcriber.Emit(stt.Result{Text: "what time do you open", IsFinal: true})

	waitFor(t, func() bool {
		for _, f := range rec.all() {
			if f.Event == carrier.EventMark {
				return true
			}
		}
		return false
	}, "reply was never spoken")

	// A duplicate final transcript must not start another turn.
	before := len(rec.all())
	transcriber.Emit(stt.Result{Text: "what time do you open", IsFinal: true})
	time.Sleep(50 * time.Millisecond)
	if len(rec.all()) != before {
		t.Error("duplicate transcript triggered another reply")
	}

	// Interim results are ignored.
	transcriber.Emit(stt.Result{Text: "something new", IsFinal: false})
	time.Sleep(50 * time.Millisecond)
	if len(rec.all()) != before {
		t.Error("interim transcript triggered a reply")
	}

	s.Close()
}

func TestSessionDegradedMode(t *testing.T) {
	rec := &frameRecorder{}
	transcriber := stt.NewMock()
	transcriber.StartFunc = func() error {
		return errors.New("recognizer unreachable")
	}

	s := call.NewSession(call.SessionConfig{
		Completer:   ai.NewMock(),
		Synth:       tts.NewMock(),
		Transcriber: transcriber,
		Writer:      rec,
		Greeting:    "Thank you for calling.",
	})
	s.HandleFrame(startFrame("CA3", "MZ3"))

	if !s.Degraded() {
		t.Fatal("expected degraded session")
	}

	// The call stays up and the greeting still goes out.
	waitFor(t, func() bool { return len(rec.all()) > 0 },
		"greeting was never spoken in degraded mode")

	// Media is dropped rather than forwarded.
	s.HandleFrame(&carrier.Frame{
		Event: carrier.EventMedia,
		Media: &carrier.MediaInfo{Payload: base64.StdEncoding.EncodeToString([]byte{1})},
	})
	if len(transcriber.Sent()) != 0 {
		t.Error("degraded session should not forward audio")
	}

	s.Close()
}

func TestSessionIgnoresMalformedMedia(t *testing.T) {
	transcriber := stt.NewMock()
	s := call.NewSession(call.SessionConfig{
		Completer:   ai.NewMock(),
		Synth:       tts.NewMock(),
		Transcriber: transcriber,
		Writer:      &frameRecorder{},
	})
	s.HandleFrame(startFrame("CA4", "MZ4"))

	s.HandleFrame(&carrier.Frame{
		Event: carrier.EventMedia,
		Media: &carrier.MediaInfo{Payload: "!!! not base64 !!!"},
	})
	if len(transcriber.Sent()) != 0 {
		t.Error("undecodable payload should be dropped")
	}

	s.Close()
}

func TestRegistry(t *testing.T) {
	r := call.NewRegistry()
	s := call.NewSession(call.SessionConfig{
		Completer:   ai.NewMock(),
		Synth:       tts.NewMock(),
		Transcriber: stt.NewMock(),
		Writer:      &frameRecorder{},
	})

	if err := r.Add("CA1", s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Add("CA1", s); !errors.Is(err, call.ErrDuplicateSession) {
		t.Errorf("expected ErrDuplicateSession, got %v", err)
	}
	if r.Get("CA1") != s {
		t.Error("expected to get registered session")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 session, got %d", r.Len())
	}

	r.Remove("CA1")
	if r.Get("CA1") != nil || r.Len() != 0 {
		t.Error("expected empty registry after remove")
	}
}
