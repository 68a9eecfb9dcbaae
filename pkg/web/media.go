package web

import (
	"sync"

	"github.com/gofiber/websocket/v2"

	"github.com/medlinehq/go-frontdesk/pkg/call"
	"github.com/medlinehq/go-frontdesk/pkg/carrier"
	"github.com/medlinehq/go-frontdesk/pkg/stt"
)

// wsWriter adapts the media stream connection to call.FrameWriter.
// Writes are serialized; the greeting and a reply can race otherwise.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) WriteFrame(f *carrier.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// handleMedia runs the duplex audio channel for one call. The read loop
// parses frames and feeds the session; connection close means the call
// is over.
func (s *Server) handleMedia(c *websocket.Conn) {
	writer := &wsWriter{conn: c}
	var session *call.Session

	defer func() {
		if session != nil {
			session.Close()
		}
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		frame, err := carrier.ParseFrame(data)
		if err != nil {
			// Malformed frames are skipped; the stream stays open.
			s.logger.Debug("skipping malformed frame", "error", err)
			continue
		}

		if frame.Event == carrier.EventStart && session == nil && frame.Start != nil {
			session = s.newSession(writer)
			if err := s.registry.Add(frame.Start.CallSid, session); err != nil {
				s.logger.Warn("rejecting duplicate call",
					"call_sid", frame.Start.CallSid, "error", err)
				session = nil
				return
			}
		}

		if session != nil {
			session.HandleFrame(frame)
		}
	}
}

// newSession builds a call session bound to this connection. A failing
// transcriber factory leaves the session degraded but alive.
func (s *Server) newSession(writer call.FrameWriter) *call.Session {
	var transcriber stt.Live
	if s.cfg.NewTranscriber != nil {
		t, err := s.cfg.NewTranscriber()
		if err != nil {
			s.logger.Error("transcriber unavailable", "error", err)
		} else {
			transcriber = t
		}
	}

	return call.NewSession(call.SessionConfig{
		Completer:   s.cfg.Completer,
		Synth:       s.cfg.Synth,
		Transcriber: transcriber,
		Detector:    s.cfg.Detector,
		Store:       s.cfg.Store,
		Lookup:      s.cfg.Lookup,
		Writer:      writer,
		Preamble:    s.preamble,
		Greeting:    s.greeting,
		ChunkSize:   s.cfg.ChunkSize,
		OnClose:     s.registry.Remove,
		Logger:      s.cfg.Logger,
	})
}
