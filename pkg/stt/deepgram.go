package stt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	deepgramLiveURL  = "wss://api.deepgram.com/v1/listen"
	providerDeepgram = "deepgram"
)

// Deepgram implements Live against Deepgram's streaming transcription API.
// One instance serves one call; create a new client per call.
type Deepgram struct {
	config *Config
	logger *slog.Logger

	onTranscript func(Result)

	ws   *websocket.Conn
	wsMu sync.Mutex

	started bool
	closed  bool
	mu      sync.Mutex
}

// NewDeepgram creates a streaming transcription client for one call.
func NewDeepgram(opts ...Option) (*Deepgram, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Deepgram{
		config: cfg,
		logger: cfg.Logger.With("component", "stt.deepgram"),
	}, nil
}

// OnTranscript sets the transcript callback. Must be called before Start.
func (d *Deepgram) OnTranscript(fn func(Result)) {
	d.onTranscript = fn
}

// Start dials the live endpoint and begins the read pump.
func (d *Deepgram) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}

	base := d.config.BaseURL
	if base == "" {
		base = deepgramLiveURL
	}
	url := base + "?" + d.config.queryParams().Encode()

	header := http.Header{}
	header.Set("Authorization", "Token "+d.config.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: d.config.DialTimeout}
	ws, _, err := dialer.Dial(url, header)
	if err != nil {
		return WrapError(providerDeepgram, fmt.Errorf("dial live endpoint: %w", err))
	}

	d.ws = ws
	d.started = true

	go d.readPump()

	d.logger.Debug("live stream opened",
		"model", d.config.Model,
		"encoding", d.config.Encoding,
		"sample_rate", d.config.SampleRate,
	)
	return nil
}

// Send forwards raw audio bytes to the recognizer.
func (d *Deepgram) Send(audio []byte) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return ErrNotStarted
	}
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.mu.Unlock()

	d.wsMu.Lock()
	defer d.wsMu.Unlock()
	if err := d.ws.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return WrapError(providerDeepgram, err)
	}
	return nil
}

// Finish signals end of audio so the recognizer flushes pending results.
func (d *Deepgram) Finish() error {
	d.mu.Lock()
	if !d.started || d.closed {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	d.wsMu.Lock()
	defer d.wsMu.Unlock()
	msg := []byte(`{"type":"CloseStream"}`)
	if err := d.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
		return WrapError(providerDeepgram, err)
	}
	return nil
}

// Close tears down the connection.
func (d *Deepgram) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	ws := d.ws
	d.mu.Unlock()

	if ws != nil {
		return ws.Close()
	}
	return nil
}

// liveResponse is the subset of the live API response we consume.
type liveResponse struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	SpeechFinal bool `json:"speech_final"`
}

// readPump reads transcript events until the connection closes.
func (d *Deepgram) readPump() {
	for {
		_, message, err := d.ws.ReadMessage()
		if err != nil {
			d.mu.Lock()
			closed := d.closed
			d.mu.Unlock()
			if !closed {
				d.logger.Debug("live stream ended", "err", err)
			}
			return
		}

		var resp liveResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			continue
		}
		if resp.Type != "Results" || len(resp.Channel.Alternatives) == 0 {
			continue
		}

		alt := resp.Channel.Alternatives[0]
		if d.onTranscript != nil {
			d.onTranscript(Result{
				Text:        alt.Transcript,
				Confidence:  alt.Confidence,
				IsFinal:     resp.IsFinal,
				SpeechFinal: resp.SpeechFinal,
			})
		}
	}
}

// Verify Deepgram implements Live at compile time.
var _ Live = (*Deepgram)(nil)
