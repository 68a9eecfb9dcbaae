package stt

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeLiveServer upgrades the connection and echoes a canned transcript for
// every binary frame it receives.
func fakeLiveServer(t *testing.T, transcript string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.URL.Query().Get("encoding") != "mulaw" {
			t.Errorf("expected mulaw encoding param, got %q", r.URL.Query().Get("encoding"))
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage && strings.Contains(string(msg), "CloseStream") {
				return
			}
			resp := `{"type":"Results","is_final":true,"speech_final":true,` +
				`"channel":{"alternatives":[{"transcript":"` + transcript + `","confidence":0.97}]}}`
			conn.WriteMessage(websocket.TextMessage, []byte(resp))
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDeepgramLive(t *testing.T) {
	srv := fakeLiveServer(t, "hello clinic")
	defer srv.Close()

	client, err := NewDeepgram(
		WithAPIKey("test-key"),
		WithBaseURL(wsURL(srv)),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := make(chan Result, 1)
	client.OnTranscript(func(r Result) {
		select {
		case results <- r:
		default:
		}
	})

	if err := client.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer client.Close()

	if err := client.Send([]byte{0x7f, 0x7f}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case r := <-results:
		if r.Text != "hello clinic" {
			t.Errorf("expected transcript, got %q", r.Text)
		}
		if !r.IsFinal || !r.SpeechFinal {
			t.Error("expected final transcript flags")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transcript")
	}

	if err := client.Finish(); err != nil {
		t.Errorf("finish failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	// Double close is a no-op.
	if err := client.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

func TestDeepgramSendBeforeStart(t *testing.T) {
	client, err := NewDeepgram(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.Send([]byte{1}); err != ErrNotStarted {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestDeepgramConfig(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		if _, err := NewDeepgram(); err != ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("query params", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Apply(WithUtteranceEnd(1500 * time.Millisecond))
		q := cfg.queryParams()
		if q.Get("model") != "nova-2" {
			t.Errorf("unexpected model %q", q.Get("model"))
		}
		if q.Get("sample_rate") != "8000" {
			t.Errorf("unexpected sample rate %q", q.Get("sample_rate"))
		}
		if q.Get("endpointing") != "1500" {
			t.Errorf("unexpected endpointing %q", q.Get("endpointing"))
		}
		if q.Get("interim_results") != "false" {
			t.Error("interim results must be disabled")
		}
	})
}
