package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medlinehq/go-frontdesk/pkg/ai"
	"github.com/medlinehq/go-frontdesk/pkg/booking"
	"github.com/medlinehq/go-frontdesk/pkg/carrier"
	"github.com/medlinehq/go-frontdesk/pkg/convo"
	"github.com/medlinehq/go-frontdesk/pkg/tts"
	"github.com/medlinehq/go-frontdesk/pkg/web"
)

var testClinic = web.Clinic{
	Name:    "Smile Dental",
	Type:    "dental",
	Address: "12 Canal Road",
	Phone:   "+92-300-1234567",
	Hours:   "Mon-Sat 9am-5pm",
}

func newTestServer(t *testing.T, cfg web.ServerConfig) *web.Server {
	t.Helper()
	cfg.Clinic = testClinic
	if cfg.Completer == nil {
		cfg.Completer = ai.NewMock()
	}
	if cfg.Synth == nil {
		cfg.Synth = tts.NewMock()
	}
	s := web.NewServer(cfg)
	t.Cleanup(func() { s.Shutdown() })
	return s
}

func postForm(t *testing.T, s *web.Server, path string, form url.Values) *http.Response {
	t.Helper()
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.App().Test(req, 5000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestRootDescriptor(t *testing.T) {
	s := newTestServer(t, web.ServerConfig{})

	req, _ := http.NewRequest("GET", "/", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status    string            `json:"status"`
		Clinic    string            `json:"clinic"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "running" || body.Clinic != "Smile Dental" {
		t.Errorf("unexpected descriptor: %+v", body)
	}
	for _, ep := range []string{"voice", "sms", "whatsapp", "media", "status"} {
		if body.Endpoints[ep] == "" {
			t.Errorf("missing endpoint %q", ep)
		}
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, web.ServerConfig{})

	req, _ := http.NewRequest("GET", "/status", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status              string  `json:"status"`
		ActiveCalls         int     `json:"activeCalls"`
		ActiveConversations int     `json:"activeConversations"`
		Uptime              float64 `json:"uptime"`
		Version             string  `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || body.Version != web.Version {
		t.Errorf("unexpected status: %+v", body)
	}
	if body.ActiveCalls != 0 || body.ActiveConversations != 0 {
		t.Errorf("expected no activity, got %+v", body)
	}
}

func TestVoiceConnectsMediaStream(t *testing.T) {
	s := newTestServer(t, web.ServerConfig{PublicHost: "clinic.example.com"})

	form := url.Values{"From": {"+15550123"}}
	resp := postForm(t, s, "/voice", form)
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "xml") {
		t.Errorf("expected xml content type, got %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `url="wss://clinic.example.com/media"`) {
		t.Errorf("expected stream connect, got %s", body)
	}
}

func TestSMSTurn(t *testing.T) {
	t.Run("replies inline with TwiML", func(t *testing.T) {
		s := newTestServer(t, web.ServerConfig{
			Completer: ai.WithReply("We open at 9am."),
		})

		form := url.Values{"From": {"+15550123"}, "Body": {"what time do you open"}}
		resp := postForm(t, s, "/sms", form)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "<Message>We open at 9am.</Message>") {
			t.Errorf("unexpected reply: %s", body)
		}
		if s.ActiveThreads() != 1 {
			t.Errorf("expected 1 thread, got %d", s.ActiveThreads())
		}
	})

	t.Run("completion failure yields apology", func(t *testing.T) {
		s := newTestServer(t, web.ServerConfig{
			Completer: ai.WithError(errors.New("upstream down")),
		})

		form := url.Values{"From": {"+15550123"}, "Body": {"hello"}}
		resp := postForm(t, s, "/sms", form)
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Errorf("expected 200 with apology, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "Sorry, I encountered an error") {
			t.Errorf("expected apology, got %s", body)
		}
	})

	t.Run("failed turn leaves no trace in the thread", func(t *testing.T) {
		completer := &ai.Mock{}
		var fail atomic.Bool
		fail.Store(true)
		completer.CompleteFunc = func(ctx context.Context, messages []convo.Turn) (string, error) {
			if fail.Load() {
				return "", errors.New("flaky")
			}
			return "Recovered.", nil
		}
		s := newTestServer(t, web.ServerConfig{Completer: completer})

		form := url.Values{"From": {"+15550123"}, "Body": {"hello"}}
		postForm(t, s, "/sms", form).Body.Close()

		fail.Store(false)
		resp := postForm(t, s, "/sms", form)
		defer resp.Body.Close()

		// The retry must see a clean alternation, so the failed turn
		// cannot have appended a caller turn.
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "<Message>Recovered.</Message>") {
			t.Errorf("unexpected reply: %s", body)
		}
	})
}

func TestWhatsAppTurn(t *testing.T) {
	t.Run("replies via carrier send", func(t *testing.T) {
		messenger := &carrier.MockMessenger{}
		store := &booking.MockStore{}
		s := newTestServer(t, web.ServerConfig{
			Completer: ai.WithReply("Your checkup is confirmed for 3pm!"),
			Detector:  booking.NewKeywordDetector(),
			Store:     store,
			Messenger: messenger,
		})

		form := url.Values{
			"From": {"whatsapp:+15550123"},
			"Body": {"I'd like a checkup for tomorrow at 3pm, my name is Ali"},
		}
		resp := postForm(t, s, "/whatsapp", form)
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		sent := messenger.Sent()
		if len(sent) != 1 || sent[0].To != "whatsapp:+15550123" {
			t.Fatalf("unexpected sends: %+v", sent)
		}
		if sent[0].Body != "Your checkup is confirmed for 3pm!" {
			t.Errorf("unexpected body: %q", sent[0].Body)
		}

		// Booking is fire-and-forget; give it a moment.
		deadline := time.Now().Add(2 * time.Second)
		for store.Len() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if store.Len() != 1 {
			t.Fatalf("expected 1 booking, got %d", store.Len())
		}
		a := store.Inserted()[0]
		if a.PatientName != "Ali" || a.ServiceType != "checkup" {
			t.Errorf("unexpected appointment: %+v", a)
		}
	})

	t.Run("completion failure sends apology and 500", func(t *testing.T) {
		messenger := &carrier.MockMessenger{}
		s := newTestServer(t, web.ServerConfig{
			Completer: ai.WithError(errors.New("upstream down")),
			Messenger: messenger,
		})

		form := url.Values{"From": {"whatsapp:+15550123"}, "Body": {"hello"}}
		resp := postForm(t, s, "/whatsapp", form)
		defer resp.Body.Close()

		if resp.StatusCode != 500 {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
		sent := messenger.Sent()
		if len(sent) != 1 || !strings.Contains(sent[0].Body, "Sorry") {
			t.Errorf("expected apology send, got %+v", sent)
		}
	})
}

func TestBuildPreamble(t *testing.T) {
	p := web.BuildPreamble(testClinic)
	for _, want := range []string{
		"Smile Dental", "dental clinic", "12 Canal Road",
		"Mon-Sat 9am-5pm", "Root Canal", "Keep responses SHORT",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("preamble missing %q", want)
		}
	}
}

func TestGreeting(t *testing.T) {
	g := web.Greeting("Smile Dental")
	if !strings.Contains(g, "Smile Dental") {
		t.Errorf("unexpected greeting: %q", g)
	}
}
