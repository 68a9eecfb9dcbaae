package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medlinehq/go-frontdesk/pkg/ai"
	"github.com/medlinehq/go-frontdesk/pkg/convo"
)

func TestConfigValidation(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		_, err := ai.NewGroq()
		if err != ai.ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := ai.DefaultConfig()
		if cfg.Model != "llama-3.3-70b-versatile" {
			t.Errorf("unexpected default model %s", cfg.Model)
		}
		if cfg.MaxTokens != 150 {
			t.Errorf("expected max tokens 150, got %d", cfg.MaxTokens)
		}
		if cfg.Temperature != 0.7 {
			t.Errorf("expected temperature 0.7, got %f", cfg.Temperature)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", cfg.Timeout)
		}
	})

	t.Run("functional options", func(t *testing.T) {
		cfg := ai.DefaultConfig()
		cfg.Apply(
			ai.WithAPIKey("test-key"),
			ai.WithModel("test-model"),
			ai.WithMaxTokens(42),
		)
		if cfg.APIKey != "test-key" || cfg.Model != "test-model" || cfg.MaxTokens != 42 {
			t.Error("options not applied")
		}
	})
}

func TestGroqComplete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotReq struct {
			Model    string       `json:"model"`
			Messages []convo.Turn `json:"messages"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected auth header %q", auth)
			}
			json.NewDecoder(r.Body).Decode(&gotReq)
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "  Your appointment is confirmed.  "}},
				},
			})
		}))
		defer srv.Close()

		client, err := ai.NewGroq(ai.WithAPIKey("test-key"), ai.WithBaseURL(srv.URL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		c := convo.New()
		c.AppendCaller("book me for tomorrow")
		reply, err := client.Complete(context.Background(), c.Messages("preamble"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply != "Your appointment is confirmed." {
			t.Errorf("expected trimmed reply, got %q", reply)
		}
		if len(gotReq.Messages) != 2 {
			t.Errorf("expected 2 messages sent, got %d", len(gotReq.Messages))
		}
		if gotReq.Messages[0].Role != convo.RoleSystem {
			t.Error("expected leading system message")
		}
	})

	t.Run("retries server errors", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "ok"}},
				},
			})
		}))
		defer srv.Close()

		client, _ := ai.NewGroq(ai.WithAPIKey("k"), ai.WithBaseURL(srv.URL))
		reply, err := client.Complete(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply != "ok" {
			t.Errorf("expected ok, got %q", reply)
		}
		if hits.Load() != 2 {
			t.Errorf("expected 2 attempts, got %d", hits.Load())
		}
	})

	t.Run("API error surfaces status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "invalid api key"},
			})
		}))
		defer srv.Close()

		client, _ := ai.NewGroq(ai.WithAPIKey("bad"), ai.WithBaseURL(srv.URL))
		_, err := client.Complete(context.Background(), nil)
		var apiErr *ai.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != 401 || apiErr.Message != "invalid api key" {
			t.Errorf("unexpected APIError: %+v", apiErr)
		}
		if apiErr.IsRetryable() {
			t.Error("401 must not be retryable")
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer srv.Close()

		client, _ := ai.NewGroq(ai.WithAPIKey("k"), ai.WithBaseURL(srv.URL))
		_, err := client.Complete(context.Background(), nil)
		if !errors.Is(err, ai.ErrEmptyCompletion) {
			t.Errorf("expected ErrEmptyCompletion, got %v", err)
		}
	})
}

func TestMock(t *testing.T) {
	t.Run("canned reply", func(t *testing.T) {
		m := ai.WithReply("hello there")
		reply, err := m.Complete(context.Background(), nil)
		if err != nil || reply != "hello there" {
			t.Errorf("unexpected result %q, %v", reply, err)
		}
		if m.CallCount() != 1 {
			t.Errorf("expected 1 call, got %d", m.CallCount())
		}
	})

	t.Run("error mock", func(t *testing.T) {
		boom := errors.New("boom")
		m := ai.WithError(boom)
		_, err := m.Complete(context.Background(), nil)
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	})
}
