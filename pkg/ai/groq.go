package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/medlinehq/go-frontdesk/internal/httpc"
	"github.com/medlinehq/go-frontdesk/pkg/convo"
)

const (
	groqBaseURL  = "https://api.groq.com/openai/v1"
	providerGroq = "groq"
)

// Groq implements Completer against Groq's OpenAI-compatible API.
type Groq struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewGroq creates a new Groq completion client.
func NewGroq(opts ...Option) (*Groq, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = groqBaseURL
	}

	return &Groq{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "ai.groq"),
		baseURL: baseURL,
	}, nil
}

type chatRequest struct {
	Model       string       `json:"model"`
	Messages    []convo.Turn `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation and returns the reply text.
func (g *Groq) Complete(ctx context.Context, messages []convo.Turn) (string, error) {
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model:       g.config.Model,
		Messages:    messages,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return "", WrapError(providerGroq, fmt.Errorf("marshal request: %w", err))
	}

	url := g.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", WrapError(providerGroq, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.doWithRetry(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", g.parseError(resp)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", WrapError(providerGroq, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", WrapError(providerGroq, ErrEmptyCompletion)
	}

	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)

	g.logger.Debug("completion",
		"messages", len(messages),
		"reply_chars", len(reply),
		"latency_ms", time.Since(start).Milliseconds(),
		"model", g.config.Model,
	)

	return reply, nil
}

// doWithRetry performs the request with retry logic on 429/5xx.
func (g *Groq) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.config.RetryDelay * time.Duration(attempt)):
			}

			if req.GetBody != nil {
				req.Body, _ = req.GetBody()
			}
		}

		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerGroq, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = g.parseError(resp)
			resp.Body.Close()
			g.logger.Warn("retrying completion",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (g *Groq) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerGroq,
	}
}

// Verify Groq implements Completer at compile time.
var _ Completer = (*Groq)(nil)
