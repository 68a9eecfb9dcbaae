package stt

import (
	"log/slog"
	"net/url"
	"strconv"
	"time"
)

// Config holds streaming transcription configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey string
	// BaseURL overrides the WebSocket endpoint (ws:// or wss://).
	BaseURL string

	// Model configuration
	Model    string
	Language string

	// Audio input format. Telephony default: 8kHz mono mu-law.
	Encoding   string
	SampleRate int
	Channels   int

	// Formatting
	SmartFormat bool
	Punctuate   bool

	// UtteranceEnd is the silence duration after which the recognizer
	// considers a spoken turn finished.
	UtteranceEnd time.Duration

	// DialTimeout bounds the WebSocket handshake.
	DialTimeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring transcription clients.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default WebSocket endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the recognition model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithLanguage sets the language code.
func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.Language = lang
	}
}

// WithAudioFormat sets the input encoding, sample rate and channel count.
func WithAudioFormat(encoding string, sampleRate, channels int) Option {
	return func(c *Config) {
		c.Encoding = encoding
		c.SampleRate = sampleRate
		c.Channels = channels
	}
}

// WithUtteranceEnd sets the silence-based utterance-end threshold.
func WithUtteranceEnd(d time.Duration) Option {
	return func(c *Config) {
		c.UtteranceEnd = d
	}
}

// WithLogger sets the structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible defaults for carrier audio.
func DefaultConfig() *Config {
	return &Config{
		Model:        "nova-2",
		Language:     "en",
		Encoding:     "mulaw",
		SampleRate:   8000,
		Channels:     1,
		SmartFormat:  true,
		Punctuate:    true,
		UtteranceEnd: time.Second,
		DialTimeout:  10 * time.Second,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// queryParams renders the config as live-endpoint query parameters.
func (c *Config) queryParams() url.Values {
	q := url.Values{}
	q.Set("model", c.Model)
	q.Set("language", c.Language)
	q.Set("encoding", c.Encoding)
	q.Set("sample_rate", strconv.Itoa(c.SampleRate))
	q.Set("channels", strconv.Itoa(c.Channels))
	q.Set("smart_format", strconv.FormatBool(c.SmartFormat))
	q.Set("punctuate", strconv.FormatBool(c.Punctuate))
	q.Set("interim_results", "false")
	q.Set("endpointing", strconv.FormatInt(c.UtteranceEnd.Milliseconds(), 10))
	return q
}
