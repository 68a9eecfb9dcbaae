// Package config provides environment-based configuration for go-frontdesk.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultPort            = "3000"
	DefaultLogLevel        = "info"
	DefaultGroqModel       = "llama-3.3-70b-versatile"
	DefaultSessionTTL      = 30 * time.Minute
	DefaultChunkSize       = 8000
	DefaultCompletionLimit = 150
)

// Config holds the full service configuration.
type Config struct {
	// Server
	Port     string
	LogLevel string
	// PublicHost is the externally reachable host used to build the
	// media-stream WebSocket URL handed to the carrier.
	PublicHost string

	// Clinic identity, injected into the AI system preamble.
	ClinicName    string
	ClinicType    string
	ClinicAddress string
	ClinicPhone   string
	ClinicHours   string

	// Collaborator credentials
	GroqAPIKey       string
	GroqModel        string
	DeepgramAPIKey   string
	ElevenLabsAPIKey string
	ElevenLabsVoice  string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioNumber     string
	WhatsAppNumber   string

	// Persistence. Empty DatabaseURL runs the service without a store.
	DatabaseURL string

	// Tuning
	SessionTTL time.Duration
	ChunkSize  int
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		Port:             envOr("PORT", DefaultPort),
		LogLevel:         envOr("LOG_LEVEL", DefaultLogLevel),
		PublicHost:       os.Getenv("PUBLIC_HOST"),
		ClinicName:       envOr("CLINIC_NAME", "the clinic"),
		ClinicType:       envOr("CLINIC_TYPE", "dental"),
		ClinicAddress:    os.Getenv("CLINIC_ADDRESS"),
		ClinicPhone:      os.Getenv("CLINIC_PHONE"),
		ClinicHours:      os.Getenv("CLINIC_HOURS"),
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		GroqModel:        envOr("GROQ_MODEL", DefaultGroqModel),
		DeepgramAPIKey:   os.Getenv("DEEPGRAM_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoice:  os.Getenv("ELEVENLABS_VOICE_ID"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioNumber:     os.Getenv("TWILIO_PHONE_NUMBER"),
		WhatsAppNumber:   os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SessionTTL:       envDurationOr("SESSION_TTL", DefaultSessionTTL),
		ChunkSize:        envIntOr("MEDIA_CHUNK_SIZE", DefaultChunkSize),
	}
}

// Validate checks that the credentials required to serve traffic are present.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("config: GROQ_API_KEY is required")
	}
	if c.DeepgramAPIKey == "" {
		return fmt.Errorf("config: DEEPGRAM_API_KEY is required")
	}
	if c.ElevenLabsAPIKey == "" {
		return fmt.Errorf("config: ELEVENLABS_API_KEY is required")
	}
	if c.ElevenLabsVoice == "" {
		return fmt.Errorf("config: ELEVENLABS_VOICE_ID is required")
	}
	if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" {
		return fmt.Errorf("config: TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
