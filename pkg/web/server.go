// Package web wires the front-desk service together: webhook routes for
// voice, SMS and WhatsApp, the media stream WebSocket endpoint, and the
// health surface.
package web

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/medlinehq/go-frontdesk/pkg/ai"
	"github.com/medlinehq/go-frontdesk/pkg/booking"
	"github.com/medlinehq/go-frontdesk/pkg/call"
	"github.com/medlinehq/go-frontdesk/pkg/carrier"
	"github.com/medlinehq/go-frontdesk/pkg/convo"
	"github.com/medlinehq/go-frontdesk/pkg/stt"
	"github.com/medlinehq/go-frontdesk/pkg/tts"
)

// Version identifies the service build on the health surface.
const Version = "1.0.0"

// ServerConfig wires the server's collaborators.
type ServerConfig struct {
	Clinic Clinic

	// PublicHost is the externally reachable host used to build the
	// media stream WebSocket URL. Empty falls back to the request host.
	PublicHost string

	Completer ai.Completer
	Synth     tts.Provider

	// NewTranscriber creates a fresh STT stream for each call.
	NewTranscriber func() (stt.Live, error)

	Detector  booking.Detector
	Store     booking.Store
	Messenger carrier.Messenger
	Lookup    carrier.CallLookup

	// SessionTTL bounds idle text conversations. Zero selects 30m.
	SessionTTL time.Duration
	// ChunkSize for outbound media frames. Zero selects the default.
	ChunkSize int

	Logger *slog.Logger
}

// Server is the front-desk HTTP/WebSocket server.
type Server struct {
	app      *fiber.App
	cfg      ServerConfig
	threads  *convo.Store
	registry *call.Registry
	preamble string
	greeting string
	started  time.Time
	logger   *slog.Logger
}

// NewServer creates the server and registers all routes.
func NewServer(cfg ServerConfig) *Server {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		threads:  convo.NewStore(cfg.SessionTTL),
		registry: call.NewRegistry(),
		preamble: BuildPreamble(cfg.Clinic),
		greeting: Greeting(cfg.Clinic.Name),
		started:  time.Now(),
		logger:   cfg.Logger.With("component", "web.server"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Clinic Front Desk",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/", s.handleRoot)
	app.Get("/status", s.handleStatus)
	app.Post("/voice", s.handleVoice)
	app.Post("/sms", s.handleSMS)
	app.Post("/whatsapp", s.handleWhatsApp)

	app.Use("/media", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/media", websocket.New(s.handleMedia))

	s.app = app
	return s
}

// Listen serves on the given address until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("front desk listening", "addr", addr, "clinic", s.cfg.Clinic.Name)
	return s.app.Listen(addr)
}

// App exposes the fiber app for handler tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// ActiveCalls returns the number of live voice sessions.
func (s *Server) ActiveCalls() int {
	return s.registry.Len()
}

// ActiveThreads returns the number of live text conversations.
func (s *Server) ActiveThreads() int {
	return s.threads.Len()
}

// Shutdown gracefully stops the server and the conversation janitor.
func (s *Server) Shutdown() error {
	s.threads.Close()
	return s.app.Shutdown()
}
