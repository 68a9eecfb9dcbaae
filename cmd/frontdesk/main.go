package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medlinehq/go-frontdesk/internal/config"
	"github.com/medlinehq/go-frontdesk/internal/log"
	"github.com/medlinehq/go-frontdesk/pkg/ai"
	"github.com/medlinehq/go-frontdesk/pkg/booking"
	"github.com/medlinehq/go-frontdesk/pkg/carrier"
	"github.com/medlinehq/go-frontdesk/pkg/stt"
	"github.com/medlinehq/go-frontdesk/pkg/tts"
	"github.com/medlinehq/go-frontdesk/pkg/web"
)

func main() {
	cfg := config.Load()
	log.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	completer, err := ai.NewGroq(
		ai.WithAPIKey(cfg.GroqAPIKey),
		ai.WithModel(cfg.GroqModel),
		ai.WithLogger(log.L()),
	)
	if err != nil {
		log.Error("ai client", "error", err)
		os.Exit(1)
	}

	synth, err := tts.NewElevenLabs(
		tts.WithAPIKey(cfg.ElevenLabsAPIKey),
		tts.WithVoice(cfg.ElevenLabsVoice),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		log.Error("tts provider", "error", err)
		os.Exit(1)
	}
	defer synth.Close()

	messenger, err := carrier.NewClient(
		cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.WhatsAppNumber,
		carrier.WithClientLogger(log.L()),
	)
	if err != nil {
		log.Error("carrier client", "error", err)
		os.Exit(1)
	}

	// Without a database the service still answers; bookings are only
	// logged.
	var store booking.Store = &booking.MockStore{}
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := booking.Migrate(ctx, cfg.DatabaseURL); err != nil {
			cancel()
			log.Error("database migration", "error", err)
			os.Exit(1)
		}
		pg, err := booking.NewPostgres(ctx, cfg.DatabaseURL, log.L())
		cancel()
		if err != nil {
			log.Error("database connection", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
	} else {
		log.Warn("DATABASE_URL not set, appointments will not be persisted")
	}

	server := web.NewServer(web.ServerConfig{
		Clinic: web.Clinic{
			Name:    cfg.ClinicName,
			Type:    cfg.ClinicType,
			Address: cfg.ClinicAddress,
			Phone:   cfg.ClinicPhone,
			Hours:   cfg.ClinicHours,
		},
		PublicHost: cfg.PublicHost,
		Completer:  completer,
		Synth:      synth,
		NewTranscriber: func() (stt.Live, error) {
			return stt.NewDeepgram(
				stt.WithAPIKey(cfg.DeepgramAPIKey),
				stt.WithLogger(log.L()),
			)
		},
		Detector:   booking.NewKeywordDetector(),
		Store:      store,
		Messenger:  messenger,
		Lookup:     messenger,
		SessionTTL: cfg.SessionTTL,
		ChunkSize:  cfg.ChunkSize,
		Logger:     log.L(),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	if err := server.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
