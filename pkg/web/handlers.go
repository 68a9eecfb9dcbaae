package web

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medlinehq/go-frontdesk/pkg/booking"
	"github.com/medlinehq/go-frontdesk/pkg/carrier"
	"github.com/medlinehq/go-frontdesk/pkg/convo"
)

const apology = "Sorry, I encountered an error. Please try again or call us directly."

// handleRoot describes the service.
func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"service": "Clinic Front Desk",
		"clinic":  s.cfg.Clinic.Name,
		"features": fiber.Map{
			"voice":    "enabled (media stream)",
			"sms":      "enabled",
			"whatsapp": "enabled",
		},
		"endpoints": fiber.Map{
			"voice":    "/voice",
			"sms":      "/sms",
			"whatsapp": "/whatsapp",
			"media":    "/media",
			"status":   "/status",
		},
	})
}

// handleStatus reports service health.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":              "healthy",
		"activeCalls":         s.registry.Len(),
		"activeConversations": s.threads.Len(),
		"uptime":              time.Since(s.started).Seconds(),
		"version":             Version,
	})
}

// handleVoice answers an incoming call with TwiML that connects the
// carrier to the media stream WebSocket.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	s.logger.Info("incoming call", "from", c.FormValue("From"))

	host := s.cfg.PublicHost
	if host == "" {
		host = c.Hostname()
	}

	twiml, err := carrier.VoiceTwiML("wss://" + host + "/media")
	if err != nil {
		return fiber.ErrInternalServerError
	}
	c.Type("xml")
	return c.SendString(twiml)
}

// handleSMS runs one text turn and replies inline via TwiML.
func (s *Server) handleSMS(c *fiber.Ctx) error {
	from := c.FormValue("From")
	body := c.FormValue("Body")
	s.logger.Info("incoming sms", "from", from)

	reply, err := s.textTurn(c.Context(), from, body)
	if err != nil {
		s.logger.Error("sms turn failed", "from", from, "error", err)
		reply = apology
	}

	twiml, err := carrier.MessageTwiML(reply)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	c.Type("xml")
	return c.SendString(twiml)
}

// handleWhatsApp runs one text turn and replies via the carrier REST
// API rather than inline.
func (s *Server) handleWhatsApp(c *fiber.Ctx) error {
	from := c.FormValue("From")
	body := c.FormValue("Body")
	s.logger.Info("incoming whatsapp", "from", from)

	reply, err := s.textTurn(c.Context(), from, body)
	if err != nil {
		s.logger.Error("whatsapp turn failed", "from", from, "error", err)
		s.sendMessage(from, apology)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	s.sendMessage(from, reply)
	return c.SendStatus(fiber.StatusOK)
}

// textTurn runs one completion turn for a text-channel sender. The
// thread lock serializes turns so at most one completion is in flight
// per sender.
func (s *Server) textTurn(ctx context.Context, from, body string) (string, error) {
	thread := s.threads.Get(from)
	thread.Lock.Lock()
	defer thread.Lock.Unlock()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	messages := thread.Conversation.Messages(s.preamble)
	messages = append(messages, convo.Turn{Role: convo.RoleCaller, Content: body})

	reply, err := s.cfg.Completer.Complete(cctx, messages)
	if err != nil {
		return "", err
	}

	if err := thread.Conversation.AppendCaller(body); err != nil {
		return "", err
	}
	if err := thread.Conversation.AppendAssistant(reply); err != nil {
		return "", err
	}

	if s.cfg.Detector != nil && s.cfg.Store != nil && s.cfg.Detector.Detect(reply) {
		go s.saveBooking(from, thread.Conversation.FullText())
	}
	return reply, nil
}

// sendMessage delivers an outbound message, logging failures.
func (s *Server) sendMessage(to, body string) {
	if s.cfg.Messenger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.cfg.Messenger.SendMessage(ctx, to, body); err != nil {
		s.logger.Error("outbound message failed", "to", to, "error", err)
	}
}

// saveBooking extracts and persists an appointment. Fire and forget.
func (s *Server) saveBooking(from, fullText string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	details := booking.Extract(fullText, time.Now())
	appt := details.Appointment(from)
	if err := s.cfg.Store.Insert(ctx, appt); err != nil {
		s.logger.Error("appointment insert failed", "from", from, "error", err)
		return
	}
	s.logger.Info("appointment booked",
		"patient", appt.PatientName,
		"service", appt.ServiceType,
		"time", appt.Time,
	)
}
