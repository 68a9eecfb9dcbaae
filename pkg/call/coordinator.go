package call

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/medlinehq/go-frontdesk/pkg/ai"
	"github.com/medlinehq/go-frontdesk/pkg/booking"
	"github.com/medlinehq/go-frontdesk/pkg/convo"
	"github.com/medlinehq/go-frontdesk/pkg/tts"
)

// State is the coordinator's turn-taking state.
type State int

const (
	// StateIdle means no turn is in flight; new transcripts start one.
	StateIdle State = iota
	// StateAwaitingCompletion means a completion request is in flight.
	StateAwaitingCompletion
	// StateSpeaking means synthesized audio is being delivered.
	StateSpeaking
	// StateClosed is terminal; everything is discarded.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateSpeaking:
		return "speaking"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// DefaultStepTimeout bounds each completion and synthesis call.
const DefaultStepTimeout = 10 * time.Second

// CoordinatorConfig wires the coordinator's collaborators.
type CoordinatorConfig struct {
	Conversation *convo.Conversation
	Completer    ai.Completer
	Synth        tts.Provider
	Detector     booking.Detector
	Store        booking.Store

	// Preamble is the system prompt prepended to every completion.
	Preamble string

	// Caller returns the caller's address when known, "" otherwise.
	// Resolved asynchronously, so it is read at booking time.
	Caller func() string

	// Speak delivers one reply's audio to the caller. It blocks until
	// the audio has been written out.
	Speak func(audio []byte)

	// StepTimeout bounds each completion and synthesis call.
	// Zero selects DefaultStepTimeout.
	StepTimeout time.Duration

	Logger *slog.Logger
}

// Coordinator serializes the STT → completion → TTS turn cycle for one
// call. At most one turn is in flight; a transcript arriving while busy
// waits in a one-slot queue where the latest transcript wins. Each turn
// is stamped with a monotonic counter so continuations of a superseded
// or closed turn are discarded.
type Coordinator struct {
	cfg CoordinatorConfig

	mu     sync.Mutex
	state  State
	turn   uint64
	queued string
	hasQ   bool

	logger *slog.Logger
}

// NewCoordinator creates a coordinator in the Idle state.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Caller == nil {
		cfg.Caller = func() string { return "" }
	}
	if cfg.Speak == nil {
		cfg.Speak = func([]byte) {}
	}
	return &Coordinator{
		cfg:    cfg,
		state:  StateIdle,
		logger: cfg.Logger.With("component", "call.coordinator"),
	}
}

// State returns the current turn-taking state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit hands a final transcript to the coordinator. While a turn is
// in flight the transcript is queued one deep, latest wins. After Close
// all transcripts are discarded.
func (c *Coordinator) Submit(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return
	case StateIdle:
		c.startTurnLocked(text)
	default:
		// Busy: overwrite the slot, latest transcript wins.
		c.queued = text
		c.hasQ = true
	}
}

// Close moves the coordinator to the terminal state. In-flight turn
// continuations observe the state change and stop.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
	c.hasQ = false
	c.queued = ""
}

// startTurnLocked stamps a new turn and launches its worker.
// Caller must hold c.mu.
func (c *Coordinator) startTurnLocked(text string) {
	c.state = StateAwaitingCompletion
	c.turn++
	go c.runTurn(c.turn, text)
}

// runTurn executes one STT → completion → TTS cycle.
func (c *Coordinator) runTurn(turn uint64, text string) {
	reply, err := c.complete(text)
	if err != nil {
		c.logger.Warn("completion failed", "turn", turn, "error", err)
		c.finishTurn(turn)
		return
	}

	c.mu.Lock()
	if c.state == StateClosed || c.turn != turn {
		c.mu.Unlock()
		return
	}
	// Both appends happen under the coordinator lock so the
	// conversation's role alternation cannot be interleaved.
	if err := c.cfg.Conversation.AppendCaller(text); err != nil {
		c.mu.Unlock()
		c.logger.Warn("dropping out-of-order turn", "turn", turn, "error", err)
		c.finishTurn(turn)
		return
	}
	if err := c.cfg.Conversation.AppendAssistant(reply); err != nil {
		c.mu.Unlock()
		c.logger.Warn("dropping out-of-order reply", "turn", turn, "error", err)
		c.finishTurn(turn)
		return
	}
	c.state = StateSpeaking
	c.mu.Unlock()

	if c.cfg.Detector != nil && c.cfg.Store != nil && c.cfg.Detector.Detect(reply) {
		go c.saveBooking()
	}

	c.speakReply(turn, reply)
	c.finishTurn(turn)
}

// complete builds the message list without mutating the conversation,
// so a failed completion leaves no trace.
func (c *Coordinator) complete(text string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.StepTimeout)
	defer cancel()

	messages := c.cfg.Conversation.Messages(c.cfg.Preamble)
	messages = append(messages, convo.Turn{Role: convo.RoleCaller, Content: text})
	return c.cfg.Completer.Complete(ctx, messages)
}

// speakReply synthesizes and delivers the reply audio. Synthesis
// failure keeps the text turn and skips audio.
func (c *Coordinator) speakReply(turn uint64, reply string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.StepTimeout)
	defer cancel()

	result, err := c.cfg.Synth.Synthesize(ctx, reply)
	if err != nil {
		c.logger.Warn("synthesis failed, reply kept as text only",
			"turn", turn, "error", err)
		return
	}

	c.mu.Lock()
	stale := c.state == StateClosed || c.turn != turn
	c.mu.Unlock()
	if stale {
		return
	}

	c.cfg.Speak(result.Audio)
}

// finishTurn returns to Idle and drains the one-slot queue.
func (c *Coordinator) finishTurn(turn uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed || c.turn != turn {
		return
	}
	c.state = StateIdle

	if c.hasQ {
		text := c.queued
		c.queued = ""
		c.hasQ = false
		c.startTurnLocked(text)
	}
}

// saveBooking extracts appointment details from the transcript and
// inserts them. Fire and forget: failures are logged, never surfaced
// to the caller.
func (c *Coordinator) saveBooking() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.StepTimeout)
	defer cancel()

	details := booking.Extract(c.cfg.Conversation.FullText(), time.Now())
	appt := details.Appointment(c.cfg.Caller())

	if err := c.cfg.Store.Insert(ctx, appt); err != nil {
		c.logger.Error("appointment insert failed",
			"patient", appt.PatientName, "error", err)
		return
	}
	c.logger.Info("appointment booked",
		"patient", appt.PatientName,
		"service", appt.ServiceType,
		"time", appt.Time,
	)
}
