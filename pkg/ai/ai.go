// Package ai provides the chat-completion collaborator for the front desk.
//
// The default implementation talks to Groq's OpenAI-compatible chat
// completions API. All implementations satisfy the Completer interface so
// callers can swap providers (or inject a mock) without changing code.
//
// Example usage:
//
//	client, _ := ai.NewGroq(
//	    ai.WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	)
//	reply, _ := client.Complete(ctx, conversation.Messages(preamble))
package ai

import (
	"context"

	"github.com/medlinehq/go-frontdesk/pkg/convo"
)

// Completer produces one assistant reply for an ordered message list.
// The first message is expected to be the system preamble.
type Completer interface {
	// Complete sends the conversation and returns the reply text.
	Complete(ctx context.Context, messages []convo.Turn) (string, error)
}
