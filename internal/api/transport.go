// Package api implements the request/response exchange with the chat backend.
package api

import (
	"context"

	"github.com/diogo/riskchat/internal/models"
)

// Transport obtains the next assistant reply for an ordered message history.
// Implementations either return exactly one reply string or an error; they
// never modify the history they are given.
type Transport interface {
	Complete(ctx context.Context, history []models.Message) (string, error)
}

// Ensure implementations satisfy Transport
var (
	_ Transport = (*Client)(nil)
	_ Transport = (*LocalResponder)(nil)
	_ Transport = (*MockTransport)(nil)
)

// lastUserMessage returns the content of the most recent user message
func lastUserMessage(history []models.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].IsUser() {
			return history[i].Content
		}
	}
	return ""
}
