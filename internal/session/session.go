// Package session holds the conversation state and drives one exchange at a time.
package session

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/diogo/riskchat/internal/api"
	apierrors "github.com/diogo/riskchat/internal/errors"
	"github.com/diogo/riskchat/internal/models"
	"github.com/diogo/riskchat/internal/view"
)

// Result is the outcome of one Submit call
type Result struct {
	// User is the message that was recorded for the submitted input
	User models.Message
	// Reply is the assistant message, zero when the exchange failed
	Reply models.Message
	// Blocks holds the user echo followed by the reply or error blocks
	Blocks []models.Block
	// Err is the transport failure, nil on success
	Err error
}

// Failed reports whether the exchange ended in a transport failure
func (r Result) Failed() bool {
	return r.Err != nil
}

// Session is an ordered conversation with at most one outstanding request
type Session struct {
	transport api.Transport
	renderer  *view.Renderer
	logger    *zap.Logger

	mu       sync.Mutex
	messages []models.Message
	waiting  bool
	epoch    int
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger used for exchange diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderer sets the renderer used to build blocks
func WithRenderer(r *view.Renderer) Option {
	return func(s *Session) {
		if r != nil {
			s.renderer = r
		}
	}
}

// New creates an empty Session backed by the given transport
func New(transport api.Transport, opts ...Option) *Session {
	s := &Session{
		transport: transport,
		renderer:  view.NewRenderer(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit sends input as the next user message and waits for the reply.
//
// Whitespace-only input returns ErrEmptyMessage and a Submit while another
// exchange is outstanding returns ErrBusy; neither changes the conversation.
// A transport failure is not returned as an error: the user message is kept
// and marked failed, and the Result carries the failure and an error block.
func (s *Session) Submit(ctx context.Context, input string) (Result, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return Result{}, apierrors.ErrEmptyMessage
	}

	s.mu.Lock()
	if s.waiting {
		s.mu.Unlock()
		return Result{}, apierrors.ErrBusy
	}
	s.waiting = true
	user := models.NewUserMessage(text)
	s.messages = append(s.messages, user)
	index := len(s.messages) - 1
	epoch := s.epoch
	history := s.historyLocked()
	s.mu.Unlock()

	s.logger.Debug("submitting message",
		zap.Int("history_len", len(history)),
		zap.Int("input_len", len(text)),
	)

	reply, err := s.transport.Complete(ctx, history)
	if err == nil && strings.TrimSpace(reply) == "" {
		// A blank reply draws nothing and counts as a failed exchange.
		err = apierrors.NewParseError("reply is empty", "")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.waiting = false

	// A reset while waiting starts a new conversation; the late reply
	// belongs to the old one and is dropped.
	stale := s.epoch != epoch

	result := Result{User: user, Blocks: s.renderer.Blocks(user)}
	if err != nil {
		s.logger.Warn("exchange failed", zap.Error(err))
		if !stale {
			s.messages[index].Failed = true
			result.User = s.messages[index]
		}
		result.Err = err
		result.Blocks = append(result.Blocks, view.TransportErrorBlock())
		return result, nil
	}

	result.Reply = models.NewAssistantMessage(reply)
	if !stale {
		s.messages = append(s.messages, result.Reply)
	}
	result.Blocks = append(result.Blocks, s.renderer.Blocks(result.Reply)...)

	s.logger.Debug("exchange completed", zap.Int("reply_len", len(reply)))
	return result, nil
}

// History returns the messages that are sent to the backend: every message
// except user messages whose exchange failed.
func (s *Session) History() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked()
}

func (s *Session) historyLocked() []models.Message {
	history := make([]models.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		if msg.Failed {
			continue
		}
		history = append(history, msg)
	}
	return history
}

// Messages returns a copy of the full transcript, failed messages included
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Blocks renders the full transcript, failed exchanges included
func (s *Session) Blocks() []models.Block {
	return s.renderer.Transcript(s.Messages())
}

// LastReply returns the most recent assistant message
func (s *Session) LastReply() (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == models.RoleAssistant {
			return s.messages[i], true
		}
	}
	return models.Message{}, false
}

// IsEmpty reports whether the conversation has no messages
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages) == 0
}

// Reset starts a new conversation. A reply still in flight is discarded
// when it arrives.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.epoch++
	s.logger.Debug("conversation reset")
}
