package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/diogo/riskchat/internal/api"
	"github.com/diogo/riskchat/internal/config"
	"github.com/diogo/riskchat/internal/models"
	"github.com/diogo/riskchat/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewTransport builds the backend a session talks to. The returned
	// function releases it.
	NewTransport func(cfg config.Config, logger *zap.Logger) (api.Transport, func(), error)

	// NewLogger builds the logger for one invocation
	NewLogger func(verbose bool, outputs []string) (*zap.Logger, error)

	// RunChat runs the terminal user interface
	RunChat func(ctx context.Context, conv tui.Conversation, backend string, opts ...tui.Option) error

	// Clipboard copies text to the system clipboard
	Clipboard func(text string) error
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewTransport: newTransport,
		NewLogger:    newLogger,
		RunChat:      tui.RunChat,
		Clipboard:    clipboard.WriteAll,
	}
}

// withDefaults fills in whatever a caller left unset
func (d *Dependencies) withDefaults() *Dependencies {
	def := NewDependencies()
	if d == nil {
		return def
	}
	out := *d
	if out.NewTransport == nil {
		out.NewTransport = def.NewTransport
	}
	if out.NewLogger == nil {
		out.NewLogger = def.NewLogger
	}
	if out.RunChat == nil {
		out.RunChat = def.RunChat
	}
	if out.Clipboard == nil {
		out.Clipboard = def.Clipboard
	}
	return &out
}

// newTransport picks the backend named in the configuration
func newTransport(cfg config.Config, logger *zap.Logger) (api.Transport, func(), error) {
	switch cfg.Backend {
	case models.BackendLocal:
		return api.NewLocalResponder(api.WithLocalLogger(logger)), func() {}, nil
	case models.BackendHTTP:
		client, err := api.NewClient(
			api.WithEndpoint(cfg.Endpoint),
			api.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
			api.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create client: %w", err)
		}
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// newLogger builds a production zap logger writing to outputs.
// Only warnings and errors are logged unless verbose is set.
func newLogger(verbose bool, outputs []string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.OutputPaths = outputs
	zc.ErrorOutputPaths = outputs
	zc.Sampling = nil

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
