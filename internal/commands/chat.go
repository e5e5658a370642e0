package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/diogo/riskchat/internal/render"
	"github.com/diogo/riskchat/internal/session"
	"github.com/diogo/riskchat/internal/tui"
)

func (a *app) chatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the Risk Analyst agent.

The chat keeps the conversation context across messages. Charts in replies
are drawn inline. Press Enter to send, Alt+Enter for a new line, Ctrl+N for a
new chat and Ctrl+Y to copy the last reply.
Type 'exit', 'quit', or press Ctrl+C to end the session.

Logs are written to ~/.riskchat/riskchat.log.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logToFileAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context())
		},
	}
}

func (a *app) runChat(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	transport, release, err := a.deps.NewTransport(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer release()

	sess := session.New(transport, session.WithLogger(a.logger))

	return a.deps.RunChat(ctx, sess, a.cfg.Backend,
		tui.WithLogger(a.logger),
		tui.WithRenderOptions(render.OptionsFromConfig(a.cfg)),
		tui.WithClipboard(a.deps.Clipboard),
	)
}
