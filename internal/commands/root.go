// Package commands provides CLI commands for riskchat.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/riskchat/internal/config"
	"github.com/diogo/riskchat/internal/render"
	"github.com/diogo/riskchat/internal/tui"
)

// Version info (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// logToFileAnnotation marks commands whose logs must not reach the terminal
const logToFileAnnotation = "riskchat/log-to-file"

// globalFlags are the flags shared by every command
type globalFlags struct {
	file     string
	backend  string
	endpoint string
	theme    string
	timeout  int
	verbose  bool
	copy     bool
	raw      bool
	version  bool
}

// app carries the state of one invocation: the resolved configuration and
// the logger built from it.
type app struct {
	deps   *Dependencies
	flags  globalFlags
	cfg    config.Config
	logger *zap.Logger
}

func newApp(deps *Dependencies) *app {
	return &app{
		deps:   deps.withDefaults(),
		cfg:    config.DefaultConfig(),
		logger: zap.NewNop(),
	}
}

// command builds the command tree bound to this app
func (a *app) command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "riskchat [prompt]",
		Short: "Terminal client for the Risk Analyst agent",
		Long: `riskchat talks to the Risk Analyst agent, an AI financial data analyst.
Replies can carry charts, which are drawn right in the terminal.

Examples:
  riskchat chat                              Start interactive chat
  riskchat "Show me the risk exposure"       Send a single query
  riskchat -f question.md                    Read the question from a file
  cat question.md | riskchat                 Read the question from stdin
  riskchat --backend local chat              Chat without a backend
  riskchat config set endpoint http://host:8000/chat`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.version {
				fmt.Fprintf(cmd.OutOrStdout(), "riskchat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(cmd.InOrStdin(), a.flags.file, args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}
			return a.runQuery(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), prompt)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&a.flags.verbose, "verbose", false, "Enable debug logging")
	pf.StringVar(&a.flags.backend, "backend", "", "Backend to use (http or local)")
	pf.StringVar(&a.flags.endpoint, "endpoint", "", "Chat endpoint URL for the http backend")
	pf.IntVar(&a.flags.timeout, "timeout", 0, "Request timeout in seconds")
	pf.StringVar(&a.flags.theme, "theme", "", "TUI color theme")

	rootCmd.Flags().StringVarP(&a.flags.file, "file", "f", "", "Read the question from a file")
	rootCmd.Flags().BoolVar(&a.flags.copy, "copy", false, "Copy the reply to the clipboard")
	rootCmd.Flags().BoolVar(&a.flags.raw, "raw", false, "Print the reply without colors or markdown rendering")
	rootCmd.Flags().BoolVarP(&a.flags.version, "version", "v", false, "Show version and exit")

	rootCmd.AddCommand(a.chatCommand())
	rootCmd.AddCommand(a.configCommand())
	rootCmd.AddCommand(newSegmentCmd())

	return rootCmd
}

// setup resolves configuration and builds the logger before any command runs
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	a.applyFlags(cmd, &cfg)
	a.cfg = cfg

	if cfg.TUITheme != "" && !render.SetTUITheme(cfg.TUITheme) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: unknown theme %q, using %s (available: %s)\n",
			cfg.TUITheme, render.GetTUITheme().Name, strings.Join(render.TUIThemeNames(), ", "))
	}
	tui.UpdateTheme()

	outputs := []string{"stderr"}
	if cmd.Annotations[logToFileAnnotation] == "true" {
		if _, err := config.EnsureConfigDir(); err != nil {
			return err
		}
		logPath, err := config.GetLogPath()
		if err != nil {
			return err
		}
		outputs = []string{logPath}
	}

	logger, err := a.deps.NewLogger(cfg.Verbose, outputs)
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("configuration resolved",
		zap.String("command", cmd.Name()),
		zap.String("backend", cfg.Backend),
		zap.String("endpoint", cfg.Endpoint),
	)
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = a.flags.backend
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = a.flags.endpoint
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = a.flags.timeout
	}
	if flags.Changed("theme") {
		cfg.TUITheme = a.flags.theme
	}
	if a.flags.verbose {
		cfg.Verbose = true
	}
}

// close flushes the logger
func (a *app) close() {
	_ = a.logger.Sync()
}

// readPrompt returns the question from the file flag, the argument or
// piped stdin, in that order. ok is false when there is no input at all.
func readPrompt(stdin io.Reader, file string, args []string) (prompt string, ok bool, err error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	if !hasPipedInput(stdin) {
		return "", false, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", false, fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

// hasPipedInput reports whether stdin is something other than a terminal
func hasPipedInput(stdin io.Reader) bool {
	f, ok := stdin.(*os.File)
	if !ok {
		return stdin != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, NewDependencies(), os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// execute runs one invocation with args and reports errors on stderr
func execute(ctx context.Context, deps *Dependencies, args []string) error {
	a := newApp(deps)
	defer a.close()

	cmd := a.command()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), tui.FormatError(err))
		return err
	}
	return nil
}
