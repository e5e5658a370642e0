package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	apierrors "github.com/diogo/riskchat/internal/errors"
	"github.com/diogo/riskchat/internal/render"
	"github.com/diogo/riskchat/internal/session"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var colorSuccess = lipgloss.Color("#9ece6a")

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner drawing on out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	theme := render.GetTUITheme()
	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(theme.TextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(theme.Text).Render(s.message)

	fmt.Fprintf(s.out, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// queryOptions controls how a one-shot reply is printed
type queryOptions struct {
	// raw prints plain text: no spinner, colors or markdown rendering
	raw   bool
	width int
	copy  bool
	// render configures glamour for assistant prose
	render render.Options
}

// runQuery sends one question through a fresh session and prints the reply
func (a *app) runQuery(ctx context.Context, out, errOut io.Writer, prompt string) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	transport, release, err := a.deps.NewTransport(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer release()

	sess := session.New(transport, session.WithLogger(a.logger))

	opts := queryOptions{
		raw:    a.flags.raw || !isTerminal(out),
		width:  getTerminalWidth(out),
		copy:   a.flags.copy || a.cfg.CopyToClipboard,
		render: render.OptionsFromConfig(a.cfg),
	}
	return query(ctx, sess, prompt, out, errOut, opts, a.deps.Clipboard, a.logger)
}

// query submits prompt and writes the rendered reply blocks to out.
// Progress and clipboard notices go to errOut so out stays pipeable.
func query(ctx context.Context, sess *session.Session, prompt string, out, errOut io.Writer, opts queryOptions, copyFn func(string) error, logger *zap.Logger) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	var spin *spinner
	if !opts.raw {
		spin = newSpinner(errOut, "Analyzing")
		spin.start()
	}

	startTime := time.Now()
	result, err := sess.Submit(ctx, prompt)
	requestDuration := time.Since(startTime)
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return err
	}

	if result.Failed() {
		if spin != nil {
			spin.stopWithError()
		}
		// The error block still goes to out; the details go through the
		// returned error.
		fmt.Fprintln(out, renderReply(result, opts))
		return fmt.Errorf("%w: %w", apierrors.ErrTransportFailed, result.Err)
	}
	if spin != nil {
		spin.stopWithSuccess("Done")
	}

	logger.Debug("query completed",
		zap.Duration("duration", requestDuration.Round(time.Millisecond)),
		zap.Int("blocks", len(result.Blocks)),
	)

	if opts.copy {
		copyReply(errOut, result.Reply.Content, copyFn, opts.raw)
	}

	fmt.Fprintln(out, renderReply(result, opts))
	return nil
}

// renderReply renders the blocks following the echoed user message
func renderReply(result session.Result, opts queryOptions) string {
	blocks := result.Blocks
	if len(blocks) > 0 {
		blocks = blocks[1:]
	}

	theme := render.GetTUITheme()
	if opts.raw {
		return render.Blocks(blocks, opts.render.WithRaw(true), theme)
	}

	bubbleWidth := min(max(opts.width-4, 40), 120)
	contentWidth := bubbleWidth - 4

	label := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("✦ Risk Analyst")
	body := render.Blocks(blocks, opts.render.WithWidth(contentWidth), theme)
	bubble := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Foreground(theme.Text).
		Padding(0, 1).
		Width(bubbleWidth).
		Render(body)

	return label + "\n" + bubble
}

// copyReply copies text and reports the outcome on errOut without failing
func copyReply(errOut io.Writer, text string, copyFn func(string) error, plain bool) {
	style := func(c lipgloss.Color, s string) string {
		if plain {
			return s
		}
		return lipgloss.NewStyle().Foreground(c).Render(s)
	}

	if err := copyFn(text); err != nil {
		fmt.Fprintln(errOut, style(render.GetTUITheme().Error, fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		return
	}
	fmt.Fprintln(errOut, style(colorSuccess, "✓ Copied to clipboard"))
}

// getTerminalWidth returns the terminal width of w or a default value
func getTerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 80
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isTerminal returns true if w is connected to a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
