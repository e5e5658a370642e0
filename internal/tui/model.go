package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/riskchat/internal/models"
	"github.com/diogo/riskchat/internal/render"
	"github.com/diogo/riskchat/internal/session"
	"github.com/diogo/riskchat/internal/view"
)

const (
	minInputRows = 1
	maxInputRows = 8
	charLimit    = 4000
)

// Animation tick message
type animationTickMsg time.Time

// exchangeMsg carries the outcome of one Submit back to the update loop
type exchangeMsg struct {
	result session.Result
	err    error
}

// Conversation is the part of a session the chat screen drives
type Conversation interface {
	Submit(ctx context.Context, input string) (session.Result, error)
	LastReply() (models.Message, bool)
	Export(format session.ExportFormat) ([]byte, error)
	Blocks() []models.Block
	IsEmpty() bool
	Reset()
}

// Model represents the TUI state
type Model struct {
	ctx      context.Context
	conv     Conversation
	backend  string
	logger   *zap.Logger
	renderer render.Options
	echo     *view.Renderer
	copyFn   func(string) error

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	blocks         []models.Block
	loading        bool
	ready          bool
	err            error
	feedback       string
	animationFrame int

	// Dimensions
	width  int
	height int
}

// Option configures a Model
type Option func(*Model)

// WithContext sets the context exchanges run under
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithLogger sets the logger for UI events
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRenderOptions sets the markdown options for assistant prose
func WithRenderOptions(opts render.Options) Option {
	return func(m *Model) {
		m.renderer = opts
	}
}

// WithClipboard replaces the clipboard writer
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) {
		if fn != nil {
			m.copyFn = fn
		}
	}
}

// NewChatModel creates a new chat TUI model. backend names the reply
// source shown in the header.
func NewChatModel(conv Conversation, backend string, opts ...Option) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about risk exposure, sales, or request a chart..."
	ta.CharLimit = charLimit
	ta.ShowLineNumbers = false
	ta.SetHeight(minInputRows)
	// Enter submits; newline moves to alt+enter
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	m := Model{
		ctx:      context.Background(),
		conv:     conv,
		backend:  backend,
		logger:   zap.NewNop(),
		renderer: render.DefaultOptions(),
		echo:     view.NewRenderer(),
		copyFn:   clipboard.WriteAll,
		textarea: ta,
		spinner:  s,
	}
	for _, opt := range opts {
		opt(&m)
	}
	// A conversation already under way is shown instead of the welcome screen.
	if !conv.IsEmpty() {
		m.blocks = conv.Blocks()
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if !m.loading {
				return m, tea.Quit
			}
		}

		// Input is disabled while a reply is pending; only quitting and
		// scrolling get through.
		if m.loading {
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "enter":
			return m.handleEnter()
		case "ctrl+n":
			m.newChat()
			return m, nil
		case "ctrl+y":
			m.copyLastReply()
			return m, nil
		case "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		m.feedback = ""
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.autoResize()
		return m, tea.Batch(cmds...)

	case exchangeMsg:
		m.loading = false
		cmds = append(cmds, m.textarea.Focus())
		if msg.err != nil {
			m.err = msg.err
			break
		}
		if msg.result.Failed() {
			m.logger.Debug("exchange failed", zap.Error(msg.result.Err))
			m.err = msg.result.Err
		}
		// The user echo is already on screen.
		if len(msg.result.Blocks) > 1 {
			m.blocks = append(m.blocks, msg.result.Blocks[1:]...)
		}
		m.updateViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleEnter submits the input or runs a slash command
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	switch {
	case input == "exit" || input == "quit" || input == "/exit" || input == "/quit":
		return m, tea.Quit
	case input == "/new":
		m.newChat()
		return m, nil
	case input == "/copy":
		m.resetInput()
		m.copyLastReply()
		return m, nil
	case input == "/export" || strings.HasPrefix(input, "/export "):
		m.resetInput()
		m.export(strings.TrimSpace(strings.TrimPrefix(input, "/export")))
		return m, nil
	}

	m.blocks = append(m.blocks, m.echo.Blocks(models.NewUserMessage(input))...)
	m.updateViewport()
	m.viewport.GotoBottom()

	m.loading = true
	m.err = nil
	m.feedback = ""
	m.animationFrame = 0
	m.resetInput()
	m.textarea.Blur()

	return m, tea.Batch(
		m.submit(input),
		m.spinner.Tick,
		animationTick(),
	)
}

// submit creates a command that runs one exchange
func (m Model) submit(input string) tea.Cmd {
	conv, ctx := m.conv, m.ctx
	return func() tea.Msg {
		result, err := conv.Submit(ctx, input)
		return exchangeMsg{result: result, err: err}
	}
}

// newChat clears the conversation and brings back the welcome screen
func (m *Model) newChat() {
	m.conv.Reset()
	m.blocks = nil
	m.err = nil
	m.feedback = ""
	m.resetInput()
	m.updateViewport()
	m.logger.Debug("new chat")
}

func (m *Model) copyLastReply() {
	reply, ok := m.conv.LastReply()
	if !ok {
		m.feedback = "Nothing to copy yet"
		return
	}
	if err := m.copyFn(reply.Content); err != nil {
		m.logger.Warn("clipboard write failed", zap.Error(err))
		m.feedback = "Could not copy: " + err.Error()
		return
	}
	m.feedback = "Copied last reply to clipboard"
}

// export writes the transcript to path; the extension picks the format
func (m *Model) export(path string) {
	if path == "" {
		path = fmt.Sprintf("riskchat-%s.md", time.Now().Format("20060102-150405"))
	}
	format, err := session.ParseExportFormat(filepath.Ext(path))
	if err != nil {
		m.feedback = err.Error()
		return
	}
	data, err := m.conv.Export(format)
	if err == nil {
		err = os.WriteFile(path, data, 0o600)
	}
	if err != nil {
		m.logger.Warn("export failed", zap.String("path", path), zap.Error(err))
		m.feedback = "Export failed: " + err.Error()
		return
	}
	m.feedback = "Exported conversation to " + path
}

func (m *Model) resetInput() {
	m.textarea.Reset()
	m.autoResize()
}

// autoResize grows the input with its content, between minInputRows and
// maxInputRows, and gives the rest of the screen to the transcript.
func (m *Model) autoResize() {
	rows := min(max(m.textarea.LineCount(), minInputRows), maxInputRows)
	if rows == m.textarea.Height() {
		return
	}
	m.textarea.SetHeight(rows)
	m.layout()
}

// layout sizes the viewport and input to the window
func (m *Model) layout() {
	if m.width == 0 {
		return
	}

	// Header panel, input label/border/margin, status and feedback lines,
	// messages panel border.
	headerHeight := 4
	inputHeight := m.textarea.Height() + 4
	statusHeight := 2
	padding := 2

	vpHeight := max(m.height-headerHeight-inputHeight-statusHeight-padding, 5)
	contentWidth := m.width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("◆ Risk Analyst"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.backend),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Transcript
	var messagesContent string
	if len(m.blocks) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.feedback != "" {
		sections = append(sections, feedbackStyle.Render("  "+m.feedback))
	}
	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// capabilities are listed on the welcome screen
var capabilities = []struct {
	name string
	desc string
}{
	{"Data Visualization", "Create charts from database queries"},
	{"Risk Analysis", "Analyze exposure and identify risk patterns"},
	{"Financial Insights", "Query sales, revenue, and performance data"},
	{"Trend Detection", "Identify patterns and growth opportunities"},
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	cardWidth := max((width-4)/2, 20)
	cards := make([]string, len(capabilities))
	for i, c := range capabilities {
		cards[i] = capabilityStyle.Width(cardWidth).Render(
			capabilityNameStyle.Render(c.name) + "\n" + c.desc,
		)
	}
	grid := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.JoinHorizontal(lipgloss.Top, cards[0], " ", cards[1]),
		lipgloss.JoinHorizontal(lipgloss.Top, cards[2], " ", cards[3]),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		welcomeIconStyle.Width(width).Render("◆"),
		"",
		welcomeTitleStyle.Width(width).Render("Risk Analyst Agent"),
		welcomeStyle.Width(width).Render("Your AI-powered financial data analyst"),
		"",
		lipgloss.PlaceHorizontal(width, lipgloss.Center, grid),
		"",
		hintStyle.Width(width).Align(lipgloss.Center).Render(`Try: "Show me risk analysis" or "Create a sales chart"`),
	)

	topPadding := max((height-lipgloss.Height(content))/2, 0)
	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dots.WriteString(lipgloss.NewStyle().Foreground(gradientColors[(frame+i)%len(gradientColors)]).Render("●"))
	}
	for i := numDots; i < 3; i++ {
		dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" Analyzing ")

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots.String())
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Alt+Enter", "Newline"},
		{"Ctrl+N", "New chat"},
		{"Ctrl+Y", "Copy reply"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}

	bar := strings.Join(items, statusDescStyle.Render("  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the viewport content with styled blocks
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	theme := render.GetTUITheme()
	var prevRole models.Role

	for i, b := range m.blocks {
		if i > 0 {
			content.WriteString("\n")
		}
		if b.Role != prevRole {
			if b.Role == models.RoleUser {
				content.WriteString(userLabelStyle.Render("● You") + "\n")
			} else {
				content.WriteString(assistantLabelStyle.Render("◆ Analyst") + "\n")
			}
			prevRole = b.Role
		}
		content.WriteString(m.renderBlock(b, bubbleWidth, theme))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// renderBlock draws one block. User text is never interpreted as markup.
func (m Model) renderBlock(b models.Block, width int, theme render.TUITheme) string {
	switch b.Kind {
	case models.BlockChart:
		chart := render.Chart(b.Chart, render.ChartOptions{Width: width - 6, Theme: theme})
		return chartPanelStyle.Width(width).Render(chart)
	case models.BlockError:
		return errorBlockStyle.Width(width).Render("✗ " + b.Text)
	}

	if b.Role == models.RoleUser {
		return userBubbleStyle.Width(width).Render(b.Text)
	}

	rendered, err := render.Markdown(b.Text, m.renderer.WithWidth(width-4))
	if err != nil {
		rendered = b.Text
	}
	return assistantBubbleStyle.Width(width).Render(strings.TrimRight(rendered, "\n"))
}

// RunChat starts the chat TUI
func RunChat(ctx context.Context, conv Conversation, backend string, opts ...Option) error {
	m := NewChatModel(conv, backend, append([]Option{WithContext(ctx)}, opts...)...)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
