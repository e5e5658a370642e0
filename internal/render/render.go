package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/riskchat/internal/models"
)

// Markdown renders markdown content for terminal display.
// Uses a pooled renderer for better performance and thread safety.
func Markdown(content string, opts Options) (string, error) {
	if opts.Raw {
		return content, nil
	}

	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// Block renders one block. User text is always printed literally, assistant
// prose goes through markdown, charts are drawn as bar charts.
func Block(b models.Block, opts Options, theme TUITheme) (string, error) {
	switch b.Kind {
	case models.BlockChart:
		return Chart(b.Chart, ChartOptions{Width: opts.Width, Theme: theme, Plain: opts.Raw}), nil
	case models.BlockError:
		return ErrorText(b.Text, theme, opts.Raw), nil
	default:
		if b.Role == models.RoleUser {
			return b.Text, nil
		}
		out, err := Markdown(b.Text, opts)
		if err != nil {
			return "", err
		}
		return strings.Trim(out, "\n"), nil
	}
}

// Blocks renders blocks in order, separated by blank lines.
// A block that fails to render falls back to its literal text.
func Blocks(blocks []models.Block, opts Options, theme TUITheme) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out, err := Block(b, opts, theme)
		if err != nil {
			out = b.Text
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, "\n\n")
}

// ErrorText formats an error block message
func ErrorText(text string, theme TUITheme, plain bool) string {
	msg := "✗ " + text
	if plain {
		return msg
	}
	return lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render(msg)
}
