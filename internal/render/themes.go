package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Glamour style names understood without a style file
const (
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeDracula    = "dracula"
	ThemeTokyoNight = "tokyo-night"
	ThemePink       = "pink"
	ThemeNoTTY      = "notty"
	ThemeASCII      = "ascii"
)

// IsBuiltinStyle reports whether style names a glamour standard style
func IsBuiltinStyle(style string) bool {
	switch style {
	case ThemeDark, ThemeLight, ThemeDracula, ThemeTokyoNight, ThemePink, ThemeNoTTY, ThemeASCII:
		return true
	default:
		return false
	}
}

// styleOption picks the glamour option for a style name or a JSON style path.
// Unknown names fall back to the dark style so a typo never breaks output.
func styleOption(style string) glamour.TermRendererOption {
	style = strings.TrimSpace(style)
	switch {
	case style == "":
		return glamour.WithStandardStyle(ThemeDark)
	case IsBuiltinStyle(style):
		return glamour.WithStandardStyle(style)
	case strings.HasSuffix(style, ".json"):
		if _, err := os.Stat(style); err == nil {
			return glamour.WithStylePath(style)
		}
	}
	return glamour.WithStandardStyle(ThemeDark)
}

// ThemeInfo contains information about a theme for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes returns the markdown styles that can be set by name.
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeDark, Description: "Dark theme (default)"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemePink, Description: "Pink accents"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
