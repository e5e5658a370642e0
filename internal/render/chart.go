package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/riskchat/internal/models"
)

const (
	barGlyph       = "█"
	minBarWidth    = 10
	maxLabelWidth  = 24
	defaultWidth   = 80
	pieChartType   = "pie"
	legendSwatch   = "■"
	noDataFallback = "(chart has no data)"
)

// ChartOptions controls how a chart is drawn in the terminal
type ChartOptions struct {
	Width int
	Theme TUITheme
	// Plain disables colors, for pipes and --raw output
	Plain bool
}

// Chart draws a chart spec as a horizontal bar chart.
//
// Every category gets one bar per series. Pie charts get one bar per slice
// annotated with its share of the total. The full charting configuration is
// not interpreted beyond the fields ChartSpec recognizes.
func Chart(spec *models.ChartSpec, opts ChartOptions) string {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	c := chartPainter{opts: opts}

	var sb strings.Builder
	if title := spec.DisplayTitle(); title != "" {
		sb.WriteString(c.title(title))
		sb.WriteString("\n")
	}
	if spec != nil && spec.Description != "" {
		sb.WriteString(c.dim(spec.Description))
		sb.WriteString("\n")
	}
	if caption := chartCaption(spec); caption != "" {
		sb.WriteString(c.dim(caption))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if spec.Empty() {
		sb.WriteString(c.dim(noDataFallback))
		return sb.String()
	}

	if spec.ChartType == pieChartType {
		sb.WriteString(c.pie(spec))
	} else {
		sb.WriteString(c.bars(spec))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// chartCaption summarizes chart type and axis title
func chartCaption(spec *models.ChartSpec) string {
	if spec == nil {
		return ""
	}
	var parts []string
	if spec.ChartType != "" {
		parts = append(parts, spec.ChartType+" chart")
	}
	if spec.YAxisTitle != "" {
		parts = append(parts, "y: "+spec.YAxisTitle)
	}
	return strings.Join(parts, " · ")
}

type chartPainter struct {
	opts ChartOptions
}

func (c chartPainter) style(color lipgloss.Color) lipgloss.Style {
	if c.opts.Plain {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(color)
}

func (c chartPainter) title(s string) string {
	if c.opts.Plain {
		return s
	}
	return c.style(c.opts.Theme.Primary).Bold(true).Render(s)
}

func (c chartPainter) dim(s string) string {
	return c.style(c.opts.Theme.TextDim).Render(s)
}

// seriesColor prefers the color the chart config asked for
func (c chartPainter) seriesColor(spec *models.ChartSpec, i int) lipgloss.Color {
	if i < len(spec.Series) && strings.HasPrefix(spec.Series[i].Color, "#") {
		return lipgloss.Color(spec.Series[i].Color)
	}
	return c.opts.Theme.SeriesColor(i)
}

func (c chartPainter) bars(spec *models.ChartSpec) string {
	points := 0
	maxAbs := 0.0
	maxValueWidth := 0
	for _, s := range spec.Series {
		points = max(points, len(s.Data))
		for _, v := range s.Data {
			maxAbs = math.Max(maxAbs, math.Abs(v))
			maxValueWidth = max(maxValueWidth, len(formatValue(v)))
		}
	}

	labels := categoryLabels(spec.Categories, points)
	labelWidth := labelColumnWidth(labels)
	barSpace := max(minBarWidth, c.opts.Width-labelWidth-maxValueWidth-2)

	var sb strings.Builder
	for i := 0; i < points; i++ {
		for si, s := range spec.Series {
			if i >= len(s.Data) {
				continue
			}
			label := ""
			if si == 0 {
				label = labels[i]
			}
			v := s.Data[i]
			bar := strings.Repeat(barGlyph, barLength(v, maxAbs, barSpace))
			sb.WriteString(padRight(truncate(label, labelWidth), labelWidth))
			sb.WriteString(" ")
			sb.WriteString(c.style(c.seriesColor(spec, si)).Render(bar))
			sb.WriteString(" ")
			sb.WriteString(formatValue(v))
			sb.WriteString("\n")
		}
		if len(spec.Series) > 1 && i < points-1 {
			sb.WriteString("\n")
		}
	}

	if legend := c.legend(spec); legend != "" {
		sb.WriteString("\n")
		sb.WriteString(legend)
	}
	return sb.String()
}

func (c chartPainter) pie(spec *models.ChartSpec) string {
	data := spec.Series[0].Data
	total := 0.0
	maxAbs := 0.0
	for _, v := range data {
		total += math.Abs(v)
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}

	labels := categoryLabels(spec.Categories, len(data))
	labelWidth := labelColumnWidth(labels)
	barSpace := max(minBarWidth, c.opts.Width-labelWidth-16)

	var sb strings.Builder
	for i, v := range data {
		share := 0.0
		if total > 0 {
			share = math.Abs(v) / total * 100
		}
		bar := strings.Repeat(barGlyph, barLength(v, maxAbs, barSpace))
		sb.WriteString(padRight(truncate(labels[i], labelWidth), labelWidth))
		sb.WriteString(" ")
		sb.WriteString(c.style(c.opts.Theme.SeriesColor(i)).Render(bar))
		sb.WriteString(fmt.Sprintf(" %s (%.1f%%)\n", formatValue(v), share))
	}
	return sb.String()
}

// legend names series when there is more than one or the only one is named
func (c chartPainter) legend(spec *models.ChartSpec) string {
	if len(spec.Series) == 1 && spec.Series[0].Name == "" {
		return ""
	}
	entries := make([]string, 0, len(spec.Series))
	for i, s := range spec.Series {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Series %d", i+1)
		}
		entries = append(entries, c.style(c.seriesColor(spec, i)).Render(legendSwatch)+" "+name)
	}
	return strings.Join(entries, "  ")
}

func categoryLabels(categories []string, points int) []string {
	labels := make([]string, points)
	for i := range labels {
		if i < len(categories) && categories[i] != "" {
			labels[i] = categories[i]
		} else {
			labels[i] = strconv.Itoa(i + 1)
		}
	}
	return labels
}

func labelColumnWidth(labels []string) int {
	w := 0
	for _, l := range labels {
		w = max(w, lipgloss.Width(l))
	}
	return min(w, maxLabelWidth)
}

// barLength scales |v| against the largest magnitude; nonzero values always
// get at least one cell.
func barLength(v, maxAbs float64, space int) int {
	if maxAbs == 0 || v == 0 {
		return 0
	}
	n := int(math.Round(math.Abs(v) / maxAbs * float64(space)))
	return max(n, 1)
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
