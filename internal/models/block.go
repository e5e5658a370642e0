package models

import "encoding/json"

// BlockKind discriminates view-model blocks
type BlockKind string

const (
	BlockText  BlockKind = "text"
	BlockChart BlockKind = "chart"
	BlockError BlockKind = "error"
)

// Block is one visual unit of a rendered message. A rendering layer draws
// blocks in order; it never needs to look at the original message.
type Block struct {
	ID   string    `json:"id,omitempty"`
	Kind BlockKind `json:"kind"`
	Role Role      `json:"role"`
	// Text holds literal prose for text blocks and the message for error blocks.
	Text  string     `json:"text,omitempty"`
	Chart *ChartSpec `json:"chart,omitempty"`
}

// Series is one data series of a chart
type Series struct {
	Name  string    `json:"name"`
	Data  []float64 `json:"data"`
	Color string    `json:"color,omitempty"`
}

// ChartSpec is the recognized shape of a chart artifact.
// Config keeps the full charting-library configuration untouched.
type ChartSpec struct {
	Type         string          `json:"type,omitempty"`
	ArtifactType string          `json:"artifact_type,omitempty"`
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
	ChartType    string          `json:"chart_type,omitempty"`
	ChartTitle   string          `json:"chart_title,omitempty"`
	YAxisTitle   string          `json:"y_axis_title,omitempty"`
	Categories   []string        `json:"categories,omitempty"`
	Series       []Series        `json:"series,omitempty"`
	Config       json.RawMessage `json:"config,omitempty"`
}

// DisplayTitle returns the best available title for the chart
func (c *ChartSpec) DisplayTitle() string {
	if c == nil {
		return ""
	}
	if c.Title != "" {
		return c.Title
	}
	return c.ChartTitle
}

// Empty reports whether the chart has no plottable series
func (c *ChartSpec) Empty() bool {
	if c == nil {
		return true
	}
	for _, s := range c.Series {
		if len(s.Data) > 0 {
			return false
		}
	}
	return true
}
