// Package view turns conversation messages into platform-neutral blocks.
package view

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/diogo/riskchat/internal/artifact"
	"github.com/diogo/riskchat/internal/models"
)

// TransportFailureText is shown in place of a reply when the exchange fails
const TransportFailureText = "Sorry, I couldn't reach the analyst service. Please try again."

// Renderer builds blocks for messages
type Renderer struct {
	markers artifact.Markers
	newID   func() string
}

// Option configures a Renderer
type Option func(*Renderer)

// WithMarkers sets the artifact markers to segment replies with
func WithMarkers(m artifact.Markers) Option {
	return func(r *Renderer) {
		r.markers = m
	}
}

// WithIDGenerator sets the function that names chart blocks
func WithIDGenerator(fn func() string) Option {
	return func(r *Renderer) {
		r.newID = fn
	}
}

// NewRenderer creates a Renderer using the default markers
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		markers: artifact.DefaultMarkers,
		newID:   newChartID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newChartID() string {
	return "chart-" + uuid.NewString()
}

// Blocks renders one message.
//
// User messages always become a single literal text block. Assistant
// messages carrying an artifact become up to three blocks: the prose before
// it, the chart, and the prose after it. Empty prose is never emitted.
func (r *Renderer) Blocks(msg models.Message) []models.Block {
	if msg.IsUser() {
		return []models.Block{textBlock(models.RoleUser, msg.Content)}
	}

	a, segErr := r.markers.Segment(msg.Content)
	if !a.HasArtifact {
		if strings.TrimSpace(msg.Content) == "" {
			return nil
		}
		return []models.Block{textBlock(models.RoleAssistant, msg.Content)}
	}

	blocks := make([]models.Block, 0, 3)
	if a.BeforeText != "" {
		blocks = append(blocks, textBlock(models.RoleAssistant, a.BeforeText))
	}

	blocks = append(blocks, r.chartBlock(a.Raw, segErr))

	if a.AfterText != "" {
		blocks = append(blocks, textBlock(models.RoleAssistant, a.AfterText))
	}
	return blocks
}

// Transcript renders every message in order. A user message whose exchange
// failed is followed by the same error block shown when it failed.
func (r *Renderer) Transcript(messages []models.Message) []models.Block {
	var blocks []models.Block
	for _, msg := range messages {
		blocks = append(blocks, r.Blocks(msg)...)
		if msg.Failed {
			blocks = append(blocks, TransportErrorBlock())
		}
	}
	return blocks
}

// chartBlock builds the chart block, or an error block in its place when the
// payload cannot be drawn.
func (r *Renderer) chartBlock(raw string, segErr error) models.Block {
	if segErr != nil {
		return ErrorBlock(fmt.Sprintf("Could not render chart: %v", segErr))
	}

	spec, err := artifact.ParseChart(raw)
	if err != nil {
		return ErrorBlock(fmt.Sprintf("Could not render chart: %v", err))
	}

	return models.Block{
		ID:    r.newID(),
		Kind:  models.BlockChart,
		Role:  models.RoleAssistant,
		Chart: spec,
	}
}

// ErrorBlock builds a visible error block
func ErrorBlock(text string) models.Block {
	return models.Block{
		Kind: models.BlockError,
		Role: models.RoleAssistant,
		Text: text,
	}
}

// TransportErrorBlock builds the generic apology shown when an exchange fails
func TransportErrorBlock() models.Block {
	return ErrorBlock(TransportFailureText)
}

func textBlock(role models.Role, text string) models.Block {
	return models.Block{
		Kind: models.BlockText,
		Role: role,
		Text: text,
	}
}
