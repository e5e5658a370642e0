// Package artifact splits assistant replies into prose and an embedded,
// marker-delimited structured payload.
package artifact

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/riskchat/internal/errors"
	"github.com/diogo/riskchat/internal/models"
)

// Markers is a pair of literal delimiters around an embedded payload
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers are the markers the backend emits
var DefaultMarkers = Markers{
	Start: models.ArtifactStartMarker,
	End:   models.ArtifactEndMarker,
}

// Validate checks that both markers are usable
func (m Markers) Validate() error {
	if m.Start == "" || m.End == "" {
		return fmt.Errorf("artifact markers cannot be empty")
	}
	return nil
}

// Artifact is the result of segmenting one reply.
//
// When HasArtifact is false, only Source is meaningful and the whole reply is
// plain prose.
type Artifact struct {
	HasArtifact bool   `json:"has_artifact"`
	BeforeText  string `json:"before_text,omitempty"`
	AfterText   string `json:"after_text,omitempty"`
	// Raw is the trimmed payload exactly as it appeared between the markers.
	Raw string `json:"raw,omitempty"`
	// Data is Raw decoded into maps, slices and float64s.
	Data   any    `json:"data,omitempty"`
	Source string `json:"-"`
}

// Segment splits text using DefaultMarkers
func Segment(text string) (Artifact, error) {
	return DefaultMarkers.Segment(text)
}

// Segment locates the first start marker and the first end marker after it.
// Only that pair is honored; later markers stay verbatim in AfterText.
//
// A payload that is not a JSON object or array yields an *errors.ArtifactError
// together with the Artifact, whose prose fields are still filled in.
func (m Markers) Segment(text string) (Artifact, error) {
	a := Artifact{Source: text}
	if m.Validate() != nil {
		return a, nil
	}

	start := strings.Index(text, m.Start)
	if start < 0 {
		return a, nil
	}
	payloadStart := start + len(m.Start)

	rel := strings.Index(text[payloadStart:], m.End)
	if rel < 0 {
		return a, nil
	}
	payloadEnd := payloadStart + rel

	a.HasArtifact = true
	a.BeforeText = strings.TrimSpace(text[:start])
	a.Raw = strings.TrimSpace(text[payloadStart:payloadEnd])
	a.AfterText = strings.TrimSpace(text[payloadEnd+len(m.End):])

	data, err := decodePayload(a.Raw)
	if err != nil {
		return a, apierrors.NewArtifactError(a.Raw, err)
	}
	a.Data = data

	return a, nil
}

// decodePayload parses raw as structured (object or array) data
func decodePayload(raw string) (any, error) {
	if raw == "" {
		return nil, fmt.Errorf("payload is empty")
	}

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}

	parsed := gjson.Parse(raw)
	if !parsed.IsObject() && !parsed.IsArray() {
		return nil, fmt.Errorf("payload must be an object or array, got %s", parsed.Type)
	}

	return data, nil
}

// Compose rebuilds the marker-wrapped reply from its segments.
// Segmenting the result yields the same BeforeText, Raw and AfterText.
func (m Markers) Compose(a Artifact) string {
	if !a.HasArtifact {
		return a.Source
	}

	var sb strings.Builder
	if a.BeforeText != "" {
		sb.WriteString(a.BeforeText)
		sb.WriteString("\n\n")
	}
	sb.WriteString(m.Start)
	sb.WriteString("\n")
	sb.WriteString(a.Raw)
	sb.WriteString("\n")
	sb.WriteString(m.End)
	if a.AfterText != "" {
		sb.WriteString("\n\n")
		sb.WriteString(a.AfterText)
	}
	return sb.String()
}

// Compose rebuilds a reply using DefaultMarkers
func Compose(a Artifact) string {
	return DefaultMarkers.Compose(a)
}
