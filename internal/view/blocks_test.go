package view

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/diogo/riskchat/internal/artifact"
	"github.com/diogo/riskchat/internal/models"
)

const (
	start = models.ArtifactStartMarker
	end   = models.ArtifactEndMarker
	chart = `{"type":"artifact","artifact_type":"chart","title":"T","data":{"chart":{"type":"bar"},"series":[{"name":"s","data":[1,2]}]}}`
)

func fixedIDs() Option {
	return WithIDGenerator(func() string { return "chart-test" })
}

// ignoreChartBody compares charts by presence only
var ignoreChartBody = cmpopts.IgnoreFields(models.Block{}, "Chart")

func TestBlocksUserMessageIsLiteral(t *testing.T) {
	r := NewRenderer(fixedIDs())
	content := "<script>alert(1)</script> " + start + chart + end

	got := r.Blocks(models.NewUserMessage(content))
	want := []models.Block{{Kind: models.BlockText, Role: models.RoleUser, Text: content}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Blocks() mismatch (-want +got):\n%s", diff)
	}
}

func TestBlocksAssistant(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []models.Block
	}{
		{
			name:    "plain reply",
			content: "Plain answer.",
			want:    []models.Block{{Kind: models.BlockText, Role: models.RoleAssistant, Text: "Plain answer."}},
		},
		{
			name:    "full artifact",
			content: "Before." + start + chart + end + "After.",
			want: []models.Block{
				{Kind: models.BlockText, Role: models.RoleAssistant, Text: "Before."},
				{ID: "chart-test", Kind: models.BlockChart, Role: models.RoleAssistant},
				{Kind: models.BlockText, Role: models.RoleAssistant, Text: "After."},
			},
		},
		{
			name:    "no before text",
			content: "  \n" + start + chart + end + "After.",
			want: []models.Block{
				{ID: "chart-test", Kind: models.BlockChart, Role: models.RoleAssistant},
				{Kind: models.BlockText, Role: models.RoleAssistant, Text: "After."},
			},
		},
		{
			name:    "chart only",
			content: start + chart + end,
			want: []models.Block{
				{ID: "chart-test", Kind: models.BlockChart, Role: models.RoleAssistant},
			},
		},
		{
			name:    "unterminated marker stays prose",
			content: "Before." + start + chart,
			want:    []models.Block{{Kind: models.BlockText, Role: models.RoleAssistant, Text: "Before." + start + chart}},
		},
		{
			name:    "empty reply",
			content: "",
			want:    nil,
		},
		{
			name:    "whitespace reply",
			content: " \n\t ",
			want:    nil,
		},
	}

	r := NewRenderer(fixedIDs())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Blocks(models.NewAssistantMessage(tt.content))
			if diff := cmp.Diff(tt.want, got, ignoreChartBody, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Blocks() mismatch (-want +got):\n%s", diff)
			}
			for _, b := range got {
				if b.Kind == models.BlockChart && b.Chart == nil {
					t.Error("chart block without a chart spec")
				}
			}
		})
	}
}

func TestBlocksChartSpec(t *testing.T) {
	blocks := NewRenderer().Blocks(models.NewAssistantMessage(start + chart + end))
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}

	b := blocks[0]
	if !strings.HasPrefix(b.ID, "chart-") || len(b.ID) <= len("chart-") {
		t.Errorf("ID = %q, want chart-<uuid>", b.ID)
	}
	if b.Chart.Title != "T" || b.Chart.ChartType != "bar" {
		t.Errorf("unexpected chart: %+v", b.Chart)
	}
}

func TestBlocksUniqueChartIDs(t *testing.T) {
	r := NewRenderer()
	msg := models.NewAssistantMessage(start + chart + end)

	first := r.Blocks(msg)[0].ID
	second := r.Blocks(msg)[0].ID
	if first == second {
		t.Errorf("chart IDs should be unique, both were %q", first)
	}
}

func TestBlocksMalformedPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"chart":`},
		{"scalar", `12`},
		{"unsupported artifact", `{"artifact_type":"table","data":{}}`},
		{"array", `[1,2]`},
	}

	r := NewRenderer(fixedIDs())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Blocks(models.NewAssistantMessage("Before." + start + tt.payload + end + "After."))

			if len(got) != 3 {
				t.Fatalf("got %d blocks, want 3: %+v", len(got), got)
			}
			if got[0].Text != "Before." || got[2].Text != "After." {
				t.Errorf("prose should survive a bad payload: %+v", got)
			}
			if got[1].Kind != models.BlockError || !strings.HasPrefix(got[1].Text, "Could not render chart") {
				t.Errorf("middle block = %+v, want error block", got[1])
			}
		})
	}
}

func TestTranscript(t *testing.T) {
	r := NewRenderer(fixedIDs())
	lost := models.NewUserMessage("are you there?")
	lost.Failed = true
	messages := []models.Message{
		lost,
		models.NewUserMessage("show risk"),
		models.NewAssistantMessage("A" + start + chart + end + "B"),
		models.NewUserMessage("thanks"),
	}

	got := r.Transcript(messages)
	kinds := make([]models.BlockKind, len(got))
	for i, b := range got {
		kinds[i] = b.Kind
	}

	want := []models.BlockKind{
		models.BlockText, models.BlockError,
		models.BlockText, models.BlockText, models.BlockChart, models.BlockText, models.BlockText,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("Transcript() kinds mismatch (-want +got):\n%s", diff)
	}
	if got[1].Text != TransportFailureText {
		t.Errorf("failed message followed by %q, want the transport apology", got[1].Text)
	}
}

func TestCustomMarkers(t *testing.T) {
	r := NewRenderer(fixedIDs(), WithMarkers(artifact.Markers{Start: "[[", End: "]]"}))

	got := r.Blocks(models.NewAssistantMessage("x [[" + chart + "]] y"))
	if len(got) != 3 || got[1].Kind != models.BlockChart {
		t.Errorf("custom markers not honored: %+v", got)
	}
}

func TestTransportErrorBlock(t *testing.T) {
	b := TransportErrorBlock()
	if b.Kind != models.BlockError || b.Text != TransportFailureText || b.Role != models.RoleAssistant {
		t.Errorf("unexpected block: %+v", b)
	}
}
