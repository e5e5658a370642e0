package artifact

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	apierrors "github.com/diogo/riskchat/internal/errors"
)

const (
	start = "<<<ARTIFACT_START>>>"
	end   = "<<<ARTIFACT_END>>>"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Artifact
	}{
		{
			name:  "plain prose",
			input: "Credit risk is the largest exposure.",
			want:  Artifact{},
		},
		{
			name:  "empty string",
			input: "",
			want:  Artifact{},
		},
		{
			name:  "simple artifact",
			input: "hi" + start + `{"a":1}` + end + "bye",
			want: Artifact{
				HasArtifact: true,
				BeforeText:  "hi",
				Raw:         `{"a":1}`,
				Data:        map[string]any{"a": 1.0},
				AfterText:   "bye",
			},
		},
		{
			name:  "whitespace is trimmed around every segment",
			input: "  Here's the chart:\n\n" + start + "\n  [1, 2, 3]\n" + end + "\n\n Key findings.  \n",
			want: Artifact{
				HasArtifact: true,
				BeforeText:  "Here's the chart:",
				Raw:         "[1, 2, 3]",
				Data:        []any{1.0, 2.0, 3.0},
				AfterText:   "Key findings.",
			},
		},
		{
			name:  "artifact only",
			input: start + `{"x":[]}` + end,
			want: Artifact{
				HasArtifact: true,
				Raw:         `{"x":[]}`,
				Data:        map[string]any{"x": []any{}},
			},
		},
		{
			name:  "start marker without end marker",
			input: "prose " + start + `{"a":1}`,
			want:  Artifact{},
		},
		{
			name:  "end marker only before start marker",
			input: end + " prose " + start + `{"a":1}`,
			want:  Artifact{},
		},
		{
			name:  "only the first pair is honored",
			input: "a" + start + `{"n":1}` + end + "b" + start + `{"n":2}` + end + "c",
			want: Artifact{
				HasArtifact: true,
				BeforeText:  "a",
				Raw:         `{"n":1}`,
				Data:        map[string]any{"n": 1.0},
				AfterText:   "b" + start + `{"n":2}` + end + "c",
			},
		},
		{
			name:  "end marker before start is skipped",
			input: "x" + end + "y" + start + `{}` + end + "z",
			want: Artifact{
				HasArtifact: true,
				BeforeText:  "x" + end + "y",
				Raw:         `{}`,
				Data:        map[string]any{},
				AfterText:   "z",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Segment(tt.input)
			if err != nil {
				t.Fatalf("Segment() error = %v", err)
			}
			if got.Source != tt.input {
				t.Errorf("Source = %q, want original input", got.Source)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreFields(Artifact{}, "Source")); diff != "" {
				t.Errorf("Segment() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSegmentMalformedPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"a":`},
		{"trailing garbage", `{"a":1} extra`},
		{"scalar number", `42`},
		{"scalar string", `"chart"`},
		{"empty payload", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Segment("before" + start + tt.payload + end + "after")
			if err == nil {
				t.Fatal("Segment() expected error for malformed payload")
			}
			if !errors.Is(err, apierrors.ErrMalformedArtifact) {
				t.Errorf("error = %v, want ErrMalformedArtifact", err)
			}

			// Prose segments are still available to the caller.
			if !got.HasArtifact || got.BeforeText != "before" || got.AfterText != "after" {
				t.Errorf("unexpected partial artifact: %+v", got)
			}
			if got.Data != nil {
				t.Errorf("Data = %v, want nil", got.Data)
			}
		})
	}
}

func TestSegmentIdempotentOnSegments(t *testing.T) {
	input := "Intro text." + start + `{"a":1}` + end + "Closing text."
	a, err := Segment(input)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}

	for _, prose := range []string{a.BeforeText, a.AfterText} {
		again, err := Segment(prose)
		if err != nil {
			t.Fatalf("Segment(%q) error = %v", prose, err)
		}
		if again.HasArtifact {
			t.Errorf("Segment(%q) found an artifact in already-segmented prose", prose)
		}
		if again.Source != prose {
			t.Errorf("Source = %q, want %q", again.Source, prose)
		}
	}
}

func TestComposeRoundTrip(t *testing.T) {
	inputs := []string{
		"hi" + start + `{"a":1}` + end + "bye",
		start + `[1,2]` + end,
		"\n\nlead\n" + start + "\n{\n  \"k\": \"v\"\n}\n" + end,
		start + `{}` + end + "tail only",
		"no markers at all",
	}

	for _, input := range inputs {
		first, err := Segment(input)
		if err != nil {
			t.Fatalf("Segment(%q) error = %v", input, err)
		}

		composed := Compose(first)
		second, err := Segment(composed)
		if err != nil {
			t.Fatalf("Segment(Compose()) error = %v", err)
		}

		if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(Artifact{}, "Source")); diff != "" {
			t.Errorf("round trip mismatch for %q (-first +second):\n%s", input, diff)
		}
	}
}

func TestComposeWithoutArtifactReturnsSource(t *testing.T) {
	a := Artifact{Source: "just prose"}
	if got := Compose(a); got != "just prose" {
		t.Errorf("Compose() = %q, want source", got)
	}
}

func TestCustomMarkers(t *testing.T) {
	m := Markers{Start: "[[chart]]", End: "[[/chart]]"}

	got, err := m.Segment("a [[chart]]{\"v\":true}[[/chart]] b")
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if !got.HasArtifact || got.BeforeText != "a" || got.AfterText != "b" {
		t.Errorf("unexpected artifact: %+v", got)
	}

	// The default markers mean nothing to a custom pair.
	got, err = m.Segment("x" + start + "{}" + end)
	if err != nil || got.HasArtifact {
		t.Errorf("custom markers matched default markers: %+v, %v", got, err)
	}

	if !strings.HasPrefix(m.Compose(Artifact{HasArtifact: true, Raw: "{}"}), "[[chart]]") {
		t.Error("Compose() should use the custom start marker")
	}
}

func TestEmptyMarkersNeverMatch(t *testing.T) {
	m := Markers{}
	if err := m.Validate(); err == nil {
		t.Error("Validate() expected error for empty markers")
	}

	got, err := m.Segment("anything {}")
	if err != nil || got.HasArtifact {
		t.Errorf("empty markers produced an artifact: %+v, %v", got, err)
	}
}

func BenchmarkSegmentAdversarial(b *testing.B) {
	// Many start markers and no end marker must stay linear.
	input := strings.Repeat(start+"{", 10000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Segment(input)
	}
}
