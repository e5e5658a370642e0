package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/diogo/riskchat/internal/artifact"
	"github.com/diogo/riskchat/internal/models"
)

// ExportFormat represents the format for exporting a transcript
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseExportFormat maps a name or file extension to an ExportFormat
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "md", "markdown":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Export renders the transcript in the requested format
func (s *Session) Export(format ExportFormat) ([]byte, error) {
	messages := s.Messages()
	switch format {
	case ExportFormatMarkdown:
		return []byte(exportMarkdown(messages)), nil
	case ExportFormatJSON:
		return exportJSON(messages)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportMarkdown(messages []models.Message) string {
	var sb strings.Builder

	sb.WriteString("# Risk Analyst conversation\n\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d\n\n---\n\n", len(messages)))

	for i, msg := range messages {
		role := "User"
		if msg.Role == models.RoleAssistant {
			role = "Assistant"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if !msg.Time.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.Time.Format("15:04:05"))
			sb.WriteString(")")
		}
		if msg.Failed {
			sb.WriteString(" [not delivered]")
		}
		sb.WriteString("\n\n")

		sb.WriteString(markdownContent(msg))
		sb.WriteString("\n")

		if i < len(messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// markdownContent swaps an embedded artifact for a fenced json block
func markdownContent(msg models.Message) string {
	if msg.IsUser() {
		return msg.Content
	}
	a, _ := artifact.Segment(msg.Content)
	if !a.HasArtifact {
		return msg.Content
	}

	var parts []string
	if a.BeforeText != "" {
		parts = append(parts, a.BeforeText)
	}
	parts = append(parts, "```json\n"+a.Raw+"\n```")
	if a.AfterText != "" {
		parts = append(parts, a.AfterText)
	}
	return strings.Join(parts, "\n\n")
}

type exportMessage struct {
	Role      models.Role `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp,omitzero"`
	Failed    bool        `json:"failed,omitempty"`
}

type exportTranscript struct {
	ExportedAt time.Time       `json:"exported_at"`
	Messages   []exportMessage `json:"messages"`
}

func exportJSON(messages []models.Message) ([]byte, error) {
	out := exportTranscript{
		ExportedAt: time.Now(),
		Messages:   make([]exportMessage, len(messages)),
	}
	for i, msg := range messages {
		out.Messages[i] = exportMessage{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Time,
			Failed:    msg.Failed,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
