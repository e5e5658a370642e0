package api

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apierrors "github.com/diogo/riskchat/internal/errors"
	"github.com/diogo/riskchat/internal/models"
)

// replyField is the JSON field that carries the reply text
const replyField = "response"

// wireMessage is the role/content pair the backend expects
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildPayload creates the request body: {"messages":[{"role","content"}...]}
func buildPayload(history []models.Message) (string, error) {
	payload := `{"messages":[]}`

	for _, msg := range history {
		if !msg.Role.Valid() {
			return "", fmt.Errorf("invalid message role %q", msg.Role)
		}

		var err error
		payload, err = sjson.Set(payload, "messages.-1", wireMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return payload, nil
}

// parseResponse extracts the reply string from a backend response body
func parseResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response is not valid JSON", "")
	}

	reply := gjson.GetBytes(body, replyField)
	if !reply.Exists() {
		return "", apierrors.NewParseError("reply field missing", replyField)
	}
	if reply.Type != gjson.String {
		return "", apierrors.NewParseError(fmt.Sprintf("reply field is %s, want string", reply.Type), replyField)
	}

	return reply.String(), nil
}
