package api

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"

	apierrors "github.com/diogo/riskchat/internal/errors"
	"github.com/diogo/riskchat/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, doer HTTPDoer, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithHTTPDoer(doer), WithEndpoint("http://backend.test/chat")}, opts...)
	client, err := NewClient(opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func sampleHistory() []models.Message {
	return []models.Message{
		{Role: models.RoleUser, Content: "Hello"},
		{Role: models.RoleAssistant, Content: "Hi! How can I help?"},
		{Role: models.RoleUser, Content: "Show me sales data"},
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(WithHTTPDoer(&MockHTTPDoer{}))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.Endpoint() != models.EndpointDefault {
		t.Errorf("Endpoint() = %s, want %s", client.Endpoint(), models.EndpointDefault)
	}
	if client.timeout != 120*time.Second {
		t.Errorf("timeout = %v, want 120s", client.timeout)
	}
}

func TestNewClientRejectsEmptyEndpoint(t *testing.T) {
	if _, err := NewClient(WithHTTPDoer(&MockHTTPDoer{}), WithEndpoint("")); err == nil {
		t.Error("NewClient() expected error for empty endpoint")
	}
}

func TestCompleteSuccess(t *testing.T) {
	doer := &MockHTTPDoer{Response: newMockResponse(200, `{"response":"Here is your chart."}`)}
	client := newTestClient(t, doer)

	reply, err := client.Complete(context.Background(), sampleHistory())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Here is your chart." {
		t.Errorf("reply = %q", reply)
	}

	req := doer.LastRequest
	if req.Method != fhttp.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if req.URL.String() != "http://backend.test/chat" {
		t.Errorf("url = %s", req.URL.String())
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	messages := gjson.Get(doer.LastBody, "messages").Array()
	if len(messages) != 3 {
		t.Fatalf("sent %d messages, want 3: %s", len(messages), doer.LastBody)
	}
	if messages[1].Get("role").String() != "assistant" || messages[2].Get("content").String() != "Show me sales data" {
		t.Errorf("unexpected payload: %s", doer.LastBody)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name      string
		doer      *MockHTTPDoer
		check     func(error) bool
		wantInErr string
	}{
		{
			name:  "server error",
			doer:  &MockHTTPDoer{Response: newMockResponse(500, `{"detail":"model overloaded"}`)},
			check: func(err error) bool { return apierrors.GetHTTPStatus(err) == 500 },
		},
		{
			name:  "not found",
			doer:  &MockHTTPDoer{Response: newMockResponse(404, `not found`)},
			check: func(err error) bool { return apierrors.GetResponseBody(err) == "not found" },
		},
		{
			name:  "network failure",
			doer:  &MockHTTPDoer{Err: errors.New("dial tcp: connection refused")},
			check: apierrors.IsNetworkError,
		},
		{
			name:  "invalid json",
			doer:  &MockHTTPDoer{Response: newMockResponse(200, `<html>oops</html>`)},
			check: func(err error) bool { return errors.Is(err, apierrors.ErrInvalidResponse) },
		},
		{
			name:      "missing reply field",
			doer:      &MockHTTPDoer{Response: newMockResponse(200, `{"reply":"x"}`)},
			check:     func(err error) bool { return errors.Is(err, apierrors.ErrInvalidResponse) },
			wantInErr: "response",
		},
		{
			name:  "reply not a string",
			doer:  &MockHTTPDoer{Response: newMockResponse(200, `{"response":{"text":"x"}}`)},
			check: func(err error) bool { return errors.Is(err, apierrors.ErrInvalidResponse) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.doer)

			reply, err := client.Complete(context.Background(), sampleHistory())
			if err == nil {
				t.Fatalf("Complete() expected error, got reply %q", reply)
			}
			if !apierrors.IsTransportError(err) {
				t.Errorf("error %v should be a transport error", err)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantInErr != "" && !strings.Contains(err.Error(), tt.wantInErr) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantInErr)
			}
		})
	}
}

func TestCompleteTimeout(t *testing.T) {
	doer := &MockHTTPDoer{
		DoFunc: func(req *fhttp.Request) (*fhttp.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		},
	}
	client := newTestClient(t, doer, WithTimeout(20*time.Millisecond))

	_, err := client.Complete(context.Background(), sampleHistory())
	if !apierrors.IsTimeoutError(err) {
		t.Errorf("Complete() error = %v, want TimeoutError", err)
	}
}

func TestCompleteEmptyHistory(t *testing.T) {
	doer := &MockHTTPDoer{}
	client := newTestClient(t, doer)

	if _, err := client.Complete(context.Background(), nil); !errors.Is(err, apierrors.ErrEmptyMessage) {
		t.Errorf("Complete() error = %v, want ErrEmptyMessage", err)
	}
	if doer.LastRequest != nil {
		t.Error("no request should be sent for an empty history")
	}
}

func TestCompleteInvalidRole(t *testing.T) {
	client := newTestClient(t, &MockHTTPDoer{})
	history := []models.Message{{Role: "system", Content: "x"}}

	if _, err := client.Complete(context.Background(), history); err == nil {
		t.Error("Complete() expected error for invalid role")
	}
}

func TestClose(t *testing.T) {
	doer := &MockHTTPDoer{Response: newMockResponse(200, `{"response":"ok"}`)}
	client := newTestClient(t, doer)

	client.Close()
	client.Close() // idempotent

	if !client.IsClosed() {
		t.Error("IsClosed() = false after Close()")
	}
	if !doer.IdleClosed {
		t.Error("Close() should release idle connections")
	}
	if _, err := client.Complete(context.Background(), sampleHistory()); !errors.Is(err, apierrors.ErrClientClosed) {
		t.Errorf("Complete() after Close() error = %v, want ErrClientClosed", err)
	}
}

func TestBuildPayloadEscapesContent(t *testing.T) {
	content := "line one\n\"quoted\" <b>tag</b> " + models.ArtifactStartMarker
	payload, err := buildPayload([]models.Message{{Role: models.RoleUser, Content: content}})
	if err != nil {
		t.Fatalf("buildPayload() error = %v", err)
	}
	if !gjson.Valid(payload) {
		t.Fatalf("payload is not valid JSON: %s", payload)
	}
	if got := gjson.Get(payload, "messages.0.content").String(); got != content {
		t.Errorf("content round trip = %q, want %q", got, content)
	}
}

func TestBuildPayloadEmpty(t *testing.T) {
	payload, err := buildPayload(nil)
	if err != nil {
		t.Fatalf("buildPayload() error = %v", err)
	}
	if payload != `{"messages":[]}` {
		t.Errorf("payload = %s", payload)
	}
}

func TestNewClientWithRealTransport(t *testing.T) {
	if os.Getenv("RISKCHAT_TEST_ENDPOINT") == "" {
		t.Skip("RISKCHAT_TEST_ENDPOINT not set")
	}

	client, err := NewClient(WithEndpoint(os.Getenv("RISKCHAT_TEST_ENDPOINT")), WithTimeout(30*time.Second))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	if _, err := client.Complete(context.Background(), sampleHistory()); err != nil {
		t.Errorf("Complete() error = %v", err)
	}
}
