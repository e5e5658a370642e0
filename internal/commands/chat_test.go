package commands

import (
	"path/filepath"
	"testing"

	"github.com/diogo/riskchat/internal/api"
	"github.com/diogo/riskchat/internal/models"
	"github.com/diogo/riskchat/internal/session"
)

func TestChatCommand(t *testing.T) {
	cmd := newApp(nil).chatCommand()

	if cmd.Use != "chat" {
		t.Errorf("Expected Use 'chat', got %s", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}
	if cmd.Annotations[logToFileAnnotation] != "true" {
		t.Error("chat should log to a file, not the terminal")
	}
	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Error("chat should reject positional arguments")
	}
}

func TestChatCommand_RunsTUI(t *testing.T) {
	home := isolate(t)
	r := &recorder{transport: &api.MockTransport{Reply: "ok"}}

	if _, _, err := runCommand(t, r.deps(), "", "chat", "--backend", "local"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if r.chatCalls != 1 {
		t.Fatalf("RunChat called %d times, want 1", r.chatCalls)
	}
	if r.chatBackend != models.BackendLocal {
		t.Errorf("backend = %q, want %q", r.chatBackend, models.BackendLocal)
	}
	if _, ok := r.chatConv.(*session.Session); !ok {
		t.Errorf("conversation should be a session, got %T", r.chatConv)
	}
	if r.released != 1 {
		t.Errorf("transport released %d times, want 1", r.released)
	}

	wantLog := filepath.Join(home, ".riskchat", "riskchat.log")
	if len(r.logOutputs) != 1 || r.logOutputs[0] != wantLog {
		t.Errorf("log outputs = %v, want [%s]", r.logOutputs, wantLog)
	}
}

func TestChatCommand_InvalidConfig(t *testing.T) {
	isolate(t)
	r := &recorder{transport: &api.MockTransport{}}

	if _, _, err := runCommand(t, r.deps(), "", "chat", "--timeout", "-3"); err == nil {
		t.Fatal("expected a validation error")
	}
	if r.chatCalls != 0 {
		t.Error("TUI should not start with an invalid configuration")
	}
}
