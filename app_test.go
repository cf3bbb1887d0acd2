package main

import (
	"testing"

	"warmline/internal/domain"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:    "Startup failed",
		domain.ErrorCodeAuth:       "Authentication failed",
		domain.ErrorCodeProvision:  "Session provisioning failed",
		domain.ErrorCodeHandshake:  "Realtime handshake failed",
		domain.ErrorCodeConnection: "Connection lost",
		domain.ErrorCodeChannel:    "Realtime channel error",
		domain.ErrorCodeAudio:      "Audio issue",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestHandleCommandQuit(t *testing.T) {
	t.Parallel()

	app := NewApp()
	if !app.handleCommand("/quit") {
		t.Fatalf("/quit should end the loop")
	}
	if !app.handleCommand("  /quit  ") {
		t.Fatalf("whitespace around /quit should be ignored")
	}
	if app.handleCommand("") {
		t.Fatalf("blank lines must not end the loop")
	}
}
