package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExchangeSDP(t *testing.T) {
	t.Parallel()

	const answer = "v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\n"

	var gotAuth, gotContentType, gotModel, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotModel = r.URL.Query().Get("model")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, answer)
	}))
	defer server.Close()

	got, err := exchangeSDP(context.Background(), server.Client(), server.URL, "gpt-realtime", "ephemeral-secret", "v=0 offer")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if got != answer {
		t.Fatalf("unexpected answer: %q", got)
	}
	if gotAuth != "Bearer ephemeral-secret" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if gotContentType != "application/sdp" {
		t.Fatalf("unexpected content type: %q", gotContentType)
	}
	if gotModel != "gpt-realtime" {
		t.Fatalf("unexpected model query: %q", gotModel)
	}
	if gotBody != "v=0 offer" {
		t.Fatalf("unexpected request body: %q", gotBody)
	}
}

func TestExchangeSDPNonSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "invalid session secret\n")
	}))
	defer server.Close()

	_, err := exchangeSDP(context.Background(), server.Client(), server.URL, "gpt-realtime", "expired", "v=0 offer")
	if err == nil {
		t.Fatalf("expected error for non-success status")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "invalid session secret") {
		t.Fatalf("error should carry status and body: %v", err)
	}
}

func TestExchangeSDPContextCancel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := exchangeSDP(ctx, server.Client(), server.URL, "gpt-realtime", "secret", "v=0 offer"); err == nil {
		t.Fatalf("expected cancellation to abort the exchange")
	}
}
