package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestDiscordSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(srv.URL, zap.NewNop())
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["content"] != "hello" {
		t.Errorf("content = %q, want hello", got["content"])
	}
}

func TestDiscordSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(srv.URL, zap.NewNop())
	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Fatal("want error on http 429")
	}
}

func TestDiscordDisabled(t *testing.T) {
	n := NewDiscordNotifier("", zap.NewNop())
	if n.Enabled() {
		t.Error("Enabled() = true with empty webhook url")
	}
	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Error("want error when webhook url is not configured")
	}
}
