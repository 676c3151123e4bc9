package email

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSend(t *testing.T) {
	var gotAuth string
	var gotBody sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "re_test_key", "noreply@viveo.rs", server.Client(), testLogger())

	err := client.Send(context.Background(), "fan@example.com", "Your video is ready", "<p>hi</p>")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotAuth != "Bearer re_test_key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBody.To != "fan@example.com" {
		t.Errorf("to = %q", gotBody.To)
	}
	if gotBody.From != "noreply@viveo.rs" {
		t.Errorf("from = %q", gotBody.From)
	}
}

func TestSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer server.Close()

	client := New(server.URL, "re_test_key", "noreply@viveo.rs", server.Client(), testLogger())

	err := client.Send(context.Background(), "not-an-address", "subject", "<p>hi</p>")
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error should carry the status, got: %v", err)
	}
}

func TestSendDegradedMode(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		requests++
	}))
	defer server.Close()

	client := New(server.URL, "", "noreply@viveo.rs", server.Client(), testLogger())

	if err := client.Send(context.Background(), "fan@example.com", "subject", "<p>hi</p>"); err != nil {
		t.Fatalf("degraded mode must succeed, got: %v", err)
	}
	if requests != 0 {
		t.Error("degraded mode must not touch the network")
	}
}
