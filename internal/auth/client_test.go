package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUserFromToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer session-token" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey = %q", r.Header.Get("apikey"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u-1","email":"fan@example.com"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "anon-key", server.Client())

	user, err := client.UserFromToken(context.Background(), "session-token")
	if err != nil {
		t.Fatalf("UserFromToken() error = %v", err)
	}
	if user.ID != "u-1" || user.Email != "fan@example.com" {
		t.Errorf("user = %+v", user)
	}
}

func TestUserFromTokenUnauthorized(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"401", http.StatusUnauthorized, `{"message":"invalid JWT"}`},
		{"403", http.StatusForbidden, `{}`},
		{"empty user id", http.StatusOK, `{"id":"","email":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "anon-key", server.Client())

			_, err := client.UserFromToken(context.Background(), "bad-token")
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestUserFromTokenServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "anon-key", server.Client())

	_, err := client.UserFromToken(context.Background(), "token")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("provider outages must not read as unauthorized")
	}
}
