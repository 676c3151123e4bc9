package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/lifecycle"
)

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	writeData(rec, http.StatusCreated, map[string]string{"id": "o-1"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
		Meta    *json.RawMessage  `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !body.Success {
		t.Error("success must be true")
	}
	if body.Data["id"] != "o-1" {
		t.Errorf("data = %v", body.Data)
	}
	if body.Meta != nil {
		t.Error("meta must be omitted when absent")
	}
}

func TestWriteDataMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDataMeta(rec, http.StatusOK, []string{"a", "b"}, listMeta{Total: 2})

	var body struct {
		Meta listMeta `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Meta.Total != 2 {
		t.Errorf("meta.total = %d, want 2", body.Meta.Total)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, CodeValidation, "buyer_email is required")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var envelope errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Success {
		t.Error("success must be false")
	}
	if envelope.Error.Code != CodeValidation {
		t.Errorf("code = %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "buyer_email is required" {
		t.Errorf("message = %q", envelope.Error.Message)
	}
}

func TestWriteTransitionError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown order",
			err:        lifecycle.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
		},
		{
			name:       "invalid transition",
			err:        &lifecycle.InvalidTransitionError{From: domain.StatusPending, To: domain.StatusCompleted},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidTransition,
		},
		{
			name:       "wrapped invalid transition",
			err:        errors.Join(errors.New("context"), &lifecycle.InvalidTransitionError{From: domain.StatusShipped, To: domain.StatusPending}),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidTransition,
		},
		{
			name:       "storage failure",
			err:        errors.New("pq: connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeTransitionError(rec, testLogger(), tt.err, "o-1")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var envelope errorEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
				t.Fatal(err)
			}
			if envelope.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", envelope.Error.Code, tt.wantCode)
			}
		})
	}
}
