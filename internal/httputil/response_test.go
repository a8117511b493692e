package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "conversation not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["error"] != "conversation not found" {
		t.Errorf("error = %q, want %q", body["error"], "conversation not found")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		maxBytes   int64
		wantOK     bool
		wantStatus int
	}{
		{name: "valid", body: `{"address":"a+1@b.c"}`, maxBytes: 1024, wantOK: true},
		{name: "invalid json", body: `{invalid}`, maxBytes: 1024, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"other":1}`, maxBytes: 1024, wantStatus: http.StatusBadRequest},
		{name: "too large", body: `{"address":"` + strings.Repeat("x", 100) + `"}`, maxBytes: 10, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			req.Body = http.MaxBytesReader(rec, req.Body, tt.maxBytes)

			var v struct {
				Address string `json:"address"`
			}
			ok := DecodeJSON(rec, req, &v)
			if ok != tt.wantOK {
				t.Fatalf("DecodeJSON() = %v, want %v", ok, tt.wantOK)
			}
			if !ok && rec.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
