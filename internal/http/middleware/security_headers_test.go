package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tendant/simple-helpdesk/internal/config"
)

func serveWithHeaders(cfg config.SecurityHeadersConfig) http.Header {
	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header()
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SecurityHeadersConfig
		want map[string]string
	}{
		{
			name: "api defaults",
			cfg: config.SecurityHeadersConfig{
				Enabled:            true,
				CSP:                "default-src 'none'",
				HSTSMaxAge:         31536000,
				FrameOptions:       "DENY",
				ContentTypeOptions: "nosniff",
				ReferrerPolicy:     "no-referrer",
			},
			want: map[string]string{
				"Content-Security-Policy":   "default-src 'none'",
				"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
				"X-Frame-Options":           "DENY",
				"X-Content-Type-Options":    "nosniff",
				"Referrer-Policy":           "no-referrer",
				"Cache-Control":             "no-store",
				"X-XSS-Protection":          "",
				"Permissions-Policy":        "",
			},
		},
		{
			name: "empty values are omitted",
			cfg:  config.SecurityHeadersConfig{Enabled: true},
			want: map[string]string{
				"Content-Security-Policy":   "",
				"Strict-Transport-Security": "",
				"X-Frame-Options":           "",
				"Cache-Control":             "no-store",
			},
		},
		{
			name: "disabled sets nothing",
			cfg:  config.SecurityHeadersConfig{Enabled: false, CSP: "default-src 'none'", HSTSMaxAge: 60},
			want: map[string]string{
				"Content-Security-Policy":   "",
				"Strict-Transport-Security": "",
				"Cache-Control":             "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := serveWithHeaders(tt.cfg)
			for name, want := range tt.want {
				if got := headers.Get(name); got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}
