package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/salesdash/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(r.RemoteAddr))
})

func TestTrustedRealIP(t *testing.T) {
	mw := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-a-cidr", " "})

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "untrusted peer keeps address", remote: "203.0.113.9:5000", headers: map[string]string{"X-Real-IP": "1.2.3.4"}, want: "203.0.113.9:5000"},
		{name: "trusted cidr uses X-Real-IP", remote: "10.1.2.3:5000", headers: map[string]string{"X-Real-IP": "1.2.3.4"}, want: "1.2.3.4"},
		{name: "trusted bare ip", remote: "192.168.1.5:80", headers: map[string]string{"X-Real-IP": "5.6.7.8"}, want: "5.6.7.8"},
		{name: "first forwarded hop", remote: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "9.9.9.9, 10.0.0.2"}, want: "9.9.9.9"},
		{name: "invalid header ignored", remote: "10.0.0.1:1", headers: map[string]string{"X-Real-IP": "garbage"}, want: "10.0.0.1:1"},
		{name: "no headers", remote: "10.0.0.1:1", want: "10.0.0.1:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			mw(okHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	var denied error
	deny := func(w http.ResponseWriter, r *http.Request, status int, err error) {
		denied = err
		w.WriteHeader(status)
	}

	tests := []struct {
		name       string
		cfg        config.SecurityConfig
		key        string
		wantStatus int
		wantErr    error
	}{
		{name: "disabled", cfg: config.SecurityConfig{}, wantStatus: http.StatusOK},
		{name: "missing key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, wantStatus: http.StatusUnauthorized, wantErr: ErrMissingAPIKey},
		{name: "wrong key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, key: "nope", wantStatus: http.StatusForbidden, wantErr: ErrInvalidAPIKey},
		{name: "second key accepted", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, key: "k2", wantStatus: http.StatusOK},
		{name: "no keys configured", cfg: config.SecurityConfig{RequireAPIKey: true}, key: "k1", wantStatus: http.StatusForbidden, wantErr: ErrInvalidAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			denied = nil
			req := httptest.NewRequest(http.MethodGet, "/api/sales/summary", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(&tt.cfg, deny)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.ErrorIs(t, denied, tt.wantErr)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
		w.WriteHeader(http.StatusOK) // ignored
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/upload/file", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "bytes=5")
	assert.Contains(t, out, "path=/api/upload/file")
	assert.Contains(t, out, "level=INFO")
}

func TestLogger_ServerErrorAtWarn(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "level=WARN")
}
