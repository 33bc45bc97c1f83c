package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/gopasscode/internal/pkg/config"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type greeting struct {
	Name string `json:"name"`
}

func (greeting) Message() string { return "hello" }

type flatGreeting struct {
	Name string `json:"name"`
}

func (flatGreeting) Message() string { return "hello" }

func (g flatGreeting) Fields() map[string]any {
	return map[string]any{"name": g.Name, "message": "ignored"}
}

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	var cfg config.Config
	if yaml != "" {
		c, err := config.NewViperFromBytes("yaml", []byte(yaml))
		require.NoError(t, err)
		cfg = c
	}

	return NewRouter(Config{Config: cfg, UUID: fixedID("cid-1")})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_Success(t *testing.T) {
	ro := newTestRouter(t, "")
	ro.POST("/greet", func(r *Request) (any, error) {
		var in greeting
		if err := r.DecodeBody(&in); err != nil {
			return nil, err
		}
		return in, nil
	})

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/greet", strings.NewReader(`{"name":"gopher"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cid-1", rec.Header().Get(HeaderCorrelationID))
	body := decode(t, rec)
	assert.Equal(t, "hello", body["message"])
	assert.Equal(t, map[string]any{"name": "gopher"}, body["data"])
}

func TestRouter_SuccessFields(t *testing.T) {
	ro := newTestRouter(t, "")
	ro.GET("/flat", func(*Request) (any, error) { return flatGreeting{Name: "gopher"}, nil })

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/flat", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "hello", body["message"])
	assert.Equal(t, "gopher", body["name"])
	assert.Equal(t, map[string]any{"name": "gopher"}, body["data"])
}

func TestRouter_DecodeBody(t *testing.T) {
	ro := newTestRouter(t, "")
	ro.POST("/greet", func(r *Request) (any, error) {
		var in greeting
		return in, r.DecodeBody(&in)
	})

	for _, raw := range []string{`{"name":"a","extra":1}`, `{"name":"a"}{}`, `not json`, ``} {
		rec := httptest.NewRecorder()
		ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/greet", strings.NewReader(raw)))

		assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
		assert.Equal(t, goerror.CodeInvalidFormat.String(), decode(t, rec)["code"], raw)
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
		{"server error hides cause", goerror.NewServer(errors.New("db down")), http.StatusInternalServerError, "Internal server error"},
		{"unavailable", goerror.NewUnavailable(errors.New("redis"), "Service temporarily unavailable"), http.StatusServiceUnavailable, "Service temporarily unavailable"},
		{"exhausted", goerror.NewBusiness("Too many failed attempts. Request a new OTP.", goerror.CodeExhausted), http.StatusForbidden, "Too many failed attempts. Request a new OTP."},
		{"invalid code", goerror.NewBusiness("Invalid OTP", goerror.CodeInvalidCode), http.StatusBadRequest, "Invalid OTP"},
		{"cooldown", goerror.NewBusiness("slow down", goerror.CodeTooManyRequest), http.StatusTooManyRequests, "slow down"},
		{"delivery", goerror.NewBusiness("Failed to send OTP", goerror.CodeDeliveryFailed), http.StatusInternalServerError, "Failed to send OTP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ro := newTestRouter(t, "")
			ro.POST("/x", func(*Request) (any, error) { return nil, tt.err })

			rec := httptest.NewRecorder()
			ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rec)["message"])
		})
	}
}

func TestRouter_ErrorMeta(t *testing.T) {
	ro := newTestRouter(t, "")
	ro.POST("/x", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("Invalid OTP", goerror.CodeInvalidCode).WithMeta("attempts_remaining", 2)
	})

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

	body := decode(t, rec)
	assert.Equal(t, "ERROR_CODE_INVALID_CODE", body["code"])
	assert.Equal(t, map[string]any{"attempts_remaining": float64(2)}, body["meta"])
}

func TestRouter_Maintenance(t *testing.T) {
	ro := newTestRouter(t, "app:\n  maintenance:\n    endpoints: [\"/x\"]\n")
	ro.POST("/x", func(*Request) (any, error) { return greeting{}, nil })
	ro.POST("/y", func(*Request) (any, error) { return greeting{}, nil })

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/y", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Recover(t *testing.T) {
	ro := newTestRouter(t, "")
	ro.GET("/panic", func(*Request) (any, error) { panic("kaboom") })

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, goerror.CodeInternal.String(), decode(t, rec)["code"])
}

func TestRouter_NotFound(t *testing.T) {
	ro := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "10.0.0.1", clientIP(r, false))
	assert.Equal(t, "203.0.113.9", clientIP(r, true))
}

func TestNormalizeCID(t *testing.T) {
	assert.Empty(t, normalizeCID("abc\r\nforged: 1"))
	assert.Equal(t, "abc", normalizeCID("  abc "))
	assert.Len(t, normalizeCID(strings.Repeat("a", 500)), maxCIDLen)
}
