package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type toolkitServer struct {
	validCode string
	failWith  string
	lastBody  map[string]any
}

func (s *toolkitServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.lastBody = map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&s.lastBody)
	w.Header().Set("Content-Type", "application/json")

	if s.failWith != "" {
		writeError(w, s.failWith)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/sendVerificationCode"):
		_, _ = w.Write([]byte(`{"sessionInfo":"session-abc"}`))
	case strings.HasSuffix(r.URL.Path, "/verifyPhoneNumber"):
		if s.lastBody["code"] != s.validCode {
			writeError(w, "INVALID_CODE")
			return
		}
		_, _ = w.Write([]byte(`{"localId":"uid-1","phoneNumber":"+6281234567890"}`))
	default:
		http.NotFound(w, r)
	}
}

func writeError(w http.ResponseWriter, reason string) {
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    400,
			"message": reason,
			"errors":  []map[string]string{{"message": reason, "domain": "global", "reason": "invalid"}},
		},
	})
}

func newToolkit(t *testing.T, srv *toolkitServer) *IdentityToolkit {
	t.Helper()

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	p, err := NewIdentityToolkit(context.Background(), Config{
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(ts.URL + "/"),
			option.WithoutAuthentication(),
			option.WithHTTPClient(ts.Client()),
		},
	}, instrument.NewNoop())
	require.NoError(t, err)
	return p
}

func TestIdentityToolkit_SendAndVerify(t *testing.T) {
	srv := &toolkitServer{validCode: "123456"}
	p := newToolkit(t, srv)
	ctx := context.Background()

	session, err := p.SendCode(ctx, "+6281234567890")
	require.NoError(t, err)
	assert.Equal(t, "session-abc", session)
	assert.Equal(t, "+6281234567890", srv.lastBody["phoneNumber"])

	require.NoError(t, p.VerifyCode(ctx, session, "123456"))
	assert.Equal(t, "session-abc", srv.lastBody["sessionInfo"])

	err = p.VerifyCode(ctx, session, "000000")
	assert.ErrorIs(t, err, entity.ErrProviderCodeInvalid)
}

func TestIdentityToolkit_ErrorMapping(t *testing.T) {
	tests := []struct {
		reason string
		want   error
	}{
		{reason: "SESSION_EXPIRED", want: entity.ErrProviderSessionExpired},
		{reason: "CODE_EXPIRED", want: entity.ErrProviderSessionExpired},
		{reason: "TOO_MANY_ATTEMPTS_TRY_LATER : slow down", want: entity.ErrProviderTooManyAttempts},
		{reason: "INVALID_PHONE_NUMBER : TOO_SHORT", want: entity.ErrProviderIdentityRejected},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			p := newToolkit(t, &toolkitServer{failWith: tt.reason})

			err := p.VerifyCode(context.Background(), "session", "123456")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIdentityToolkit_UnknownError(t *testing.T) {
	p := newToolkit(t, &toolkitServer{failWith: "INTERNAL_ERROR"})

	_, err := p.SendCode(context.Background(), "+6281234567890")
	require.Error(t, err)
	for _, sentinel := range []error{
		entity.ErrProviderCodeInvalid,
		entity.ErrProviderSessionExpired,
		entity.ErrProviderTooManyAttempts,
		entity.ErrProviderIdentityRejected,
	} {
		assert.False(t, errors.Is(err, sentinel))
	}
}

func TestMapError_NonAPIError(t *testing.T) {
	boom := errors.New("dial tcp: refused")
	assert.ErrorIs(t, mapError(boom), boom)
	assert.NoError(t, mapError(nil))
}
