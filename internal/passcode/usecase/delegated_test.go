package usecase

import (
	"context"
	"testing"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	sessions map[string]string
	sendErr  error
	verify   func(sessionInfo, code string) error
}

func (f *fakeProvider) SendCode(_ context.Context, phone string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	session := "session-" + phone
	f.sessions[session] = phone
	return session, nil
}

func (f *fakeProvider) VerifyCode(_ context.Context, sessionInfo, code string) error {
	if f.verify != nil {
		return f.verify(sessionInfo, code)
	}
	if _, ok := f.sessions[sessionInfo]; !ok {
		return entity.ErrProviderSessionExpired
	}
	if code != "123456" {
		return entity.ErrProviderCodeInvalid
	}
	return nil
}

func newDelegated(t *testing.T) (*Delegated, *harness, *fakeProvider) {
	t.Helper()
	h := newHarness(t, 0)
	p := &fakeProvider{sessions: map[string]string{}}
	return NewDelegated(h.dep, p), h, p
}

func TestDelegated_IssueAndVerify(t *testing.T) {
	d, h, _ := newDelegated(t)
	const phone = "+6281234567890"

	out, err := d.Issue(context.Background(), IssueInput{Identity: phone})
	require.NoError(t, err)

	claims, err := h.dep.JWT.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, "session-"+phone, claims.Ref())

	// nothing is stored or delivered locally
	_, ok := h.cache.challenge(phone)
	assert.False(t, ok)
	assert.Empty(t, h.delivery.sent)

	res, err := d.Verify(context.Background(), VerifyInput{Identity: phone, Code: "123456", Token: out.Token})
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
}

func TestDelegated_RejectsEmail(t *testing.T) {
	d, _, _ := newDelegated(t)

	_, err := d.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
}

func TestDelegated_ProviderErrors(t *testing.T) {
	d, _, p := newDelegated(t)
	const phone = "+6281234567890"

	out, err := d.Issue(context.Background(), IssueInput{Identity: phone})
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
		want goerror.Code
	}{
		{"invalid code", entity.ErrProviderCodeInvalid, goerror.CodeInvalidCode},
		{"expired", entity.ErrProviderSessionExpired, goerror.CodeExpired},
		{"too many attempts", entity.ErrProviderTooManyAttempts, goerror.CodeExhausted},
		{"outage", assert.AnError, goerror.CodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.verify = func(string, string) error { return tt.err }
			_, err := d.Verify(context.Background(), VerifyInput{Identity: phone, Code: "123456", Token: out.Token})
			assert.Equal(t, tt.want, goerror.CodeOf(err))
		})
	}
}

func TestDelegated_SendFailure(t *testing.T) {
	d, _, p := newDelegated(t)
	p.sendErr = assert.AnError

	_, err := d.Issue(context.Background(), IssueInput{Identity: "+6281234567890"})
	assert.Equal(t, goerror.CodeDeliveryFailed, goerror.CodeOf(err))
}

func TestDelegated_TokenIdentityMismatch(t *testing.T) {
	d, _, _ := newDelegated(t)

	out, err := d.Issue(context.Background(), IssueInput{Identity: "+6281234567890"})
	require.NoError(t, err)

	_, err = d.Verify(context.Background(), VerifyInput{Identity: "+6289999999999", Code: "123456", Token: out.Token})
	assert.Equal(t, goerror.CodeInvalidToken, goerror.CodeOf(err))
}
