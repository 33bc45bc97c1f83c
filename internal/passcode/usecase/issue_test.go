package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue(t *testing.T) {
	h := newHarness(t, 0, "123456")

	out, err := h.uc.Issue(context.Background(), IssueInput{Identity: "  A@Example.com "})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, 300, out.ExpiresIn)

	ch, ok := h.cache.challenge("a@example.com")
	require.True(t, ok)
	assert.Equal(t, 5, ch.AttemptsRemaining)
	assert.Equal(t, h.clock.Now(), ch.CreatedAt)
	assert.NotEqual(t, "123456", ch.CodeHash)
	assert.NotContains(t, out.Token, "123456")

	claims, err := h.dep.JWT.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims.Identity())
	assert.Equal(t, ch.Ref, claims.Ref())

	require.Len(t, h.delivery.sent, 1)
	assert.Equal(t, entity.IdentityKindEmail, h.delivery.sent[0].Kind)
	assert.Equal(t, "a@example.com", h.delivery.sent[0].Destination)
	assert.Equal(t, "123456", h.delivery.lastCode(t))
}

func TestIssue_Phone(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.uc.Issue(context.Background(), IssueInput{Identity: "+6281234567890"})
	require.NoError(t, err)

	require.Len(t, h.delivery.sent, 1)
	assert.Equal(t, entity.IdentityKindPhone, h.delivery.sent[0].Kind)
}

func TestIssue_InvalidInput(t *testing.T) {
	for _, identity := range []string{"", "   ", "gopher", "0812345"} {
		h := newHarness(t, 0)

		_, err := h.uc.Issue(context.Background(), IssueInput{Identity: identity})
		assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err), identity)
		assert.Empty(t, h.delivery.sent)
	}
}

func TestIssue_DeliveryFailedKeepsChallenge(t *testing.T) {
	h := newHarness(t, 0, "111111", "222222")
	h.delivery.err = errors.New("smtp down")

	_, err := h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	assert.Equal(t, goerror.CodeDeliveryFailed, goerror.CodeOf(err))

	first, ok := h.cache.challenge("a@example.com")
	require.True(t, ok)

	h.delivery.err = nil
	out, err := h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	require.NoError(t, err)

	second, ok := h.cache.challenge("a@example.com")
	require.True(t, ok)
	assert.NotEqual(t, first.Ref, second.Ref)

	_, err = h.uc.Verify(context.Background(), VerifyInput{Identity: "a@example.com", Code: "222222", Token: out.Token})
	assert.NoError(t, err)
}

func TestIssue_StoreUnavailable(t *testing.T) {
	h := newHarness(t, 0)
	h.cache.down = true

	_, err := h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	assert.Equal(t, goerror.CodeUnavailable, goerror.CodeOf(err))
	assert.Empty(t, h.delivery.sent)
}

func TestIssue_GeneratorError(t *testing.T) {
	h := newHarness(t, 0)
	h.codes.codes = nil

	_, err := h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	assert.Equal(t, goerror.CodeInternal, goerror.CodeOf(err))
}

func TestIssue_ResendCooldown(t *testing.T) {
	h := newHarness(t, 30, "111111", "222222", "333333")

	_, err := h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	require.NoError(t, err)

	_, err = h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	require.Equal(t, goerror.CodeTooManyRequest, goerror.CodeOf(err))
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 30, gerr.Meta()["retry_after_seconds"])

	_, err = h.uc.Issue(context.Background(), IssueInput{Identity: "b@example.com"})
	require.NoError(t, err)

	h.clock.Advance(31 * time.Second)
	_, err = h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	assert.NoError(t, err)
}

func TestIssue_DeliveryFailedDoesNotHoldCooldown(t *testing.T) {
	h := newHarness(t, 30, "111111", "222222")
	h.delivery.err = errors.New("smtp down")

	_, err := h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	require.Equal(t, goerror.CodeDeliveryFailed, goerror.CodeOf(err))

	h.delivery.err = nil
	out, err := h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	require.NoError(t, err)

	_, err = h.uc.Verify(context.Background(), VerifyInput{Identity: "a@example.com", Code: "222222", Token: out.Token})
	assert.NoError(t, err)

	_, err = h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	assert.Equal(t, goerror.CodeTooManyRequest, goerror.CodeOf(err))
}

func TestIssue_ReplacesPreviousChallenge(t *testing.T) {
	h := newHarness(t, 0, "111111", "222222")

	old, err := h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	require.NoError(t, err)
	_, err = h.uc.Issue(context.Background(), IssueInput{Identity: "a@example.com"})
	require.NoError(t, err)

	ch, ok := h.cache.challenge("a@example.com")
	require.True(t, ok)
	assert.Equal(t, 5, ch.AttemptsRemaining)

	_, err = h.uc.Verify(context.Background(), VerifyInput{Identity: "a@example.com", Code: "222222", Token: old.Token})
	assert.Equal(t, goerror.CodeNotFound, goerror.CodeOf(err))
}
