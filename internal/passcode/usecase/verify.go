package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
)

type VerifyInput struct {
	Identity string `validate:"required,identity"`
	Code     string `validate:"required,max=16"`
	Token    string `validate:"required"`
}

type VerifyOutput struct {
	UserID    int64
	IsNewUser bool
}

func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Identity = entity.NormalizeIdentity(in.Identity)

	if err := s.validator.Validate(in); err != nil {
		return nil, s.fail(ctx, "verify", "invalid_input", goerror.NewInvalidInput(err))
	}

	// the store is never consulted for a token that does not verify
	claims, err := s.verifySession(ctx, in.Token, in.Identity)
	if err != nil {
		return nil, err
	}

	ch, err := s.getChallenge(ctx, in.Identity)
	if err != nil {
		return nil, err
	}

	if ch.Ref != claims.Ref() {
		slog.WarnContext(ctx, "session token refers to a replaced challenge", "identity", in.Identity)
		return nil, s.fail(ctx, "verify", "not_found", entity.ErrChallengeNotFound)
	}

	if ch.Expired(s.clock.Now(), s.ttl()) {
		s.deleteChallenge(ctx, in.Identity)
		return nil, s.fail(ctx, "verify", "expired", entity.ErrChallengeExpired)
	}

	if ch.AttemptsRemaining <= 0 {
		s.deleteChallenge(ctx, in.Identity)
		return nil, s.fail(ctx, "verify", "exhausted", entity.ErrAttemptsExhausted)
	}

	if !s.hmac.Verify(ch.CodeHash, in.Code) {
		return nil, s.rejectCode(ctx, in.Identity, ch.Ref)
	}

	sctx, cancel := s.withStoreTimeout(ctx)
	consumed, err := s.repoCache.ConsumeChallenge(sctx, in.Identity, ch.Ref)
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume challenge", "identity", in.Identity, "error", err)
		return nil, s.fail(ctx, "verify", "store_unavailable", s.storeUnavailable(err))
	}
	if !consumed {
		slog.WarnContext(ctx, "challenge consumed or exhausted concurrently", "identity", in.Identity)
		return nil, s.fail(ctx, "verify", "not_found", entity.ErrChallengeNotFound)
	}

	return s.completeVerification(ctx, in.Identity)
}

func (s *Usecase) getChallenge(ctx context.Context, identity string) (*entity.Challenge, error) {
	sctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	ch, err := s.repoCache.GetChallenge(sctx, identity)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge not found", "identity", identity)
		return nil, s.fail(ctx, "verify", "not_found", entity.ErrChallengeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get challenge", "identity", identity, "error", err)
		return nil, s.fail(ctx, "verify", "store_unavailable", s.storeUnavailable(err))
	}

	return ch, nil
}

// rejectCode spends one attempt of the challenge ref and reports what is left.
// The store drops the challenge when the budget runs out.
func (s *Usecase) rejectCode(ctx context.Context, identity, ref string) error {
	sctx, cancel := s.withStoreTimeout(ctx)
	remaining, err := s.repoCache.DecrementAttempts(sctx, identity, ref)
	cancel()
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge replaced or gone before decrement", "identity", identity)
		return s.fail(ctx, "verify", "not_found", entity.ErrChallengeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo decrement attempts", "identity", identity, "error", err)
		return s.fail(ctx, "verify", "store_unavailable", s.storeUnavailable(err))
	}

	if remaining <= 0 {
		slog.WarnContext(ctx, "passcode attempts exhausted", "identity", identity)
		return s.fail(ctx, "verify", "exhausted", entity.ErrAttemptsExhausted)
	}

	slog.WarnContext(ctx, "invalid passcode", "identity", identity, "attempts_remaining", remaining)
	return s.fail(ctx, "verify", "invalid_code", entity.ErrCodeInvalid.WithMeta("attempts_remaining", remaining))
}

// deleteChallenge is best effort; the store TTL reclaims what is left behind.
func (s *Usecase) deleteChallenge(ctx context.Context, identity string) {
	sctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	if err := s.repoCache.DeleteChallenge(sctx, identity); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete challenge", "identity", identity, "error", err)
	}
}
