package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

// Delegated hands code generation, delivery and checking to an external
// verification provider. Only phone identities are supported. The provider
// session reference rides in the session token in place of a challenge ref.
type Delegated struct {
	*Usecase
	provider repoProvider
}

func NewDelegated(dep Dependency, provider repoProvider) *Delegated {
	return &Delegated{Usecase: New(dep), provider: provider}
}

func (d *Delegated) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := d.startSpan(ctx, "DelegatedIssue")
	defer span.End()

	in.Identity = entity.NormalizeIdentity(in.Identity)

	if err := d.validator.Validate(in); err != nil {
		return nil, d.fail(ctx, "issue", "invalid_input", goerror.NewInvalidInput(err))
	}
	if entity.KindOf(in.Identity) != entity.IdentityKindPhone {
		return nil, d.fail(ctx, "issue", "invalid_input",
			goerror.NewInvalidInput(nil, "identity", "identity must be an E.164 phone number"))
	}

	if _, err := d.checkCooldown(ctx, in.Identity); err != nil {
		return nil, err
	}

	dctx, cancel := context.WithTimeout(ctx, d.deliveryTimeout())
	sessionInfo, err := d.provider.SendCode(dctx, in.Identity)
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "failed to provider send code", "identity", in.Identity, "error", err)
		return nil, d.fail(ctx, "issue", "delivery_failed", d.mapProviderError(err, entity.ErrDeliveryFailed))
	}

	token, err := d.jwt.Sign(in.Identity, sessionInfo)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign session token", "identity", in.Identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	d.count(ctx, d.issued, attribute.String("kind", entity.IdentityKindPhone.String()))

	return &IssueOutput{Token: token, ExpiresIn: int(d.ttl().Seconds())}, nil
}

func (d *Delegated) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := d.startSpan(ctx, "DelegatedVerify")
	defer span.End()

	in.Identity = entity.NormalizeIdentity(in.Identity)

	if err := d.validator.Validate(in); err != nil {
		return nil, d.fail(ctx, "verify", "invalid_input", goerror.NewInvalidInput(err))
	}

	claims, err := d.verifySession(ctx, in.Token, in.Identity)
	if err != nil {
		return nil, err
	}

	dctx, cancel := context.WithTimeout(ctx, d.deliveryTimeout())
	err = d.provider.VerifyCode(dctx, claims.Ref(), in.Code)
	cancel()
	if err != nil {
		slog.WarnContext(ctx, "provider rejected verification", "identity", in.Identity, "error", err)
		return nil, d.fail(ctx, "verify", "provider_rejected", d.mapProviderError(err, goerror.NewUnavailable(err, "Verification provider unavailable")))
	}

	return d.completeVerification(ctx, in.Identity)
}

func (d *Delegated) mapProviderError(err, fallback error) error {
	switch {
	case errors.Is(err, entity.ErrProviderCodeInvalid):
		return entity.ErrCodeInvalid
	case errors.Is(err, entity.ErrProviderSessionExpired):
		return entity.ErrChallengeExpired
	case errors.Is(err, entity.ErrProviderTooManyAttempts):
		return entity.ErrAttemptsExhausted
	case errors.Is(err, entity.ErrProviderIdentityRejected):
		return goerror.NewInvalidInput(nil, "identity", "identity was rejected by the provider")
	default:
		return fallback
	}
}
