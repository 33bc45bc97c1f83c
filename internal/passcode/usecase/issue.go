package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

const issueSubject = "Your OTP Code"

type IssueInput struct {
	Identity string `validate:"required,identity"`
}

type IssueOutput struct {
	Token     string
	ExpiresIn int
}

func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	in.Identity = entity.NormalizeIdentity(in.Identity)

	if err := s.validator.Validate(in); err != nil {
		return nil, s.fail(ctx, "issue", "invalid_input", goerror.NewInvalidInput(err))
	}

	held, err := s.checkCooldown(ctx, in.Identity)
	if err != nil {
		return nil, err
	}

	out, err := s.issue(ctx, in.Identity)
	if err != nil && held {
		s.releaseCooldown(ctx, in.Identity)
	}
	return out, err
}

func (s *Usecase) issue(ctx context.Context, identity string) (*IssueOutput, error) {
	code, err := s.code.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "error", err)
		return nil, goerror.NewServer(err)
	}

	digest, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash passcode", "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.ttl()
	ch := entity.Challenge{
		Identity:          identity,
		CodeHash:          string(digest),
		Ref:               s.ulid.Generate(),
		AttemptsRemaining: s.maxAttempts(),
		CreatedAt:         s.clock.Now(),
	}

	sctx, cancel := s.withStoreTimeout(ctx)
	err = s.repoCache.PutChallenge(sctx, ch, ttl)
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo put challenge", "identity", identity, "error", err)
		return nil, s.fail(ctx, "issue", "store_unavailable", s.storeUnavailable(err))
	}

	kind := entity.KindOf(identity)
	dctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout())
	err = s.repoDelivery.Send(dctx, DeliveryMessage{
		Kind:        kind,
		Destination: identity,
		Subject:     issueSubject,
		Body:        fmt.Sprintf("Your OTP is %s. It expires in %d minutes.", code, int(ttl.Minutes())),
	})
	cancel()
	if err != nil {
		// the challenge stays; a new Issue overwrites it
		slog.ErrorContext(ctx, "failed to deliver passcode", "identity", identity, "kind", kind.String(), "error", err)
		return nil, s.fail(ctx, "issue", "delivery_failed", entity.ErrDeliveryFailed)
	}

	token, err := s.jwt.Sign(identity, ch.Ref)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign session token", "identity", identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.count(ctx, s.issued, attribute.String("kind", kind.String()))
	slog.InfoContext(ctx, "passcode issued", "identity", identity, "kind", kind.String())

	return &IssueOutput{Token: token, ExpiresIn: int(ttl.Seconds())}, nil
}
