package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/clock"
	"github.com/shandysiswandi/gopasscode/internal/pkg/config"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goroutine"
	"github.com/shandysiswandi/gopasscode/internal/pkg/hash"
	"github.com/shandysiswandi/gopasscode/internal/pkg/instrument"
	"github.com/shandysiswandi/gopasscode/internal/pkg/jwt"
	"github.com/shandysiswandi/gopasscode/internal/pkg/otp"
	"github.com/shandysiswandi/gopasscode/internal/pkg/uid"
	"github.com/shandysiswandi/gopasscode/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTTL             = 300 * time.Second
	defaultMaxAttempts     = 5
	defaultStoreTimeout    = 2 * time.Second
	defaultDeliveryTimeout = 10 * time.Second
)

type UserVerifiedEvent struct {
	UserID     int64
	Identity   string
	IsNewUser  bool
	VerifiedAt time.Time
}

type DeliveryMessage struct {
	Kind        entity.IdentityKind
	Destination string
	Subject     string
	Body        string
}

type repoCache interface {
	PutChallenge(ctx context.Context, ch entity.Challenge, ttl time.Duration) error
	GetChallenge(ctx context.Context, identity string) (*entity.Challenge, error)
	DecrementAttempts(ctx context.Context, identity, ref string) (int, error)
	ConsumeChallenge(ctx context.Context, identity, ref string) (bool, error)
	DeleteChallenge(ctx context.Context, identity string) error
	AcquireResendCooldown(ctx context.Context, identity string, window time.Duration) (bool, error)
	ReleaseResendCooldown(ctx context.Context, identity string) error
}

type repoDB interface {
	FindOrCreateUser(ctx context.Context, id int64, identity string, at time.Time) (*entity.User, error)
}

type repoMessaging interface {
	PublishUserVerified(ctx context.Context, msg UserVerifiedEvent) error
}

type repoDelivery interface {
	Send(ctx context.Context, msg DeliveryMessage) error
}

type repoProvider interface {
	SendCode(ctx context.Context, phone string) (string, error)
	VerifyCode(ctx context.Context, sessionInfo, code string) error
}

type Usecase struct {
	repoCache     repoCache
	repoDB        repoDB
	repoMessaging repoMessaging
	repoDelivery  repoDelivery
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	code          otp.Generator
	uid           uid.NumberID
	ulid          uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	issued   metric.Int64Counter
	verified metric.Int64Counter
	failed   metric.Int64Counter
}

type Dependency struct {
	RepoCache     repoCache
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoDelivery  repoDelivery
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Code          otp.Generator
	UID           uid.NumberID
	ULID          uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoCache:     dep.RepoCache,
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoDelivery:  dep.RepoDelivery,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		code:          dep.Code,
		uid:           dep.UID,
		ulid:          dep.ULID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}

	meter := s.ins.Meter("passcode.usecase")
	s.issued = counter(meter, "passcode.issued", "Passcodes issued")
	s.verified = counter(meter, "passcode.verified", "Passcodes verified")
	s.failed = counter(meter, "passcode.failed", "Failed issue or verify attempts by outcome")

	return s
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
	}
	return c
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("passcode.usecase").Start(ctx, name)
}

func (s *Usecase) count(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// fail records a failed outcome and returns err unchanged.
func (s *Usecase) fail(ctx context.Context, op, outcome string, err error) error {
	s.count(ctx, s.failed, attribute.String("op", op), attribute.String("outcome", outcome))
	return err
}

func (s *Usecase) ttl() time.Duration {
	if d := s.cfg.GetSecond("modules.passcode.ttl_seconds"); d > 0 {
		return d
	}
	return defaultTTL
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("modules.passcode.max_attempts"); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

func (s *Usecase) storeTimeout() time.Duration {
	if d := s.cfg.GetSecond("modules.passcode.store_timeout_seconds"); d > 0 {
		return d
	}
	return defaultStoreTimeout
}

func (s *Usecase) deliveryTimeout() time.Duration {
	if d := s.cfg.GetSecond("modules.passcode.delivery_timeout_seconds"); d > 0 {
		return d
	}
	return defaultDeliveryTimeout
}

func (s *Usecase) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout())
}

func (s *Usecase) storeUnavailable(err error) error {
	return goerror.NewUnavailable(err, "Service temporarily unavailable. Please try again.")
}

// checkCooldown enforces the optional per-identity resend window. held
// reports whether this call opened the window.
func (s *Usecase) checkCooldown(ctx context.Context, identity string) (held bool, err error) {
	window := s.cfg.GetSecond("modules.passcode.resend_cooldown_seconds")
	if window <= 0 {
		return false, nil
	}

	sctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	ok, err := s.repoCache.AcquireResendCooldown(sctx, identity, window)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo acquire resend cooldown", "identity", identity, "error", err)
		return false, s.fail(ctx, "issue", "store_unavailable", s.storeUnavailable(err))
	}
	if !ok {
		slog.WarnContext(ctx, "passcode requested inside resend cooldown", "identity", identity)
		return false, s.fail(ctx, "issue", "cooldown", entity.ErrResendTooSoon.WithMeta("retry_after_seconds", int(window.Seconds())))
	}

	return true, nil
}

// releaseCooldown reopens issuing for identity after a failed attempt.
func (s *Usecase) releaseCooldown(ctx context.Context, identity string) {
	sctx, cancel := s.withStoreTimeout(context.WithoutCancel(ctx))
	defer cancel()

	if err := s.repoCache.ReleaseResendCooldown(sctx, identity); err != nil {
		slog.WarnContext(ctx, "failed to repo release resend cooldown", "identity", identity, "error", err)
	}
}

// verifySession checks the session token and binds it to identity.
func (s *Usecase) verifySession(ctx context.Context, token, identity string) (jwt.Claims, error) {
	claims, err := s.jwt.Verify(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			slog.WarnContext(ctx, "session token expired", "identity", identity)
			return jwt.Claims{}, s.fail(ctx, "verify", "session_expired", entity.ErrSessionExpired)
		}
		slog.WarnContext(ctx, "session token rejected", "identity", identity, "error", err)
		return jwt.Claims{}, s.fail(ctx, "verify", "session_invalid", entity.ErrSessionInvalid)
	}

	if claims.Identity() != identity {
		slog.WarnContext(ctx, "session token issued for another identity", "identity", identity)
		return jwt.Claims{}, s.fail(ctx, "verify", "session_invalid", entity.ErrSessionInvalid)
	}

	return claims, nil
}

// completeVerification resolves the user and announces the verification.
func (s *Usecase) completeVerification(ctx context.Context, identity string) (*VerifyOutput, error) {
	now := s.clock.Now()

	user, err := s.repoDB.FindOrCreateUser(ctx, s.uid.Generate(), identity, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find or create user", "identity", identity, "error", err)
		return nil, s.fail(ctx, "verify", "user_store", goerror.NewServer(err))
	}

	ev := UserVerifiedEvent{
		UserID:     user.ID,
		Identity:   identity,
		IsNewUser:  user.IsNew,
		VerifiedAt: now,
	}
	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishUserVerified(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish user verified", "user_id", ev.UserID, "error", err)
			return err
		}
		return nil
	})

	s.count(ctx, s.verified, attribute.Bool("is_new_user", user.IsNew))
	slog.InfoContext(ctx, "passcode verified", "user_id", user.ID, "is_new_user", user.IsNew)

	return &VerifyOutput{UserID: user.ID, IsNewUser: user.IsNew}, nil
}
