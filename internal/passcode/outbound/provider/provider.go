package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const scopeFirebase = "https://www.googleapis.com/auth/firebase"

type Config struct {
	// APIKey authenticates with a web API key.
	APIKey string
	// CredentialsJSON is a service account key used when APIKey is empty.
	CredentialsJSON []byte
	// ClientOptions are appended after the auth options.
	ClientOptions []option.ClientOption
}

// IdentityToolkit sends and checks phone codes through Google Identity Toolkit.
type IdentityToolkit struct {
	svc *identitytoolkit.Service
	ins instrument.Instrumentation
}

func NewIdentityToolkit(ctx context.Context, cfg Config, ins instrument.Instrumentation) (*IdentityToolkit, error) {
	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case len(cfg.CredentialsJSON) > 0:
		creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, identitytoolkit.CloudPlatformScope, scopeFirebase)
		if err != nil {
			return nil, fmt.Errorf("identity toolkit credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	opts = append(opts, cfg.ClientOptions...)

	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &IdentityToolkit{svc: svc, ins: ins}, nil
}

func (p *IdentityToolkit) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.ins.Tracer("passcode.outbound.provider").Start(ctx, name)
}

func (p *IdentityToolkit) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SendCode asks the provider to text a code to phone and returns the
// session info that later identifies the verification.
func (p *IdentityToolkit) SendCode(ctx context.Context, phone string) (_ string, err error) {
	ctx, span := p.startSpan(ctx, "SendCode")
	defer func() { p.endSpan(span, err) }()

	resp, err := p.svc.Relyingparty.SendVerificationCode(&identitytoolkit.IdentitytoolkitRelyingpartySendVerificationCodeRequest{
		PhoneNumber: phone,
	}).Context(ctx).Do()
	if err != nil {
		return "", mapError(err)
	}
	if resp.SessionInfo == "" {
		return "", errors.New("identity toolkit: empty session info")
	}

	return resp.SessionInfo, nil
}

func (p *IdentityToolkit) VerifyCode(ctx context.Context, sessionInfo, code string) (err error) {
	ctx, span := p.startSpan(ctx, "VerifyCode")
	defer func() { p.endSpan(span, err) }()

	_, err = p.svc.Relyingparty.VerifyPhoneNumber(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPhoneNumberRequest{
		SessionInfo: sessionInfo,
		Code:        code,
	}).Context(ctx).Do()
	return mapError(err)
}

// mapError turns provider error reasons into entity sentinels. The reason is
// the leading token of the message, e.g. "TOO_MANY_ATTEMPTS_TRY_LATER : ...".
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return err
	}

	reason := gErr.Message
	for _, item := range gErr.Errors {
		if item.Message != "" {
			reason += " " + item.Message
		}
	}

	switch {
	case strings.Contains(reason, "INVALID_CODE"):
		return fmt.Errorf("%w: %w", entity.ErrProviderCodeInvalid, err)
	case strings.Contains(reason, "SESSION_EXPIRED"), strings.Contains(reason, "CODE_EXPIRED"):
		return fmt.Errorf("%w: %w", entity.ErrProviderSessionExpired, err)
	case strings.Contains(reason, "TOO_MANY_ATTEMPTS_TRY_LATER"), strings.Contains(reason, "QUOTA_EXCEEDED"):
		return fmt.Errorf("%w: %w", entity.ErrProviderTooManyAttempts, err)
	case strings.Contains(reason, "INVALID_PHONE_NUMBER"), strings.Contains(reason, "MISSING_PHONE_NUMBER"):
		return fmt.Errorf("%w: %w", entity.ErrProviderIdentityRejected, err)
	}

	return err
}
