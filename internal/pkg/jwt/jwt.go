package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the token is past its validity window.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed, tampered or signed
	// with another key.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingSubject is returned when signing without an identity.
	ErrMissingSubject = errors.New("token subject is required")
)

// DefaultTTL is the session token lifetime when Config.TTL is zero.
const DefaultTTL = 300 * time.Second

// JWT signs and verifies session tokens.
type JWT interface {
	// Sign creates a token for identity bound to the challenge ref.
	Sign(identity, ref string) (string, error)
	// Verify parses and validates the token and returns its claims.
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTL is the token lifetime.
	TTL time.Duration
	// Clock provides the current time source.
	Clock clocker
}

// Claims wraps the registered claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
}

// Identity returns the identity the token was issued for.
func (c Claims) Identity() string { return c.Subject }

// Ref returns the challenge reference the token is bound to.
func (c Claims) Ref() string { return c.ID }

// Symmetric implements JWT using HS512.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	parser    *jwt.Parser
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = wallClock{}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Clock.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audiences) > 0 {
		opts = append(opts, jwt.WithAudience(cfg.Audiences...))
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		parser:    jwt.NewParser(opts...),
	}, nil
}

// Sign creates a signed token for identity bound to ref.
func (s *Symmetric) Sign(identity, ref string) (string, error) {
	if identity == "" {
		return "", ErrMissingSubject
	}

	now := s.clock.Now()
	var aud jwt.ClaimStrings
	if len(s.audiences) > 0 {
		aud = s.audiences
	}

	return jwt.
		NewWithClaims(jwt.SigningMethodHS512, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        ref,
				Subject:   identity,
				Issuer:    s.issuer,
				Audience:  aud,
				IssuedAt:  jwt.NewNumericDate(now),
				NotBefore: jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			},
		}).
		SignedString(s.secret)
}

// Verify parses and validates a token. It returns ErrTokenExpired once the
// token is older than the configured TTL, even when its exp claim says
// otherwise, and ErrInvalidToken for every other failure.
func (s *Symmetric) Verify(token string) (Claims, error) {
	var claims Claims

	_, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	if s.clock.Now().Sub(claims.IssuedAt.Time) > s.ttl {
		return Claims{}, ErrTokenExpired
	}

	return claims, nil
}
