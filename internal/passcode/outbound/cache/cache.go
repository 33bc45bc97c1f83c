package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
	"github.com/shandysiswandi/gopasscode/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefixChallenge = "otp:"
	keyPrefixCooldown  = "otp_cooldown:"
)

// decrementScript spends one attempt of the challenge carrying ref without
// touching the TTL. A missing or replaced challenge yields a nil reply, and
// the challenge is removed once its budget reaches zero.
var decrementScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'ref') ~= ARGV[1] then
  return false
end
local n = redis.call('HINCRBY', KEYS[1], 'attempts', -1)
if n <= 0 then
  redis.call('DEL', KEYS[1])
end
return n
`)

// consumeScript deletes the challenge only if it still carries ref and has
// attempts left, so a code is accepted at most once.
var consumeScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'ref', 'attempts')
if v[1] == ARGV[1] and tonumber(v[2]) ~= nil and tonumber(v[2]) > 0 then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

type challengeRecord struct {
	Code      string `redis:"code"`
	Ref       string `redis:"ref"`
	Attempts  int    `redis:"attempts"`
	CreatedAt int64  `redis:"created_at"`
}

type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func challengeKey(identity string) string { return keyPrefixChallenge + identity }

func cooldownKey(identity string) string { return keyPrefixCooldown + identity }

func (c *Cache) mapError(err error) error {
	if errors.Is(err, redis.Nil) {
		return goerror.ErrNotFound
	}
	return err
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("passcode.outbound.cache").Start(ctx, name, trace.WithAttributes(attribute.String("db.system", "redis")))
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// PutChallenge replaces any record for the identity and starts a fresh TTL.
func (c *Cache) PutChallenge(ctx context.Context, ch entity.Challenge, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "PutChallenge")
	defer func() { c.endSpan(span, err) }()

	key := challengeKey(ch.Identity)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, challengeRecord{
			Code:      ch.CodeHash,
			Ref:       ch.Ref,
			Attempts:  ch.AttemptsRemaining,
			CreatedAt: ch.CreatedAt.UnixMilli(),
		})
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	return err
}

func (c *Cache) GetChallenge(ctx context.Context, identity string) (_ *entity.Challenge, err error) {
	ctx, span := c.startSpan(ctx, "GetChallenge")
	defer func() { c.endSpan(span, err) }()

	cmd := c.client.HGetAll(ctx, challengeKey(identity))
	values, err := cmd.Result()
	if err != nil {
		return nil, c.mapError(err)
	}
	if len(values) == 0 {
		return nil, goerror.ErrNotFound
	}

	var rec challengeRecord
	if err = cmd.Scan(&rec); err != nil {
		return nil, err
	}

	return &entity.Challenge{
		Identity:          identity,
		CodeHash:          rec.Code,
		Ref:               rec.Ref,
		AttemptsRemaining: rec.Attempts,
		CreatedAt:         time.UnixMilli(rec.CreatedAt),
	}, nil
}

// DecrementAttempts returns goerror.ErrNotFound when identity has no
// challenge or when it no longer carries ref.
func (c *Cache) DecrementAttempts(ctx context.Context, identity, ref string) (_ int, err error) {
	ctx, span := c.startSpan(ctx, "DecrementAttempts")
	defer func() { c.endSpan(span, err) }()

	n, err := decrementScript.Run(ctx, c.client, []string{challengeKey(identity)}, ref).Int()
	if err != nil {
		return 0, c.mapError(err)
	}
	return n, nil
}

func (c *Cache) ConsumeChallenge(ctx context.Context, identity, ref string) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "ConsumeChallenge")
	defer func() { c.endSpan(span, err) }()

	n, err := consumeScript.Run(ctx, c.client, []string{challengeKey(identity)}, ref).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteChallenge is idempotent.
func (c *Cache) DeleteChallenge(ctx context.Context, identity string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteChallenge")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, challengeKey(identity)).Err()
}

// AcquireResendCooldown reports false when a window is already open for identity.
func (c *Cache) AcquireResendCooldown(ctx context.Context, identity string, window time.Duration) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "AcquireResendCooldown")
	defer func() { c.endSpan(span, err) }()

	return c.client.SetNX(ctx, cooldownKey(identity), 1, window).Result()
}

// ReleaseResendCooldown closes the window early, e.g. after a failed issue.
func (c *Cache) ReleaseResendCooldown(ctx context.Context, identity string) (err error) {
	ctx, span := c.startSpan(ctx, "ReleaseResendCooldown")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, cooldownKey(identity)).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
