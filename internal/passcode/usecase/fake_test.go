package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/pkg/clock"
	"github.com/shandysiswandi/gopasscode/internal/pkg/config"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goroutine"
	"github.com/shandysiswandi/gopasscode/internal/pkg/hash"
	"github.com/shandysiswandi/gopasscode/internal/pkg/instrument"
	"github.com/shandysiswandi/gopasscode/internal/pkg/jwt"
	"github.com/shandysiswandi/gopasscode/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

// fakeCache is an in-memory challenge store. Every operation runs under one
// lock, so it is linearizable like the Redis scripts it stands in for.
type fakeCache struct {
	mu        sync.Mutex
	clock     clock.Clocker
	items     map[string]entity.Challenge
	expiry    map[string]time.Time
	cooldowns map[string]time.Time
	down      bool
	gets      int
	afterGet  func()
}

func newFakeCache(clk clock.Clocker) *fakeCache {
	return &fakeCache{
		clock:     clk,
		items:     map[string]entity.Challenge{},
		expiry:    map[string]time.Time{},
		cooldowns: map[string]time.Time{},
	}
}

func (f *fakeCache) live(identity string) (entity.Challenge, bool) {
	ch, ok := f.items[identity]
	if !ok {
		return entity.Challenge{}, false
	}
	if !f.clock.Now().Before(f.expiry[identity]) {
		delete(f.items, identity)
		return entity.Challenge{}, false
	}
	return ch, true
}

func (f *fakeCache) PutChallenge(_ context.Context, ch entity.Challenge, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	f.items[ch.Identity] = ch
	f.expiry[ch.Identity] = f.clock.Now().Add(ttl)
	return nil
}

func (f *fakeCache) GetChallenge(_ context.Context, identity string) (*entity.Challenge, error) {
	ch, err := f.get(identity)
	if f.afterGet != nil {
		f.afterGet()
	}
	return ch, err
}

func (f *fakeCache) get(identity string) (*entity.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.down {
		return nil, errStoreDown
	}
	ch, ok := f.live(identity)
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &ch, nil
}

func (f *fakeCache) DecrementAttempts(_ context.Context, identity, ref string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return 0, errStoreDown
	}
	ch, ok := f.live(identity)
	if !ok || ch.Ref != ref {
		return 0, goerror.ErrNotFound
	}
	ch.AttemptsRemaining--
	f.items[identity] = ch
	if ch.AttemptsRemaining <= 0 {
		delete(f.items, identity)
	}
	return ch.AttemptsRemaining, nil
}

func (f *fakeCache) ConsumeChallenge(_ context.Context, identity, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false, errStoreDown
	}
	ch, ok := f.live(identity)
	if !ok || ch.Ref != ref || ch.AttemptsRemaining <= 0 {
		return false, nil
	}
	delete(f.items, identity)
	return true, nil
}

func (f *fakeCache) DeleteChallenge(_ context.Context, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	delete(f.items, identity)
	return nil
}

func (f *fakeCache) AcquireResendCooldown(_ context.Context, identity string, window time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false, errStoreDown
	}
	if until, ok := f.cooldowns[identity]; ok && f.clock.Now().Before(until) {
		return false, nil
	}
	f.cooldowns[identity] = f.clock.Now().Add(window)
	return true, nil
}

func (f *fakeCache) ReleaseResendCooldown(_ context.Context, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	delete(f.cooldowns, identity)
	return nil
}

func (f *fakeCache) challenge(identity string) (entity.Challenge, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live(identity)
}

type fakeDB struct {
	mu    sync.Mutex
	users map[string]entity.User
	err   error
}

func (f *fakeDB) FindOrCreateUser(_ context.Context, id int64, identity string, at time.Time) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[identity]; ok {
		u.IsNew = false
		u.LastVerifiedAt = at
		f.users[identity] = u
		return &u, nil
	}
	u := entity.User{ID: id, Identity: identity, IsNew: true, CreatedAt: at, LastVerifiedAt: at}
	f.users[identity] = u
	return &u, nil
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []UserVerifiedEvent
}

func (f *fakeMessaging) PublishUserVerified(_ context.Context, msg UserVerifiedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return nil
}

type fakeDelivery struct {
	mu   sync.Mutex
	sent []DeliveryMessage
	err  error
}

func (f *fakeDelivery) Send(_ context.Context, msg DeliveryMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// lastCode pulls the code out of the most recent message body.
func (f *fakeDelivery) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	body := f.sent[len(f.sent)-1].Body
	fields := strings.Fields(strings.TrimPrefix(body, "Your OTP is "))
	require.NotEmpty(t, fields)
	return strings.TrimSuffix(fields[0], ".")
}

type seqCode struct {
	mu    sync.Mutex
	codes []string
}

func (s *seqCode) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return "", errors.New("no more codes")
	}
	c := s.codes[0]
	s.codes = s.codes[1:]
	return c, nil
}

type counterID struct {
	mu sync.Mutex
	n  int64
}

func (c *counterID) Generate() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

type seqRef struct {
	mu sync.Mutex
	n  int
}

func (s *seqRef) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "ref-" + strings.Repeat("x", s.n)
}

type harness struct {
	uc       *Usecase
	clock    *clock.Manual
	cache    *fakeCache
	db       *fakeDB
	msg      *fakeMessaging
	delivery *fakeDelivery
	codes    *seqCode
	gm       *goroutine.Manager
	dep      Dependency
}

const testConfig = `
modules:
  passcode:
    ttl_seconds: 300
    max_attempts: 5
    store_timeout_seconds: 1
    delivery_timeout_seconds: 1
    resend_cooldown_seconds: %d
`

func newHarness(t *testing.T, cooldown int, codes ...string) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(fmt.Sprintf(testConfig, cooldown)))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	hm, err := hash.NewHMACSHA256("test-hmac-secret")
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	codec, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("k", 64)),
		Issuer: "gopasscode",
		TTL:    300 * time.Second,
		Clock:  clk,
	})
	require.NoError(t, err)

	if len(codes) == 0 {
		codes = []string{"123456"}
	}

	h := &harness{
		clock:    clk,
		cache:    newFakeCache(clk),
		db:       &fakeDB{users: map[string]entity.User{}},
		msg:      &fakeMessaging{},
		delivery: &fakeDelivery{},
		codes:    &seqCode{codes: codes},
		gm:       goroutine.NewManager(10),
	}
	h.dep = Dependency{
		RepoCache:     h.cache,
		RepoDB:        h.db,
		RepoMessaging: h.msg,
		RepoDelivery:  h.delivery,
		Validator:     v,
		Config:        cfg,
		HMAC:          hm,
		Code:          h.codes,
		UID:           &counterID{},
		ULID:          &seqRef{},
		Clock:         clk,
		JWT:           codec,
		Instrument:    instrument.NewNoop(),
		Goroutine:     h.gm,
	}
	h.uc = New(h.dep)

	return h
}
