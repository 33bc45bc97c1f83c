package passcode

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gopasscode/internal/passcode/inbound"
	"github.com/shandysiswandi/gopasscode/internal/passcode/outbound/cache"
	"github.com/shandysiswandi/gopasscode/internal/passcode/outbound/db"
	"github.com/shandysiswandi/gopasscode/internal/passcode/outbound/delivery"
	"github.com/shandysiswandi/gopasscode/internal/passcode/outbound/mq"
	"github.com/shandysiswandi/gopasscode/internal/passcode/outbound/provider"
	"github.com/shandysiswandi/gopasscode/internal/passcode/usecase"
	"github.com/shandysiswandi/gopasscode/internal/pkg/clock"
	"github.com/shandysiswandi/gopasscode/internal/pkg/config"
	"github.com/shandysiswandi/gopasscode/internal/pkg/goroutine"
	"github.com/shandysiswandi/gopasscode/internal/pkg/hash"
	"github.com/shandysiswandi/gopasscode/internal/pkg/instrument"
	"github.com/shandysiswandi/gopasscode/internal/pkg/jwt"
	"github.com/shandysiswandi/gopasscode/internal/pkg/mail"
	"github.com/shandysiswandi/gopasscode/internal/pkg/messaging"
	"github.com/shandysiswandi/gopasscode/internal/pkg/otp"
	"github.com/shandysiswandi/gopasscode/internal/pkg/router"
	"github.com/shandysiswandi/gopasscode/internal/pkg/sms"
	"github.com/shandysiswandi/gopasscode/internal/pkg/uid"
	"github.com/shandysiswandi/gopasscode/internal/pkg/validator"
)

// Backends selectable with modules.passcode.backend.
const (
	BackendLocal           = "local"
	BackendIdentityToolkit = "identitytoolkit"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.UniversalClient      `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	ULID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Code       otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`

	// Mail and SMS are optional; a channel routed to a missing client fails New.
	Mail mail.Mail
	SMS  sms.SMS
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDelivery, err := delivery.NewDelivery(delivery.Dependency{
		Config:    dep.Config,
		Mail:      dep.Mail,
		SMS:       dep.SMS,
		Publisher: dep.Messaging,
		Ins:       dep.Instrument,
	})
	if err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoCache:     cache.NewCache(dep.CacheConn, dep.Instrument),
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoDelivery:  repoDelivery,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Code:          dep.Code,
		UID:           dep.UID,
		ULID:          dep.ULID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	}

	backend := strings.ToLower(strings.TrimSpace(dep.Config.GetString("modules.passcode.backend")))
	switch backend {
	case "", BackendLocal:
		inbound.RegisterHTTPEndpoint(dep.Router, usecase.New(ucDep))
	case BackendIdentityToolkit:
		idt, err := provider.NewIdentityToolkit(ctx, provider.Config{
			APIKey:          dep.Config.GetString("google.api_key"),
			CredentialsJSON: dep.Config.GetBinary("google.credentials_json"),
		}, dep.Instrument)
		if err != nil {
			return err
		}
		inbound.RegisterHTTPEndpoint(dep.Router, usecase.NewDelegated(ucDep, idt))
	default:
		return fmt.Errorf("unknown passcode backend %q", backend)
	}

	return nil
}
