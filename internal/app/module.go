package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gopasscode/internal/passcode"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.passcode.enabled") {
		if err := passcode.New(a.ctx, passcode.Dependency{
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			ULID:       a.ulid,
			HMAC:       a.hmac,
			Code:       a.code,
			Clock:      a.clock,
			Validator:  a.validator,
			JWT:        a.jwt,
			Mail:       a.mail,
			SMS:        a.sms,
		}); err != nil {
			slog.Error("failed to init module passcode", "error", err)
			os.Exit(1)
		}
	}
}
