package app

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
	"github.com/shandysiswandi/gopasscode/internal/pkg/router"
)

type healthResponse struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func (healthResponse) Message() string { return "OK" }

type pinger interface {
	Ping(ctx context.Context) error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// checkHealth reports every dependency status and fails when any is down.
func checkHealth(ctx context.Context, database, cache pinger) (healthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp := healthResponse{Database: "up", Redis: "up"}
	dbErr := database.Ping(ctx)
	if dbErr != nil {
		resp.Database = "down"
	}
	cacheErr := cache.Ping(ctx)
	if cacheErr != nil {
		resp.Redis = "down"
	}

	if err := errors.Join(dbErr, cacheErr); err != nil {
		return resp, goerror.NewUnavailable(err, "Service unhealthy").
			WithMeta("database", resp.Database).
			WithMeta("redis", resp.Redis)
	}
	return resp, nil
}

func (a *App) health(r *router.Request) (any, error) {
	return checkHealth(r.Context(), a.dbConn, pingFunc(func(ctx context.Context) error {
		return a.cacheConn.Ping(ctx).Err()
	}))
}
