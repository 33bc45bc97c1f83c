//go:build integration

package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gopasscode/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestIntegration_FindOrCreateUser(t *testing.T) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("gopasscode"),
		postgres.WithUsername("gopasscode"),
		postgres.WithPassword("gopasscode"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, Migrate(dsn))
	require.NoError(t, Migrate(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewDB(pool, instrument.NewNoop())
	at := time.Now().UTC().Truncate(time.Microsecond)

	first, err := s.FindOrCreateUser(ctx, 1, "a@example.com", at)
	require.NoError(t, err)
	assert.True(t, first.IsNew)

	second, err := s.FindOrCreateUser(ctx, 2, "a@example.com", at.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, int64(1), second.ID)
	assert.True(t, second.LastVerifiedAt.After(first.LastVerifiedAt))

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[int64]int{}
		created int
	)
	for i := range 8 {
		wg.Go(func() {
			u, err := s.FindOrCreateUser(ctx, int64(100+i), "race@example.com", at)
			if err != nil {
				return
			}
			mu.Lock()
			ids[u.ID]++
			if u.IsNew {
				created++
			}
			mu.Unlock()
		})
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)
}
