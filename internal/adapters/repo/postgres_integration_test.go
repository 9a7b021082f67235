//go:build integration

package repo

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/db"
)

// Запуск: PG_TEST_DSN=postgres://... go test -tags integration ./internal/adapters/repo/
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN не задан")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool, zerolog.Nop()))

	runStoreContract(t, func(t *testing.T) domain.Store {
		_, err := pool.Exec(ctx, `TRUNCATE tracked_users, warnings, mutes RESTART IDENTITY`)
		require.NoError(t, err)
		return NewPostgres(pool)
	})
}
