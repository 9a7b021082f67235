package db

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect создаёт пул подключений к Postgres. Первое подключение повторяется,
// пока база поднимается вместе с ботом.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 5

	var pool *pgxpool.Pool
	err = retry.Do(
		func() error {
			connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			p, err := pgxpool.NewWithConfig(connectCtx, cfg)
			if err != nil {
				return err
			}
			if err := p.Ping(connectCtx); err != nil {
				p.Close()
				return err
			}
			pool = p
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return pool, nil
}
