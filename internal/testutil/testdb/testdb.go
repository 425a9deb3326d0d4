//go:build testutil
// +build testutil

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Spok95/eduhere-client/internal/session"
)

type DBHandle struct {
	DB     *sql.DB
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	stopContainer(h.stop, h.cancel)
}

// Start runs postgres in a container and applies the session migrations.
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("eduhere"),
		postgres.WithUsername("eduhere"),
		postgres.WithPassword("eduhere"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	db, err := sql.Open("postgres", uri)
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}
	if err := waitReady(ctx, db); err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	if err := session.Migrate(ctx, db); err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	return &DBHandle{
		DB:     db,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

type RedisHandle struct {
	Addr   string
	cancel func()
	stop   func(context.Context) error
}

func (h *RedisHandle) Close() { stopContainer(h.stop, h.cancel) }

func StartRedis(ctx context.Context) (*RedisHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	addr, err := c.Endpoint(ctx, "")
	if err != nil {
		_ = c.Terminate(ctx)
		cancel()
		return nil, err
	}
	return &RedisHandle{Addr: addr, cancel: cancel, stop: c.Terminate}, nil
}

func stopContainer(stop func(context.Context) error, cancel func()) {
	if stop != nil {
		ctx, c := context.WithTimeout(context.Background(), 10*time.Second)
		defer c()
		_ = stop(ctx)
	}
	if cancel != nil {
		cancel()
	}
}

func waitReady(ctx context.Context, db *sql.DB) error {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}
