package session

import (
	"context"
	"fmt"

	"github.com/Spok95/eduhere-client/internal/config"
)

// Open builds the store named by TOKEN_STORE. The returned close func is never nil.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.TokenStore {
	case "memory":
		return NewMemoryStore(), noop, nil
	case "file", "":
		return NewFileStore(cfg.TokenFile), noop, nil
	case "redis":
		s := DialRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisNamespace)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, noop, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return s, s.Close, nil
	case "postgres":
		s, err := OpenPG(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres: %w", err)
		}
		return s, s.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown token store %q", cfg.TokenStore)
}
