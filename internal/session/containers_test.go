//go:build testutil
// +build testutil

package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/eduhere-client/internal/session"
	"github.com/Spok95/eduhere-client/internal/testutil/testdb"
)

func TestPGStore(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatalf("start db: %v", err)
	}
	defer h.Close()

	s := session.NewPGStore(h.DB)
	if err := s.Set(ctx, session.KeyAccess, "a1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, session.KeyAccess, "a2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if v, err := s.Get(ctx, session.KeyAccess); err != nil || v != "a2" {
		t.Fatalf("expected a2, got %q (%v)", v, err)
	}
	if err := s.Remove(ctx, session.KeyAccess); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Get(ctx, session.KeyAccess); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := session.NewManager(s, nil).Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.StartRedis(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer h.Close()

	a := session.DialRedis(h.Addr, "", "agent")
	b := session.DialRedis(h.Addr, "", "other")
	defer a.Close()
	defer b.Close()

	if err := a.Set(ctx, session.KeyRefresh, "r1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := a.Get(ctx, session.KeyRefresh); err != nil || v != "r1" {
		t.Fatalf("expected r1, got %q (%v)", v, err)
	}
	if _, err := b.Get(ctx, session.KeyRefresh); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("namespaces must not share keys, got %v", err)
	}
	if err := a.Remove(ctx, session.KeyRefresh); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := a.Get(ctx, session.KeyRefresh); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
