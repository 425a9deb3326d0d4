package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/ctxutil"
	"github.com/Spok95/eduhere-client/internal/logging"
	"github.com/Spok95/eduhere-client/internal/metrics"
	"github.com/Spok95/eduhere-client/internal/models"
)

// Manager is the only reader and writer of the session tokens.
type Manager struct {
	store Store
	log   *zap.Logger
}

func NewManager(store Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, log: log}
}

func (m *Manager) Store() Store { return m.store }

func (m *Manager) get(ctx context.Context, key string) (string, error) {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	v, err := m.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session get %s: %w", key, err)
	}
	return v, nil
}

func (m *Manager) set(ctx context.Context, key, value string) error {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	if err := m.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

// Load returns whatever is stored; absent keys come back empty.
func (m *Manager) Load(ctx context.Context) (models.Session, error) {
	var s models.Session
	var err error
	if s.AccessToken, err = m.get(ctx, KeyAccess); err != nil {
		return s, err
	}
	if s.RefreshToken, err = m.get(ctx, KeyRefresh); err != nil {
		return s, err
	}
	role, err := m.get(ctx, KeyRole)
	if err != nil {
		return s, err
	}
	s.Role, _ = models.ParseRole(role)
	return s, nil
}

func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	return m.get(ctx, KeyAccess)
}

func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	return m.get(ctx, KeyRefresh)
}

func (m *Manager) Role(ctx context.Context) (models.Role, error) {
	v, err := m.get(ctx, KeyRole)
	if err != nil {
		return "", err
	}
	r, _ := models.ParseRole(v)
	return r, nil
}

func (m *Manager) Save(ctx context.Context, s models.Session) error {
	if err := m.set(ctx, KeyAccess, s.AccessToken); err != nil {
		return err
	}
	if err := m.set(ctx, KeyRefresh, s.RefreshToken); err != nil {
		return err
	}
	if s.Role != "" {
		if err := m.set(ctx, KeyRole, string(s.Role)); err != nil {
			return err
		}
	}
	m.log.Debug("session saved", logging.Token("access", s.AccessToken), zap.String("role", string(s.Role)))
	return nil
}

func (m *Manager) SetAccessToken(ctx context.Context, tok string) error {
	if err := m.set(ctx, KeyAccess, tok); err != nil {
		return err
	}
	m.log.Debug("access token replaced", logging.Token("access", tok))
	return nil
}

// Clear removes all three keys and reports every failure.
func (m *Manager) Clear(ctx context.Context) error {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	var errs []error
	for _, k := range []string{KeyAccess, KeyRefresh, KeyRole} {
		if err := m.store.Remove(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("session remove %s: %w", k, err))
		}
	}
	m.log.Info("session cleared")
	return errors.Join(errs...)
}

// Ping checks the backing store. Local stores are always reachable.
func (m *Manager) Ping(ctx context.Context) error {
	p, ok := m.store.(Pinger)
	if !ok {
		return nil
	}
	start := time.Now()
	err := p.Ping(ctx)
	metrics.ObserveStorePing(time.Since(start))
	return err
}
