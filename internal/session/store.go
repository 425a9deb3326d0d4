package session

import (
	"context"
	"errors"
)

// Keys kept in every store.
const (
	KeyAccess  = "access_token"
	KeyRefresh = "refresh_token"
	KeyRole    = "user_role"
)

var ErrNotFound = errors.New("session: key not found")

// Store is a plain key/value persistence for the session. Last write wins.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
