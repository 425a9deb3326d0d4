package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/models"
)

const MaxRetriesMessage = "Max retries reached. Please check your connection or contact support."

var ErrRetryBudget = errors.New(MaxRetriesMessage)

// Banner is what a screen shows in place of its content.
type Banner struct {
	Message       string
	CanRetry      bool
	LoginRequired bool
}

func (b Banner) Empty() bool { return b.Message == "" }

// RoleError is returned when the stored session belongs to another role.
type RoleError struct {
	Want models.Role
	Have models.Role
}

func (e *RoleError) Error() string {
	article := "a "
	if e.Want == models.Admin {
		article = "an "
	}
	return "Please log in as " + article + string(e.Want) + "."
}

// RoleReader is satisfied by *session.Manager.
type RoleReader interface {
	Role(ctx context.Context) (models.Role, error)
}

// RequireRole builds a Loader guard that refuses to fetch for other roles.
func RequireRole(r RoleReader, want models.Role) func(context.Context) error {
	return func(ctx context.Context) error {
		have, err := r.Role(ctx)
		if err != nil {
			return err
		}
		if have != want {
			return &RoleError{Want: want, Have: have}
		}
		return nil
	}
}

// Loader runs a screen's fetch with the banner and retry-budget rules:
// manual retries are limited, a success or a refresh resets the budget,
// an expired session asks for login.
type Loader[T any] struct {
	fetch      func(context.Context) (T, error)
	guard      func(context.Context) error
	maxRetries int
	log        *zap.Logger

	mu      sync.Mutex
	retries int
	data    T
	banner  Banner
	loaded  bool
}

func NewLoader[T any](fetch func(context.Context) (T, error), maxRetries int, log *zap.Logger) *Loader[T] {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader[T]{fetch: fetch, maxRetries: maxRetries, log: log}
}

// WithGuard runs g before every fetch.
func (l *Loader[T]) WithGuard(g func(context.Context) error) *Loader[T] {
	l.guard = g
	return l
}

// Load is the first fetch of the screen.
func (l *Loader[T]) Load(ctx context.Context) (T, error) {
	return l.do(ctx)
}

// Retry is the banner's retry button.
func (l *Loader[T]) Retry(ctx context.Context) (T, error) {
	l.mu.Lock()
	if l.retries >= l.maxRetries {
		l.banner = Banner{Message: MaxRetriesMessage}
		data := l.data
		l.mu.Unlock()
		return data, ErrRetryBudget
	}
	l.retries++
	l.mu.Unlock()
	return l.do(ctx)
}

// Refresh is pull-to-refresh: it resets the budget.
func (l *Loader[T]) Refresh(ctx context.Context) (T, error) {
	l.mu.Lock()
	l.retries = 0
	l.mu.Unlock()
	return l.do(ctx)
}

func (l *Loader[T]) Banner() Banner {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.banner
}

func (l *Loader[T]) Retries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retries
}

// Data is the last successful result; ok is false before the first success.
func (l *Loader[T]) Data() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data, l.loaded
}

func (l *Loader[T]) do(ctx context.Context) (T, error) {
	var zero T
	if l.guard != nil {
		if err := l.guard(ctx); err != nil {
			l.fail(err)
			return zero, err
		}
	}
	data, err := l.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return zero, err
		}
		l.fail(err)
		return zero, err
	}
	l.mu.Lock()
	l.data, l.loaded = data, true
	l.retries = 0
	l.banner = Banner{}
	l.mu.Unlock()
	return data, nil
}

func (l *Loader[T]) fail(err error) {
	b := BannerFor(err)
	l.mu.Lock()
	if b.CanRetry && l.retries >= l.maxRetries {
		b.CanRetry = false
	}
	l.banner = b
	l.mu.Unlock()
	l.log.Debug("screen load failed", zap.Error(err), zap.String("banner", b.Message))
}

// BannerFor maps an error onto the banner a screen shows.
func BannerFor(err error) Banner {
	var re *RoleError
	var ve *apierr.ValidationError
	switch {
	case err == nil:
		return Banner{}
	case errors.As(err, &re):
		return Banner{Message: re.Error(), LoginRequired: true}
	case errors.Is(err, apierr.ErrSessionExpired), errors.Is(err, apierr.ErrUnauthorized):
		return Banner{Message: apierr.UserMessage(err), LoginRequired: true}
	case errors.As(err, &ve):
		return Banner{Message: apierr.UserMessage(err)}
	}
	return Banner{Message: apierr.UserMessage(err), CanRetry: apierr.IsSystem(err)}
}
