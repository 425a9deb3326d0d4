package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/metrics"
	"github.com/Spok95/eduhere-client/internal/models"
)

type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "disconnected"
}

const UpdateType = "attendance_update"

type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Subscriber keeps one websocket to the attendance feed open, reconnecting
// with exponential backoff.
type Subscriber struct {
	url       string
	tokens    TokenSource
	refresher TokenRefresher
	dialer    *websocket.Dialer
	log       *zap.Logger
	onState   func(ConnState)

	initial, ceiling time.Duration
	state            atomic.Int32
}

type Option func(*Subscriber)

func WithDialer(d *websocket.Dialer) Option { return func(s *Subscriber) { s.dialer = d } }
func WithLogger(l *zap.Logger) Option { return func(s *Subscriber) { s.log = l } }
func OnState(fn func(ConnState)) Option { return func(s *Subscriber) { s.onState = fn } }

// WithBackoff overrides the 500ms..30s reconnect delays.
func WithBackoff(initial, ceiling time.Duration) Option {
	return func(s *Subscriber) { s.initial, s.ceiling = initial, ceiling }
}

func NewSubscriber(wsURL string, tokens TokenSource, refresher TokenRefresher, opts ...Option) *Subscriber {
	s := &Subscriber{
		url:       wsURL,
		tokens:    tokens,
		refresher: refresher,
		dialer:    websocket.DefaultDialer,
		log:       zap.NewNop(),
		initial:   500 * time.Millisecond,
		ceiling:   30 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Subscriber) State() ConnState { return ConnState(s.state.Load()) }

func (s *Subscriber) setState(st ConnState) {
	if ConnState(s.state.Swap(int32(st))) == st {
		return
	}
	metrics.WSState.Set(float64(st))
	s.log.Debug("ws state", zap.Stringer("state", st))
	if s.onState != nil {
		s.onState(st)
	}
}

func (s *Subscriber) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initial
	b.MaxInterval = s.ceiling
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Run delivers updates to out until ctx ends or the session expires.
func (s *Subscriber) Run(ctx context.Context, out chan<- models.AttendanceUpdate) error {
	defer s.setState(Disconnected)
	b := s.newBackoff()
	for {
		err := s.session(ctx, out, b)
		s.setState(Disconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, apierr.ErrSessionExpired) {
			return err
		}
		wait := b.NextBackOff()
		s.log.Info("ws reconnecting", zap.Error(err), zap.Duration("in", wait))
		metrics.WSReconnects.Inc()
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// session dials once (plus one retry after a refresh on 401) and reads
// until the connection drops.
func (s *Subscriber) session(ctx context.Context, out chan<- models.AttendanceUpdate, b backoff.BackOff) error {
	s.setState(Connecting)
	conn, err := s.dial(ctx, false)
	if err != nil {
		return err
	}
	defer conn.Close()
	s.setState(Connected)
	b.Reset()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		u, ok := s.decode(data)
		if !ok {
			continue
		}
		select {
		case out <- u:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Subscriber) dial(ctx context.Context, refreshed bool) (*websocket.Conn, error) {
	tok, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", tok)
	u.RawQuery = q.Encode()

	conn, resp, err := s.dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err == nil {
		return conn, nil
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized || refreshed || s.refresher == nil {
		return nil, err
	}
	s.log.Info("ws handshake unauthorized, refreshing")
	if _, rerr := s.refresher.Refresh(ctx); rerr != nil {
		if errors.Is(rerr, apierr.ErrNoRefreshToken) || errors.Is(rerr, apierr.ErrRefreshRejected) {
			return nil, apierr.SessionExpired(rerr)
		}
		return nil, rerr
	}
	return s.dial(ctx, true)
}

func (s *Subscriber) decode(data []byte) (models.AttendanceUpdate, bool) {
	var u models.AttendanceUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		s.log.Warn("ws malformed frame", zap.Error(err), zap.Int("len", len(data)))
		return u, false
	}
	if u.Type != UpdateType {
		s.log.Debug("ws ignoring message", zap.String("type", u.Type))
		return u, false
	}
	u.Status = string(u.Normalized())
	metrics.WSEvents.WithLabelValues(u.Status).Inc()
	return u, true
}
