package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/logging"
	"github.com/Spok95/eduhere-client/internal/metrics"
	"github.com/Spok95/eduhere-client/internal/session"
)

const DefaultRefreshPath = "/auth/refresh/"

// Refresher exchanges the stored refresh token for a new access token.
// Concurrent calls share one HTTP request.
type Refresher struct {
	url     string
	sess    *session.Manager
	hc      *http.Client
	log     *zap.Logger
	timeout time.Duration
	group   singleflight.Group
}

func NewRefresher(baseURL, path string, sess *session.Manager, hc *http.Client, log *zap.Logger) *Refresher {
	if path == "" {
		path = DefaultRefreshPath
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{
		url:     strings.TrimRight(baseURL, "/") + path,
		sess:    sess,
		hc:      hc,
		log:     log,
		timeout: 15 * time.Second,
	}
}

type refreshResponse struct {
	Access string `json:"access"`
}

// Refresh returns the new access token, already persisted.
// Errors: apierr.ErrNoRefreshToken, apierr.ErrRefreshRejected or *apierr.NetworkError.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	ch := r.group.DoChan("refresh", func() (any, error) {
		// detached so one caller giving up does not fail the others
		c, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.refresh(c)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (r *Refresher) refresh(ctx context.Context) (string, error) {
	rt, err := r.sess.RefreshToken(ctx)
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		return "", err
	}
	if rt == "" {
		metrics.Refreshes.WithLabelValues("no_token").Inc()
		return "", apierr.ErrNoRefreshToken
	}

	status, body, err := postJSON(ctx, r.hc, r.url, "", map[string]string{"refresh": rt})
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		r.log.Warn("refresh transport failure", zap.Error(err))
		return "", err
	}
	if !ok(status) {
		metrics.Refreshes.WithLabelValues("rejected").Inc()
		se := apierr.FromResponse(status, body)
		r.log.Warn("refresh rejected", zap.Int("status", status), zap.String("msg", se.Message))
		return "", apierr.RefreshRejected(status, se.Message)
	}
	var out refreshResponse
	if err := json.Unmarshal(body, &out); err != nil || out.Access == "" {
		metrics.Refreshes.WithLabelValues("rejected").Inc()
		return "", apierr.RefreshRejected(status, "no access token in response")
	}
	if err := r.sess.SetAccessToken(ctx, out.Access); err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.Refreshes.WithLabelValues("ok").Inc()
	r.log.Info("access token refreshed", logging.Token("access", out.Access))
	return out.Access, nil
}

// Terminal reports whether a refresh error means the session is over.
func Terminal(err error) bool {
	return errors.Is(err, apierr.ErrNoRefreshToken) || errors.Is(err, apierr.ErrRefreshRejected)
}
