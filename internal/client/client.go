package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/ctxutil"
	"github.com/Spok95/eduhere-client/internal/logging"
	"github.com/Spok95/eduhere-client/internal/metrics"
	"github.com/Spok95/eduhere-client/internal/observability"
	"github.com/Spok95/eduhere-client/internal/session"
)

// TokenRefresher is satisfied by *auth.Refresher.
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Client issues authenticated requests. A 401 leads to at most one
// refresh and one retry of the same request. Safe for concurrent use.
type Client struct {
	base         string
	sess         *session.Manager
	refresher    TokenRefresher
	hc           *http.Client
	log          *zap.Logger
	userAgent    string
	onExpired    func(error)
	onTransition func(Transition)
}

func New(baseURL string, sess *session.Manager, refresher TokenRefresher, opts ...Option) *Client {
	c := &Client{
		base:      strings.TrimRight(baseURL, "/"),
		sess:      sess,
		refresher: refresher,
		hc:        &http.Client{Timeout: ctxutil.DefaultRequestTimeout},
		log:       zap.NewNop(),
		userAgent: "eduhere-client",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.base }

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	id, ok := ctxutil.RequestID(ctx)
	if !ok {
		id = uuid.NewString()
		ctx = ctxutil.WithRequestID(ctx, id)
	}
	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = b
	}

	start := time.Now()
	resp, outcome, err := c.run(ctx, id, req, body)
	metrics.ObserveRequest(req.Method, outcome, time.Since(start))
	if err != nil {
		if observability.CaptureSystemErr(ctx, err) {
			c.log.Error("request failed", c.fields(ctx, id, req, zap.Error(err))...)
		} else {
			c.log.Debug("request failed", c.fields(ctx, id, req, zap.Error(err))...)
		}
	}
	return resp, err
}

func (c *Client) run(ctx context.Context, id string, req Request, body []byte) (*Response, string, error) {
	tok, err := c.sess.AccessToken(ctx)
	if err != nil {
		return nil, "store_error", err
	}

	var resp *Response
	if tok != "" {
		c.trace(id, req, 1, Idle, Sent)
		resp, err = c.send(ctx, req, body, tok, id)
		if err != nil {
			c.trace(id, req, 1, Sent, Failed)
			return nil, errOutcome(ctx, err), err
		}
		if resp.Status != http.StatusUnauthorized {
			return c.finish(id, req, 1, resp)
		}
	}
	if tok == "" {
		// no token is handled like a 401
		c.trace(id, req, 1, Idle, Unauthorized)
	} else {
		c.trace(id, req, 1, Sent, Unauthorized)
	}

	newTok, err := c.renew(ctx, tok)
	if err != nil {
		if errors.Is(err, apierr.ErrNoRefreshToken) || errors.Is(err, apierr.ErrRefreshRejected) {
			expired := apierr.SessionExpired(err)
			if cerr := c.sess.Clear(ctx); cerr != nil {
				c.log.Warn("clear session", zap.Error(cerr))
			}
			c.log.Info("session expired", c.fields(ctx, id, req, zap.Error(err))...)
			if c.onExpired != nil {
				c.onExpired(expired)
			}
			return nil, "session_expired", expired
		}
		return nil, errOutcome(ctx, err), err
	}

	metrics.Retries.Inc()
	c.trace(id, req, 2, Idle, Sent)
	resp, err = c.send(ctx, req, body, newTok, id)
	if err != nil {
		c.trace(id, req, 2, Sent, Failed)
		return nil, errOutcome(ctx, err), err
	}
	if resp.Status == http.StatusUnauthorized {
		c.trace(id, req, 2, Sent, Failed)
		return nil, "unauthorized", apierr.ErrUnauthorized
	}
	return c.finish(id, req, 2, resp)
}

// renew returns a fresh access token. If another request already refreshed
// since sent was read, the stored token is reused without a new refresh.
func (c *Client) renew(ctx context.Context, sent string) (string, error) {
	cur, err := c.sess.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	if cur != "" && cur != sent {
		c.log.Debug("token already refreshed", logging.Token("access", cur))
		return cur, nil
	}
	if c.refresher == nil {
		return "", apierr.ErrNoRefreshToken
	}
	return c.refresher.Refresh(ctx)
}

func (c *Client) finish(id string, req Request, attempt int, resp *Response) (*Response, string, error) {
	if resp.Status >= 200 && resp.Status < 300 {
		c.trace(id, req, attempt, Sent, Success)
		if attempt > 1 {
			return resp, "retried", nil
		}
		return resp, "success", nil
	}
	c.trace(id, req, attempt, Sent, Failed)
	return nil, "server_error", apierr.FromResponse(resp.Status, resp.Body)
}

func (c *Client) send(ctx context.Context, req Request, body []byte, tok, id string) (*Response, error) {
	u := c.base + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, u, rd)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	hr.Header.Set("Authorization", "Bearer "+tok)
	hr.Header.Set("X-Request-ID", id)
	hr.Header.Set("Accept", "application/json")
	if body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		hr.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.hc.Do(hr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apierr.NetworkError{Op: req.Method + " " + req.Path, Err: err}
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apierr.NetworkError{Op: req.Method + " " + req.Path, Err: err}
	}
	return &Response{Status: res.StatusCode, Header: res.Header, Body: b}, nil
}

func (c *Client) trace(id string, req Request, attempt int, from, to State) {
	if c.onTransition != nil {
		c.onTransition(Transition{RequestID: id, Method: req.Method, Path: req.Path, Attempt: attempt, From: from, To: to})
	}
}

func (c *Client) fields(ctx context.Context, id string, req Request, extra ...zap.Field) []zap.Field {
	f := logging.Request(ctxutil.WithRequestID(ctx, id))
	f = append(f, zap.String("method", req.Method), zap.String("path", req.Path))
	return append(f, extra...)
}

func errOutcome(ctx context.Context, err error) string {
	var ne *apierr.NetworkError
	switch {
	case ctx.Err() != nil:
		return "canceled"
	case errors.As(err, &ne):
		return "network_error"
	}
	return "error"
}

func (c *Client) GetJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: in})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: in})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) DeleteJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}
