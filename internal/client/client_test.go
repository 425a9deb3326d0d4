package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/auth"
	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/session"
)

// backend accepts only the access token "new" and hands it out on refresh.
type backend struct {
	t             *testing.T
	sess          *session.Manager
	refreshHits   int32
	apiHits       int32
	rejectAll     atomic.Bool // second attempt also 401
	rejectRefresh atomic.Bool
	refreshDelay  atomic.Int64

	mu         sync.Mutex
	requestIDs []string
	bodies     []string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/refresh/":
		atomic.AddInt32(&b.refreshHits, 1)
		time.Sleep(time.Duration(b.refreshDelay.Load()))
		if b.rejectRefresh.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is blacklisted","code":"token_not_valid"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access":"new"}`))
	case "/api/student/grades/", "/api/grades/add/":
		atomic.AddInt32(&b.apiHits, 1)
		raw, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requestIDs = append(b.requestIDs, r.Header.Get("X-Request-ID"))
		b.bodies = append(b.bodies, string(raw))
		b.mu.Unlock()
		if b.rejectAll.Load() || r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		// the new token must already be stored when the retry arrives
		if tok, _ := b.sess.AccessToken(r.Context()); tok != "new" {
			b.t.Errorf("retry sent before token was persisted: stored %q", tok)
		}
		_, _ = w.Write([]byte(`[{"id":1,"grade":"12.00"},{"id":2,"grade":"16.00"},{"id":3,"grade":"9.00"}]`))
	case "/api/boom/":
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database is down"}`))
	case "/api/slow/":
		<-r.Context().Done()
	default:
		http.NotFound(w, r)
	}
}

type seen struct{ ids, bodies []string }

func (b *backend) hits() (api, refresh int32) {
	return atomic.LoadInt32(&b.apiHits), atomic.LoadInt32(&b.refreshHits)
}

func (b *backend) snapshot() seen {
	b.mu.Lock()
	defer b.mu.Unlock()
	return seen{ids: append([]string(nil), b.requestIDs...), bodies: append([]string(nil), b.bodies...)}
}

func setup(t *testing.T, s models.Session, opts ...Option) (*Client, *backend, *httptest.Server) {
	t.Helper()
	sess := session.NewManager(session.NewMemoryStore(), nil)
	if err := sess.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	b := &backend{t: t, sess: sess}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	ref := auth.NewRefresher(srv.URL, "", sess, srv.Client(), nil)
	c := New(srv.URL, sess, ref, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
	return c, b, srv
}

func TestRefreshThenRetry(t *testing.T) {
	var trace []string
	c, b, _ := setup(t, models.Session{AccessToken: "old", RefreshToken: "ref", Role: models.Student},
		OnTransition(func(tr Transition) { trace = append(trace, tr.From.String()+">"+tr.To.String()) }))

	var grades []map[string]any
	if err := c.GetJSON(context.Background(), "/api/student/grades/", nil, &grades); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(grades) != 3 {
		t.Fatalf("expected 3 grades, got %d", len(grades))
	}
	if api, ref := b.hits(); ref != 1 || api != 2 {
		t.Fatalf("expected 1 refresh and 2 attempts, got %d/%d", ref, api)
	}
	if ids := b.snapshot().ids; ids[0] == "" || ids[0] != ids[1] {
		t.Fatalf("expected the retry to reuse the request id, got %v", ids)
	}
	want := "idle>sent sent>unauthorized idle>sent sent>success"
	if got := strings.Join(trace, " "); got != want {
		t.Fatalf("expected trace %q, got %q", want, got)
	}
}

func TestRetryReplaysBody(t *testing.T) {
	c, b, _ := setup(t, models.Session{AccessToken: "old", RefreshToken: "ref"})
	in := map[string]any{"student": 1, "grade": 15}
	if err := c.PostJSON(context.Background(), "/api/grades/add/", in, nil); err != nil {
		t.Fatalf("post: %v", err)
	}
	bodies := b.snapshot().bodies
	if len(bodies) != 2 || bodies[0] == "" || bodies[0] != bodies[1] {
		t.Fatalf("expected identical bodies on both attempts, got %q", bodies)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(bodies[1]), &got); err != nil || got["grade"].(float64) != 15 {
		t.Fatalf("unexpected retried body %q", bodies[1])
	}
}

func TestConcurrentUnauthorizedRefreshOnce(t *testing.T) {
	c, b, _ := setup(t, models.Session{AccessToken: "old", RefreshToken: "ref"})
	b.refreshDelay.Store(int64(100 * time.Millisecond))

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.GetJSON(context.Background(), "/api/student/grades/", nil, nil)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("request: %v", err)
		}
	}
	api, ref := b.hits()
	if ref != 1 {
		t.Fatalf("expected exactly one refresh, got %d", ref)
	}
	if api > 2*n {
		t.Fatalf("expected at most one retry per request, got %d hits", api)
	}
}

func TestRefreshRejectedClearsSession(t *testing.T) {
	var expired error
	c, b, _ := setup(t, models.Session{AccessToken: "old", RefreshToken: "ref", Role: models.Parent},
		OnSessionExpired(func(err error) { expired = err }))
	b.rejectRefresh.Store(true)

	err := c.GetJSON(context.Background(), "/api/student/grades/", nil, nil)
	if !errors.Is(err, apierr.ErrSessionExpired) || !errors.Is(err, apierr.ErrRefreshRejected) {
		t.Fatalf("expected session expired from rejected refresh, got %v", err)
	}
	if expired == nil {
		t.Fatalf("expected OnSessionExpired to be called")
	}
	if got, _ := c.sess.Load(context.Background()); !got.Empty() || got.Role != "" {
		t.Fatalf("expected cleared session, got %+v", got)
	}
	if api, _ := b.hits(); api != 1 {
		t.Fatalf("expected no retry after failed refresh, got %d hits", api)
	}
}

func TestNoTokensMeansSessionExpiredWithoutCalls(t *testing.T) {
	c, b, _ := setup(t, models.Session{})
	err := c.GetJSON(context.Background(), "/api/student/grades/", nil, nil)
	if !errors.Is(err, apierr.ErrSessionExpired) || !errors.Is(err, apierr.ErrNoRefreshToken) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if api, ref := b.hits(); api != 0 || ref != 0 {
		t.Fatalf("expected no network calls, got api=%d refresh=%d", api, ref)
	}
}

func TestSecondUnauthorized(t *testing.T) {
	c, b, _ := setup(t, models.Session{AccessToken: "old", RefreshToken: "ref"})
	b.rejectAll.Store(true)
	err := c.GetJSON(context.Background(), "/api/student/grades/", nil, nil)
	if !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if api, ref := b.hits(); ref != 1 || api != 2 {
		t.Fatalf("expected 1 refresh and 2 attempts, got %d/%d", ref, api)
	}
	if tok, _ := c.sess.AccessToken(context.Background()); tok != "new" {
		t.Fatalf("a second 401 must not clear the session, got %q", tok)
	}
}

func TestServerAndNetworkErrors(t *testing.T) {
	c, _, srv := setup(t, models.Session{AccessToken: "new", RefreshToken: "ref"})

	err := c.GetJSON(context.Background(), "/api/boom/", nil, nil)
	var se *apierr.ServerError
	if !errors.As(err, &se) || se.Status != 500 || se.Message != "database is down" {
		t.Fatalf("expected 500 server error, got %v", err)
	}
	err = c.GetJSON(context.Background(), "/api/missing/", nil, nil)
	if !errors.As(err, &se) || se.Status != 404 {
		t.Fatalf("expected 404 server error, got %v", err)
	}

	srv.Close()
	err = c.GetJSON(context.Background(), "/api/student/grades/", nil, nil)
	var ne *apierr.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestCancellation(t *testing.T) {
	c, _, _ := setup(t, models.Session{AccessToken: "new", RefreshToken: "ref"})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	err := c.GetJSON(ctx, "/api/slow/", nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
