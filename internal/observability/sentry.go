package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/ctxutil"
)

// InitSentry is a no-op without a DSN. The returned func flushes pending events.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: env, Release: release})
	if err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CaptureSystemErr reports network failures and 5xx/429 answers, tagged
// with the request id and operation from ctx. It reports whether it did.
func CaptureSystemErr(ctx context.Context, err error) bool {
	if !apierr.IsSystem(err) {
		return false
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(requestTags(ctx))
		sentry.CaptureException(err)
	})
	return true
}

func requestTags(ctx context.Context) map[string]string {
	tags := map[string]string{}
	if id, ok := ctxutil.RequestID(ctx); ok {
		tags["request_id"] = id
	}
	if op, ok := ctxutil.Op(ctx); ok {
		tags["op"] = op
	}
	return tags
}
