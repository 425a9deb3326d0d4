package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/ctxutil"
)

func TestInitFallsBackToInfo(t *testing.T) {
	l, err := Init("chatty", "dev", "test")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Closer()
	if l.Level.Level() != zap.InfoLevel {
		t.Fatalf("expected info level, got %s", l.Level.Level())
	}

	l, err = Init("DEBUG", "prod", "")
	if err != nil {
		t.Fatal(err)
	}
	if l.Level.Level() != zap.DebugLevel {
		t.Fatalf("expected debug level, got %s", l.Level.Level())
	}
}

func TestTokenIsTruncated(t *testing.T) {
	f := Token("access", "eyJhbGciOiJIUzI1NiJ9.payload.signature")
	if f.String != "eyJhbGciOi..." {
		t.Fatalf("unexpected token field %q", f.String)
	}
	if Token("access", "short").String != "short" {
		t.Fatalf("short tokens are kept as is")
	}
}

func TestRequestFields(t *testing.T) {
	if f := Request(context.Background()); len(f) != 0 {
		t.Fatalf("expected no fields, got %v", f)
	}
	ctx := ctxutil.WithOp(ctxutil.WithRequestID(context.Background(), "req-1"), "grades.mine")
	f := Request(ctx)
	if len(f) != 2 || f[0].Key != "request_id" || f[0].String != "req-1" || f[1].Key != "op" || f[1].String != "grades.mine" {
		t.Fatalf("unexpected fields %v", f)
	}
}
