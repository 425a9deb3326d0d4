package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestRequestIDAndOp(t *testing.T) {
	ctx := context.Background()
	if _, ok := RequestID(ctx); ok {
		t.Fatalf("expected no request id on a bare context")
	}
	ctx = WithOp(WithRequestID(ctx, "abc"), "grades.children")
	if id, ok := RequestID(ctx); !ok || id != "abc" {
		t.Fatalf("expected request id abc, got %q", id)
	}
	if op, ok := Op(ctx); !ok || op != "grades.children" {
		t.Fatalf("expected op grades.children, got %q", op)
	}
}

func TestWithStoreTimeoutKeepsShorterDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	ctx, cancel2 := WithStoreTimeout(parent)
	defer cancel2()
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > 100*time.Millisecond {
		t.Fatalf("expected the parent's shorter deadline, got %v", time.Until(dl))
	}

	ctx, cancel3 := WithTimeout(context.Background(), 0)
	defer cancel3()
	if _, ok := ctx.Deadline(); ok {
		t.Fatalf("expected no deadline for d<=0")
	}
}
