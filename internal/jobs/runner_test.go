package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEveryRunsImmediatelyAndSurvivesPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx, nil)
	before := testutil.ToFloat64(jobErrors.WithLabelValues("test_poll"))

	var n int32
	r.Every(10*time.Millisecond, "test_poll", func(context.Context) error {
		switch atomic.AddInt32(&n, 1) {
		case 1:
			panic("boom")
		case 2:
			return errors.New("backend down")
		}
		return nil
	})

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&n) < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	r.Wait()

	if atomic.LoadInt32(&n) < 4 {
		t.Fatalf("expected the loop to keep running after a panic, got %d runs", n)
	}
	if got := testutil.ToFloat64(jobErrors.WithLabelValues("test_poll")) - before; got != 2 {
		t.Fatalf("expected 2 recorded errors, got %v", got)
	}
	if testutil.ToFloat64(jobLastSuccess.WithLabelValues("test_poll")) == 0 {
		t.Fatalf("expected the last successful run to be recorded")
	}
}

func TestNextDaily(t *testing.T) {
	loc := time.FixedZone("WET", 3600)
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2025, 3, 14, 7, 0, 0, 0, loc), time.Date(2025, 3, 14, 18, 30, 0, 0, loc)},
		{time.Date(2025, 3, 14, 18, 30, 0, 0, loc), time.Date(2025, 3, 15, 18, 30, 0, 0, loc)},
		{time.Date(2025, 12, 31, 23, 0, 0, 0, loc), time.Date(2026, 1, 1, 18, 30, 0, 0, loc)},
	}
	for _, tc := range cases {
		if got := NextDaily(tc.now, 18, 30); !got.Equal(tc.want) {
			t.Fatalf("now %v: expected %v, got %v", tc.now, tc.want, got)
		}
	}
}
