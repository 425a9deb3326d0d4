package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/observability"
)

type Job func(ctx context.Context) error

// Runner owns the periodic background work of the agent.
type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
	now func() time.Time
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ctx: ctx, log: log, now: time.Now}
}

// Every runs fn once immediately, then on every tick.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(name, fn)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

// DailyAt runs fn every day at hh:mm in loc.
func (r *Runner) DailyAt(hh, mm int, loc *time.Location, name string, fn Job) {
	if loc == nil {
		loc = time.Local
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			t := time.NewTimer(NextDaily(r.now().In(loc), hh, mm).Sub(r.now()))
			select {
			case <-r.ctx.Done():
				t.Stop()
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

// NextDaily is the first hh:mm strictly after now, in now's location.
func NextDaily(now time.Time, hh, mm int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Wait blocks until every job loop has returned after ctx is done.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			jobErrors.WithLabelValues(name).Inc()
			observability.CaptureErr(fmt.Errorf("panic in job %s: %v", name, rec))
			r.log.Error("job panicked", zap.String("job", name), zap.Any("panic", rec))
		}
		jobRuns.WithLabelValues(name).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	if err := fn(r.ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
		r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	jobLastSuccess.WithLabelValues(name).SetToCurrentTime()
}
