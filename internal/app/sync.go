package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/notify"
	"github.com/Spok95/eduhere-client/internal/school"
)

type Fetcher func(ctx context.Context) (school.StatusMap, error)

type SyncConfig struct {
	// MinInterval is the shortest gap between two fetches; triggers inside it are skipped.
	MinInterval time.Duration
	Notifier    notify.Notifier
	// Filter keeps only the pushes meant for this view.
	Filter func(models.AttendanceUpdate) bool
	// PerStudent keys state "<student>:<date>-<schedule>", for views over a class or several children.
	PerStudent bool
	Log        *zap.Logger
}

// AttendanceSync is the single owner of an attendance view. Websocket
// pushes and polling both go through it; overlapping refetches collapse.
type AttendanceSync struct {
	fetch    Fetcher
	cfg      SyncConfig
	log      *zap.Logger
	limiter  *NotifyLimiter
	group    singleflight.Group
	now      func() time.Time
	onChange func(key string, st models.AttendanceStatus)

	mu        sync.RWMutex
	state     school.StatusMap
	subjects  map[models.ID]string
	lastFetch time.Time
	touched   map[string]time.Time
	fetches   int
}

func NewAttendanceSync(fetch Fetcher, cfg SyncConfig) *AttendanceSync {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &AttendanceSync{
		fetch:    fetch,
		cfg:      cfg,
		log:      cfg.Log,
		limiter:  NewNotifyLimiter(time.Minute),
		now:      time.Now,
		state:    make(school.StatusMap),
		subjects: make(map[models.ID]string),
		touched:  make(map[string]time.Time),
	}
}

// OnChange is called for every key whose status changed; not_set means removed.
func (s *AttendanceSync) OnChange(fn func(key string, st models.AttendanceStatus)) {
	s.onChange = fn
}

// SetSchedule gives notifications their subject names.
func (s *AttendanceSync) SetSchedule(entries []models.ScheduleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.ID != 0 {
			s.subjects[e.ID] = e.Subject.String()
		}
	}
}

// Refresh refetches unless a fetch finished less than MinInterval ago.
// Concurrent callers share one fetch.
func (s *AttendanceSync) Refresh(ctx context.Context) error {
	return s.refresh(ctx, false)
}

// ForceRefresh ignores MinInterval but still joins an in-flight fetch.
func (s *AttendanceSync) ForceRefresh(ctx context.Context) error {
	return s.refresh(ctx, true)
}

func (s *AttendanceSync) refresh(ctx context.Context, force bool) error {
	if !force {
		s.mu.RLock()
		fresh := !s.lastFetch.IsZero() && s.now().Sub(s.lastFetch) < s.cfg.MinInterval
		s.mu.RUnlock()
		if fresh {
			return nil
		}
	}
	ch := s.group.DoChan("fetch", func() (any, error) {
		return nil, s.doFetch(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (s *AttendanceSync) doFetch(ctx context.Context) error {
	started := s.now()
	m, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	first := s.lastFetch.IsZero()
	s.lastFetch = s.now()
	s.fetches++
	next := make(school.StatusMap, len(m))
	for k, v := range m {
		next[k] = v
	}
	// pushes applied while the fetch was in flight are newer than its result
	for k, at := range s.touched {
		if at.After(started) {
			if st, ok := s.state[k]; ok {
				next[k] = st
			} else {
				delete(next, k)
			}
		} else {
			delete(s.touched, k)
		}
	}
	var changed []string
	for k, v := range next {
		if s.state[k] != v {
			changed = append(changed, k)
		}
	}
	for k := range s.state {
		if _, ok := next[k]; !ok {
			changed = append(changed, k)
		}
	}
	s.state = next
	s.mu.Unlock()

	sort.Strings(changed)
	for _, k := range changed {
		st, ok := next[k]
		if !ok {
			st = models.NotSet
		}
		s.changed(k, st)
		if !first && st != models.NotSet {
			student, date, sched, ok := school.SplitStudentKey(k)
			if ok {
				s.notify(ctx, models.AttendanceUpdate{StudentID: student, ScheduleID: sched, Date: date, Status: string(st)})
			}
		}
	}
	s.log.Debug("attendance fetched", zap.Int("entries", len(next)), zap.Int("changed", len(changed)))
	return nil
}

// Apply folds a websocket push into the view and triggers a refetch.
func (s *AttendanceSync) Apply(ctx context.Context, u models.AttendanceUpdate) {
	if s.cfg.Filter != nil && !s.cfg.Filter(u) {
		return
	}
	key := s.key(u)
	st := u.Normalized()
	s.mu.Lock()
	prev, had := s.state[key]
	if st == models.NotSet {
		delete(s.state, key)
	} else {
		s.state[key] = st
	}
	s.touched[key] = s.now()
	s.mu.Unlock()

	if (!had && st == models.NotSet) || (had && prev == st) {
		return
	}
	s.changed(key, st)
	s.notify(ctx, u)
	if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("refetch after push failed", zap.Error(err))
	}
}

// Run applies pushes from updates until ctx ends or the channel closes.
func (s *AttendanceSync) Run(ctx context.Context, updates <-chan models.AttendanceUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			s.Apply(ctx, u)
		}
	}
}

func (s *AttendanceSync) Snapshot() school.StatusMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(school.StatusMap, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}

// Fetches counts completed fetches.
func (s *AttendanceSync) Fetches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetches
}

func (s *AttendanceSync) key(u models.AttendanceUpdate) string {
	if s.cfg.PerStudent {
		return u.StudentKey()
	}
	return u.Key()
}

func (s *AttendanceSync) changed(key string, st models.AttendanceStatus) {
	if s.onChange != nil {
		s.onChange(key, st)
	}
}

func (s *AttendanceSync) notify(ctx context.Context, u models.AttendanceUpdate) {
	if s.cfg.Notifier == nil {
		return
	}
	if !s.limiter.Allow(s.key(u)+"|"+string(u.Normalized()), s.now()) {
		return
	}
	s.mu.RLock()
	subject := s.subjects[u.ScheduleID]
	s.mu.RUnlock()
	title, body := notify.AttendanceMessage(u, subject)
	if err := s.cfg.Notifier.Notify(ctx, title, body); err != nil {
		s.log.Warn("notify failed", zap.Error(err))
	}
}
