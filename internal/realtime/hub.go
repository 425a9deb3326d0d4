package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/metrics"
	"github.com/Spok95/eduhere-client/internal/models"
)

type Filter func(models.AttendanceUpdate) bool

func ForStudent(id models.ID) Filter {
	return func(u models.AttendanceUpdate) bool { return u.StudentID == id }
}

func ForTeacher(id models.ID) Filter {
	return func(u models.AttendanceUpdate) bool { return u.TeacherID == id }
}

type listener struct {
	ch     chan models.AttendanceUpdate
	filter Filter
}

// Hub fans one subscription out to many listeners. A listener that is not
// keeping up loses events instead of blocking the others.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]*listener
	next   int
	closed bool
	log    *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{subs: make(map[int]*listener), log: log}
}

// Subscribe returns a channel of matching updates and a cancel func.
// A nil filter matches everything.
func (h *Hub) Subscribe(filter Filter, buf int) (<-chan models.AttendanceUpdate, func()) {
	if buf <= 0 {
		buf = 16
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	l := &listener{ch: make(chan models.AttendanceUpdate, buf), filter: filter}
	if h.closed {
		close(l.ch)
		return l.ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = l
	var once sync.Once
	return l.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(l.ch)
			}
		})
	}
}

func (h *Hub) Publish(u models.AttendanceUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, l := range h.subs {
		if l.filter != nil && !l.filter(u) {
			continue
		}
		select {
		case l.ch <- u:
		default:
			metrics.DroppedEvents.Inc()
			h.log.Warn("dropping update for slow listener", zap.String("key", u.Key()))
		}
	}
}

// Run publishes from in until ctx ends or in is closed, then closes every listener.
func (h *Hub) Run(ctx context.Context, in <-chan models.AttendanceUpdate) {
	defer h.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-in:
			if !ok {
				return
			}
			h.Publish(u)
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, l := range h.subs {
		close(l.ch)
		delete(h.subs, id)
	}
}
