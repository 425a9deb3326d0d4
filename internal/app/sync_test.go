package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/school"
)

type recorder struct {
	mu    sync.Mutex
	msgs  []string
	fails bool
}

func (r *recorder) Notify(_ context.Context, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, body)
	if r.fails {
		return errors.New("telegram down")
	}
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestSyncCoalescesAndThrottles(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	s := NewAttendanceSync(func(context.Context) (school.StatusMap, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return school.StatusMap{"2025-03-14-7": models.Present}, nil
	}, SyncConfig{MinInterval: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Refresh(context.Background()); err != nil {
				t.Errorf("refresh: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected one fetch for overlapping triggers, got %d", n)
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected the min interval to skip the fetch, got %d", n)
	}
	if err := s.ForceRefresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected a forced fetch, got %d", n)
	}
	if s.Snapshot()["2025-03-14-7"] != models.Present {
		t.Fatalf("unexpected snapshot %v", s.Snapshot())
	}
}

func TestSyncApplyPush(t *testing.T) {
	rec := &recorder{}
	s := NewAttendanceSync(func(context.Context) (school.StatusMap, error) {
		return school.StatusMap{"2025-03-14-7": models.Pending}, nil
	}, SyncConfig{MinInterval: time.Hour, Notifier: rec, Filter: func(u models.AttendanceUpdate) bool { return u.StudentID == 4 }})
	s.SetSchedule([]models.ScheduleEntry{{ID: 7, Subject: models.Label{Text: "Math"}}})

	var changes []string
	s.OnChange(func(k string, st models.AttendanceStatus) { changes = append(changes, k+"="+string(st)) })

	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	s.Apply(ctx, models.AttendanceUpdate{Type: "attendance_update", StudentID: 4, ScheduleID: 7, Date: "2025-03-14", Status: "late"})
	s.Apply(ctx, models.AttendanceUpdate{Type: "attendance_update", StudentID: 5, ScheduleID: 7, Date: "2025-03-14", Status: "absent"})
	s.Apply(ctx, models.AttendanceUpdate{Type: "attendance_update", StudentID: 4, ScheduleID: 7, Date: "2025-03-14", Status: "late"})

	if got := s.Snapshot()["2025-03-14-7"]; got != models.Late {
		t.Fatalf("expected retard after push, got %q", got)
	}
	msgs := rec.all()
	if len(msgs) != 1 || msgs[0] != "Your attendance for Math on 2025-03-14 has been marked as RETARD." {
		t.Fatalf("unexpected notifications %q", msgs)
	}

	s.Apply(ctx, models.AttendanceUpdate{StudentID: 4, ScheduleID: 7, Date: "2025-03-14", Status: "bogus"})
	if _, ok := s.Snapshot()["2025-03-14-7"]; ok {
		t.Fatalf("expected not_set to delete the key")
	}
	want := []string{"2025-03-14-7=att", "2025-03-14-7=retard", "2025-03-14-7=not_set"}
	if len(changes) != len(want) {
		t.Fatalf("expected changes %v, got %v", want, changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("expected changes %v, got %v", want, changes)
		}
	}
}

func TestSyncPushDuringFetchWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := NewAttendanceSync(func(context.Context) (school.StatusMap, error) {
		close(started)
		<-release
		return school.StatusMap{"2025-03-14-7": models.Absent}, nil
	}, SyncConfig{MinInterval: time.Hour})

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()
	<-started
	time.Sleep(5 * time.Millisecond)
	// Apply's own refetch joins the in-flight call
	go s.Apply(context.Background(), models.AttendanceUpdate{ScheduleID: 7, Date: "2025-03-14", Status: "present"})
	time.Sleep(20 * time.Millisecond)
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if got := s.Snapshot()["2025-03-14-7"]; got != models.Present {
		t.Fatalf("expected the push to survive the older fetch, got %q", got)
	}
}

func TestSyncRunStopsOnClose(t *testing.T) {
	s := NewAttendanceSync(func(context.Context) (school.StatusMap, error) { return school.StatusMap{}, nil },
		SyncConfig{MinInterval: time.Hour})
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	ch := make(chan models.AttendanceUpdate, 1)
	ch <- models.AttendanceUpdate{ScheduleID: 1, Date: "2025-03-14", Status: "absent"}
	close(ch)
	s.Run(context.Background(), ch)
	if s.Snapshot()["2025-03-14-1"] != models.Absent {
		t.Fatalf("expected the queued push to be applied")
	}
}

func TestSyncClassViewKeepsEveryStudent(t *testing.T) {
	rec := &recorder{}
	class := []models.AttendanceRecord{
		{Student: 1, Schedule: 7, Date: "2025-03-14", Status: models.Present},
		{Student: 2, Schedule: 7, Date: "2025-03-14", Status: models.Absent},
		{Student: 3, Schedule: 7, Date: "2025-03-14", Status: models.Late},
	}
	var mu sync.Mutex
	s := NewAttendanceSync(func(context.Context) (school.StatusMap, error) {
		mu.Lock()
		defer mu.Unlock()
		return school.Index(class), nil
	}, SyncConfig{Notifier: rec, PerStudent: true})

	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if len(snap) != 3 || snap["2:2025-03-14-7"] != models.Absent {
		t.Fatalf("expected one entry per student, got %v", snap)
	}

	mu.Lock()
	class[0].Status = models.Absent
	mu.Unlock()
	s.Apply(ctx, models.AttendanceUpdate{StudentID: 1, ScheduleID: 7, Date: "2025-03-14T08:00:00Z", Status: "absent"})
	if err := s.ForceRefresh(ctx); err != nil {
		t.Fatal(err)
	}
	snap = s.Snapshot()
	if len(snap) != 3 || snap["1:2025-03-14-7"] != models.Absent || snap["3:2025-03-14-7"] != models.Late {
		t.Fatalf("unexpected snapshot after push %v", snap)
	}
	if msgs := rec.all(); len(msgs) != 1 {
		t.Fatalf("expected a single notification for the push, got %q", msgs)
	}

	mu.Lock()
	class[2].Status = models.Present
	mu.Unlock()
	var changed []string
	s.OnChange(func(k string, st models.AttendanceStatus) { changed = append(changed, k+"="+string(st)) })
	if err := s.ForceRefresh(ctx); err != nil {
		t.Fatal(err)
	}
	if len(changed) != 1 || changed[0] != "3:2025-03-14-7=present" {
		t.Fatalf("expected only student 3 to change, got %v", changed)
	}
	msgs := rec.all()
	if len(msgs) != 2 || msgs[1] != "Your attendance on 2025-03-14 has been marked as PRESENT." {
		t.Fatalf("unexpected notifications %q", msgs)
	}
}
