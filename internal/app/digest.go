package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/notify"
	"github.com/Spok95/eduhere-client/internal/school"
)

const DigestTitle = "Attendance Today"

// DigestMessage summarises one day of a snapshot; ok is false when the day is empty.
func DigestMessage(snap school.StatusMap, day time.Time) (string, bool) {
	date := day.Format("2006-01-02")
	counts := make(map[models.AttendanceStatus]int)
	total := 0
	for k, st := range snap {
		d, _, ok := school.SplitKey(k)
		if !ok || d != date {
			continue
		}
		counts[st]++
		total++
	}
	if total == 0 {
		return "", false
	}
	parts := make([]string, 0, len(counts))
	for st, n := range counts {
		parts = append(parts, fmt.Sprintf("%s %d", st.Label(), n))
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s: %s.", date, strings.Join(parts, ", ")), true
}

// DailyDigest is a jobs.Job that sends the day's summary once per date.
func DailyDigest(sync *AttendanceSync, n notify.Notifier, loc *time.Location) func(context.Context) error {
	var lastSent string
	return func(ctx context.Context) error {
		if loc == nil {
			loc = time.Local
		}
		today := sync.now().In(loc)
		if lastSent == today.Format("2006-01-02") {
			return nil
		}
		if err := sync.ForceRefresh(ctx); err != nil {
			return err
		}
		body, ok := DigestMessage(sync.Snapshot(), today)
		if !ok {
			return nil
		}
		if err := n.Notify(ctx, DigestTitle, body); err != nil {
			return err
		}
		lastSent = today.Format("2006-01-02")
		return nil
	}
}
