package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/models"
)

type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

const AttendanceTitle = "Attendance Updated"

// AttendanceMessage renders an attendance push; subject may be empty.
func AttendanceMessage(u models.AttendanceUpdate, subject string) (title, body string) {
	status := strings.ToUpper(strings.ReplaceAll(string(u.Normalized()), "_", " "))
	if subject != "" {
		return AttendanceTitle, "Your attendance for " + subject + " on " + u.Date + " has been marked as " + status + "."
	}
	return AttendanceTitle, "Your attendance on " + u.Date + " has been marked as " + status + "."
}

// Log writes notifications to the logger.
type Log struct {
	L *zap.Logger
}

func (n Log) Notify(_ context.Context, title, body string) error {
	if n.L != nil {
		n.L.Info(title, zap.String("body", body))
	}
	return nil
}

// Multi sends to every notifier and joins the failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
