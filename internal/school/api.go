package school

import (
	"context"
	"net/url"

	"go.uber.org/zap"
)

// Doer is the part of *client.Client the services need.
type Doer interface {
	GetJSON(ctx context.Context, path string, q url.Values, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
	PutJSON(ctx context.Context, path string, in, out any) error
	DeleteJSON(ctx context.Context, path string, out any) error
}

// API groups the typed services of the school backend.
type API struct {
	Profiles   *ProfileService
	Grades     *GradeService
	Schedules  *ScheduleService
	Attendance *AttendanceService
	Students   *StudentService
	Teachers   *TeacherService
}

func New(c Doer, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		Profiles:   &ProfileService{c: c},
		Grades:     &GradeService{c: c, log: log.Named("grades")},
		Schedules:  &ScheduleService{c: c, log: log.Named("schedules")},
		Attendance: &AttendanceService{c: c, log: log.Named("attendance")},
		Students:   &StudentService{c: c, log: log.Named("students")},
		Teachers:   &TeacherService{c: c, log: log.Named("teachers")},
	}
}
