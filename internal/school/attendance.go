package school

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/ctxutil"
	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/validate"
)

// StatusMap is attendance keyed "<date>-<schedule>", statuses normalized.
// Views over several students key "<student>:<date>-<schedule>".
type StatusMap map[string]models.AttendanceStatus

type AttendanceService struct {
	c   Doer
	log *zap.Logger
}

func dateQuery(date string) (url.Values, error) {
	if date == "" {
		return nil, nil
	}
	if !validate.Date(date) {
		return nil, apierr.NewValidationError(apierr.FieldError{Field: "date", Error: "must be a valid YYYY-MM-DD date"})
	}
	return url.Values{"date": {date}}, nil
}

func (s *AttendanceService) statusMap(ctx context.Context, op, path, date string) (StatusMap, error) {
	q, err := dateQuery(date)
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, op), path, q, &raw); err != nil {
		return nil, err
	}
	out := make(StatusMap, len(raw))
	for k, v := range raw {
		if st := models.NormalizeStatus(v); st != models.NotSet {
			out[k] = st
		}
	}
	return out, nil
}

// Mine returns the student's month of attendance; date selects the month.
func (s *AttendanceService) Mine(ctx context.Context, date string) (StatusMap, error) {
	return s.statusMap(ctx, "attendance.mine", "/api/student/attendance/", date)
}

// Student returns one student's month of attendance.
func (s *AttendanceService) Student(ctx context.Context, studentID models.ID, date string) (StatusMap, error) {
	return s.statusMap(ctx, "attendance.student", fmt.Sprintf("/api/attendance/%d/", studentID), date)
}

// Children lists the attendance of the parent's children, optionally for one day.
func (s *AttendanceService) Children(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	q, err := dateQuery(date)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "attendance.children"), "/api/parent/children/attendance/", q, &raw); err != nil {
		return nil, err
	}
	recs, err := decodeRecords(raw)
	if err != nil {
		return nil, err
	}
	if date != "" {
		recs = filterDate(recs, date)
	}
	return recs, nil
}

// Teacher lists what a teacher has marked; records are keyed by subject.
func (s *AttendanceService) Teacher(ctx context.Context, teacherID models.ID) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	q := url.Values{"teacher": {teacherID.String()}}
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "attendance.teacher"), "/api/attendance-t/list/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Mark creates or replaces one attendance entry.
func (s *AttendanceService) Mark(ctx context.Context, in models.AttendanceInput) error {
	in.Status = models.NormalizeStatus(string(in.Status))
	if err := validate.AttendanceInput(in); err != nil {
		return err
	}
	if err := s.c.PostJSON(ctxutil.WithOp(ctx, "attendance.mark"), "/api/attendance/add/", in, nil); err != nil {
		return err
	}
	s.log.Info("attendance marked", zap.Int64("student", int64(in.Student)),
		zap.Int64("schedule", int64(in.Schedule)), zap.String("date", in.Date), zap.String("status", string(in.Status)))
	return nil
}

func (s *AttendanceService) Delete(ctx context.Context, student, schedule models.ID, date string) error {
	if !validate.Date(date) {
		return apierr.NewValidationError(apierr.FieldError{Field: "date", Error: "must be a valid YYYY-MM-DD date"})
	}
	return s.c.DeleteJSON(ctxutil.WithOp(ctx, "attendance.delete"),
		fmt.Sprintf("/api/attendance/delete/%d/%d/%s/", student, schedule, date), nil)
}

// decodeRecords accepts both shapes the backend serves for children:
// a list of records, or {studentId: {"<date>-<schedule>": status}}.
func decodeRecords(raw json.RawMessage) ([]models.AttendanceRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []models.AttendanceRecord
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("attendance list: %w", err)
		}
		return out, nil
	}
	var nested map[string]map[string]string
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("attendance map: %w", err)
	}
	var out []models.AttendanceRecord
	for sid, entries := range nested {
		student, _ := strconv.ParseInt(sid, 10, 64)
		for key, st := range entries {
			date, sched, ok := SplitKey(key)
			if !ok {
				continue
			}
			out = append(out, models.AttendanceRecord{
				Student:  models.ID(student),
				Schedule: sched,
				Date:     date,
				Status:   models.NormalizeStatus(st),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Student != out[j].Student {
			return out[i].Student < out[j].Student
		}
		return out[i].Schedule < out[j].Schedule
	})
	return out, nil
}

// SplitKey splits "2025-03-14-7" into its date and schedule id. A
// "<student>:" prefix is ignored.
func SplitKey(key string) (string, models.ID, bool) {
	_, date, sched, ok := SplitStudentKey(key)
	return date, sched, ok
}

// SplitStudentKey also returns the student of a "<student>:<date>-<schedule>"
// key, 0 when the key has none.
func SplitStudentKey(key string) (models.ID, string, models.ID, bool) {
	var student models.ID
	if i := strings.IndexByte(key, ':'); i >= 0 {
		n, err := strconv.ParseInt(key[:i], 10, 64)
		if err != nil || n <= 0 {
			return 0, "", 0, false
		}
		student, key = models.ID(n), key[i+1:]
	}
	date, sched, ok := splitKey(key)
	if !ok {
		return 0, "", 0, false
	}
	return student, date, sched, true
}

func splitKey(key string) (string, models.ID, bool) {
	if len(key) < 12 || key[10] != '-' {
		return "", 0, false
	}
	date := key[:10]
	n, err := strconv.ParseInt(key[11:], 10, 64)
	if err != nil || !validate.Date(date) {
		return "", 0, false
	}
	return date, models.ID(n), true
}

func filterDate(recs []models.AttendanceRecord, date string) []models.AttendanceRecord {
	out := recs[:0]
	for _, r := range recs {
		if strings.HasPrefix(r.Date, date) {
			out = append(out, r)
		}
	}
	return out
}

// Index converts records to a StatusMap keyed per student; not_set
// entries are left out.
func Index(recs []models.AttendanceRecord) StatusMap {
	out := make(StatusMap, len(recs))
	for _, r := range recs {
		if r.Status == models.NotSet || r.Status == "" {
			continue
		}
		out[r.StudentKey()] = r.Status
	}
	return out
}
