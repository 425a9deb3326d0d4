package models

import (
	"encoding/json"
	"strings"
)

type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
	Late    AttendanceStatus = "retard"
	Pending AttendanceStatus = "att"
	NotSet  AttendanceStatus = "not_set"
)

// NormalizeStatus maps every spelling seen on the wire onto the canonical set.
func NormalizeStatus(raw string) AttendanceStatus {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "present":
		return Present
	case "absent":
		return Absent
	case "retard", "late":
		return Late
	case "att", "pending", "en_attente", "en attente":
		return Pending
	default:
		return NotSet
	}
}

func (s *AttendanceStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = NormalizeStatus(raw)
	return nil
}

func (s AttendanceStatus) Label() string {
	switch s {
	case Present:
		return "Present"
	case Absent:
		return "Absent"
	case Late:
		return "Late"
	case Pending:
		return "Pending"
	default:
		return "Not set"
	}
}

type AttendanceRecord struct {
	Student    ID               `json:"student,omitempty"`
	Schedule   ID               `json:"schedule,omitempty"`
	Date       string           `json:"date"`
	Status     AttendanceStatus `json:"status"`
	ChildNames string           `json:"child_names,omitempty"`
	Subject    Label            `json:"subject"`
	StartTime  string           `json:"start_time,omitempty"`
	EndTime    string           `json:"end_time,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// AttendanceKey is the "<date>-<schedule>" index the screens keep their
// state under. A time suffix on date is dropped.
func AttendanceKey(date string, ref ID) string {
	if i := strings.IndexByte(date, 'T'); i > 0 {
		date = date[:i]
	}
	return date + "-" + ref.String()
}

// StudentAttendanceKey prefixes the key with "<student>:" so views that
// follow a whole class keep one entry per student.
func StudentAttendanceKey(student ID, date string, ref ID) string {
	if student == 0 {
		return AttendanceKey(date, ref)
	}
	return student.String() + ":" + AttendanceKey(date, ref)
}

func (r AttendanceRecord) ref() ID {
	if r.Schedule == 0 {
		return r.Subject.ID
	}
	return r.Schedule
}

func (r AttendanceRecord) Key() string { return AttendanceKey(r.Date, r.ref()) }

func (r AttendanceRecord) StudentKey() string {
	return StudentAttendanceKey(r.Student, r.Date, r.ref())
}

// AttendanceInput is the body of /api/attendance/add/.
type AttendanceInput struct {
	Student  ID               `json:"student" validate:"required"`
	Schedule ID               `json:"schedule" validate:"required"`
	Date     string           `json:"date" validate:"required,schooldate"`
	Status   AttendanceStatus `json:"status" validate:"required,oneof=present absent retard att"`
}

// AttendanceUpdate is the websocket push payload.
type AttendanceUpdate struct {
	Type       string `json:"type"`
	StudentID  ID     `json:"studentId"`
	TeacherID  ID     `json:"teacherId"`
	ScheduleID ID     `json:"scheduleId"`
	SubjectID  ID     `json:"subjectId"`
	Date       string `json:"date"`
	Status     string `json:"status"`
}

func (u AttendanceUpdate) Normalized() AttendanceStatus { return NormalizeStatus(u.Status) }

func (u AttendanceUpdate) ref() ID {
	if u.ScheduleID == 0 {
		return u.SubjectID
	}
	return u.ScheduleID
}

func (u AttendanceUpdate) Key() string { return AttendanceKey(u.Date, u.ref()) }

func (u AttendanceUpdate) StudentKey() string {
	return StudentAttendanceKey(u.StudentID, u.Date, u.ref())
}
