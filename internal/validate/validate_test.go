package validate

import (
	"errors"
	"testing"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/models"
)

func TestGrade(t *testing.T) {
	cases := map[string]bool{
		"0":     true,
		"20":    true,
		"20.01": false,
		"":      false,
		"abc":   false,
		"12.5":  true,
		"-0.5":  false,
		" 7 ":   true,
		"NaN":   false,
		"12abc": false,
	}
	for in, want := range cases {
		if got := Grade(in); got != want {
			t.Fatalf("Grade(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDate(t *testing.T) {
	cases := map[string]bool{
		"2025-03-01": true,
		"2024-02-29": true,
		"2025-02-29": false,
		"2025-02-30": false,
		"2025-13-01": false,
		"2025-3-1":   false,
		"":           false,
		"01/03/2025": false,
	}
	for in, want := range cases {
		if got := Date(in); got != want {
			t.Fatalf("Date(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGradeInput(t *testing.T) {
	ok := models.GradeInput{Student: 1, Subject: 2, Level: 3, Grade: 20, GradeType: models.Test1}
	if err := GradeInput(ok); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	bad := models.GradeInput{Student: 1, Subject: 2, Level: 3, Grade: 20.5, GradeType: "Final"}
	err := GradeInput(bad)
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := map[string]bool{}
	for _, f := range ve.Fields {
		fields[f.Field] = true
	}
	if !fields["grade"] || !fields["grade_type"] {
		t.Fatalf("expected grade and grade_type errors, got %+v", ve.Fields)
	}
}

func TestAttendanceInput(t *testing.T) {
	in := models.AttendanceInput{Student: 1, Schedule: 2, Date: "2025-02-30", Status: models.Present}
	err := AttendanceInput(in)
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].Field != "date" {
		t.Fatalf("expected date validation error, got %v", err)
	}
	in.Date = "2025-02-28"
	if err := AttendanceInput(in); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	in.Status = models.NotSet
	if err := AttendanceInput(in); err == nil {
		t.Fatalf("expected not_set to be refused for a mutation")
	}
}

func TestScheduleInput(t *testing.T) {
	in := models.ScheduleInput{
		Day: models.Monday, Teacher: 1, Level: 1, Classe: 1, Subject: 1,
		StartTime: "10:00", EndTime: "09:30",
	}
	err := ScheduleInput(in)
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].Field != "end_time" {
		t.Fatalf("expected end_time error, got %v", err)
	}
	in.EndTime = "11:00:00"
	if err := ScheduleInput(in); err != nil {
		t.Fatalf("expected valid schedule, got %v", err)
	}
	in.Day = "FUN"
	if err := ScheduleInput(in); err == nil {
		t.Fatalf("expected bad day to fail")
	}
}

func TestStudentInput(t *testing.T) {
	in := models.StudentInput{Nom: "Alaoui", Prenom: "Sara", Level: 1, Mail: "sara@school.ma", Numero: "0600000000"}
	if err := StudentInput(in); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	in.Mail = "not-a-mail"
	in.DateNaissance = "2012-02-30"
	in.Admission = "maybe"
	err := StudentInput(in)
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got := map[string]string{}
	for _, f := range ve.Fields {
		got[f.Field] = f.Error
	}
	if got["mail"] != "must be a valid email address" || got["date_naissance"] == "" || got["admission_s"] == "" {
		t.Fatalf("unexpected field errors %v", got)
	}
}

func TestTeacherInput(t *testing.T) {
	in := models.TeacherInput{Nom: "Benali", Prenom: "Amine", Subject: 3, Mail: "amine@school.ma", Numero: "0611111111", Levels: []models.ID{1, 2}}
	if err := TeacherInput(in); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	in.Subject = 0
	in.Numero = "06111111111111111"
	err := TeacherInput(in)
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 2 {
		t.Fatalf("expected subject and numero errors, got %v", err)
	}
	if ve.Fields[1].Field != "numero" || ve.Fields[1].Error != "must be at most 15 characters" {
		t.Fatalf("unexpected field errors %+v", ve.Fields)
	}
}
