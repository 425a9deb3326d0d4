package school

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/models"
)

type call struct {
	method, path string
	query        url.Values
	body         any
}

// fakeDoer answers every call with the canned JSON for its path.
type fakeDoer struct {
	calls []call
	resp  map[string]string
}

func (f *fakeDoer) answer(path string, out any) error {
	if out == nil {
		return nil
	}
	body, ok := f.resp[path]
	if !ok {
		return &apierr.ServerError{Status: 404}
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeDoer) GetJSON(_ context.Context, path string, q url.Values, out any) error {
	f.calls = append(f.calls, call{"GET", path, q, nil})
	return f.answer(path, out)
}

func (f *fakeDoer) PostJSON(_ context.Context, path string, in, out any) error {
	f.calls = append(f.calls, call{"POST", path, nil, in})
	return f.answer(path, out)
}

func (f *fakeDoer) PutJSON(_ context.Context, path string, in, out any) error {
	f.calls = append(f.calls, call{"PUT", path, nil, in})
	return f.answer(path, out)
}

func (f *fakeDoer) DeleteJSON(_ context.Context, path string, out any) error {
	f.calls = append(f.calls, call{"DELETE", path, nil, nil})
	return f.answer(path, out)
}

func TestGradeStats(t *testing.T) {
	var grades []models.Grade
	raw := `[{"id":1,"grade":"12.00"},{"id":2,"grade":16},{"id":3,"grade":"9"},{"id":4,"grade":"n/a"}]`
	if err := json.Unmarshal([]byte(raw), &grades); err != nil {
		t.Fatal(err)
	}
	st := GradeStats(grades)
	if st.Count != 3 || st.Average != 12.33 || st.Highest != 16 || st.Lowest != 9 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if empty := GradeStats(nil); empty != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", empty)
	}
}

func TestStatsBySubject(t *testing.T) {
	grades := []models.Grade{
		{Subject: models.Label{Text: "Math"}, Grade: models.NewScore(10)},
		{Subject: models.Label{Text: "Math"}, Grade: models.NewScore(15)},
		{Subject: models.Label{Text: "Physique"}, Grade: models.NewScore(18)},
	}
	by := StatsBySubject(grades)
	if by["Math"].Average != 12.5 || by["Physique"].Count != 1 {
		t.Fatalf("unexpected per-subject stats %+v", by)
	}
}

func TestMutationsValidateBeforeSending(t *testing.T) {
	ctx := context.Background()
	f := &fakeDoer{}
	api := New(f, nil)

	_, err := api.Grades.Add(ctx, models.GradeInput{Student: 1, Subject: 2, Level: 3, Grade: 20.01, GradeType: models.Test1})
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for grade 20.01, got %v", err)
	}
	_, err = api.Schedules.Create(ctx, models.ScheduleInput{
		Day: models.Monday, Teacher: 1, Level: 1, Classe: 1, Subject: 1, StartTime: "10:00", EndTime: "09:00",
	})
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for start after end, got %v", err)
	}
	err = api.Attendance.Mark(ctx, models.AttendanceInput{Student: 1, Schedule: 2, Date: "2025-02-30", Status: models.Present})
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for 2025-02-30, got %v", err)
	}
	if _, err := api.Attendance.Children(ctx, "2025-13-01"); !errors.As(err, &ve) {
		t.Fatalf("expected validation error for bad date filter, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("expected no request for invalid input, got %+v", f.calls)
	}
}

func TestMarkNormalizesAlias(t *testing.T) {
	f := &fakeDoer{}
	err := New(f, nil).Attendance.Mark(context.Background(),
		models.AttendanceInput{Student: 1, Schedule: 2, Date: "2025-03-14", Status: "late"})
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if len(f.calls) != 1 || f.calls[0].path != "/api/attendance/add/" {
		t.Fatalf("unexpected calls %+v", f.calls)
	}
	if in := f.calls[0].body.(models.AttendanceInput); in.Status != models.Late {
		t.Fatalf("expected status sent as retard, got %q", in.Status)
	}
}

func TestPaths(t *testing.T) {
	ctx := context.Background()
	f := &fakeDoer{resp: map[string]string{}}
	api := New(f, nil)
	_ = api.Grades.Delete(ctx, 5)
	_ = api.Schedules.Delete(ctx, 6)
	_, _ = api.Schedules.Teacher(ctx, 7)
	_ = api.Attendance.Delete(ctx, 1, 2, "2025-03-14")
	_, _ = api.Attendance.Teacher(ctx, 9)
	_, _ = api.Students.List(ctx)
	_, _ = api.Students.Get(ctx, 4)
	_ = api.Students.Delete(ctx, 4)
	_, _ = api.Teachers.List(ctx)
	_, _ = api.Teachers.Get(ctx, 10)
	_, _ = api.Teachers.Students(ctx, 10)
	_ = api.Teachers.Delete(ctx, 10)

	want := []string{
		"DELETE /api/grades/delete/5/",
		"DELETE /api/schedules/6/delete/",
		"GET /api/schedules/teacher/7/",
		"DELETE /api/attendance/delete/1/2/2025-03-14/",
		"GET /api/attendance-t/list/",
		"GET /api/students/list/",
		"GET /api/students/4/",
		"DELETE /api/students/delete/4/",
		"GET /api/teachers/list/",
		"GET /api/teachers/10/",
		"GET /api/teachers/10/students/",
		"DELETE /api/teachers/delete/10/",
	}
	if len(f.calls) != len(want) {
		t.Fatalf("expected %d calls, got %+v", len(want), f.calls)
	}
	for i, w := range want {
		if got := f.calls[i].method + " " + f.calls[i].path; got != w {
			t.Fatalf("call %d: expected %q, got %q", i, w, got)
		}
	}
	if f.calls[4].query.Get("teacher") != "9" {
		t.Fatalf("expected teacher query, got %v", f.calls[4].query)
	}
}

func TestChildrenAttendanceShapes(t *testing.T) {
	ctx := context.Background()

	nested := &fakeDoer{resp: map[string]string{
		"/api/parent/children/attendance/": `{"4":{"2025-03-14-7":"PRESENT","2025-03-15-8":"late"},"5":{"2025-03-14-7":"en_attente"}}`,
	}}
	recs, err := New(nested, nil).Attendance.Children(ctx, "")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %+v", recs)
	}
	if recs[0].Student != 4 || recs[0].Status != models.Present || recs[1].Status != models.Pending || recs[2].Status != models.Late {
		t.Fatalf("unexpected records %+v", recs)
	}

	list := &fakeDoer{resp: map[string]string{
		"/api/parent/children/attendance/": `[{"student":4,"schedule":7,"date":"2025-03-14","status":"absent"},{"student":4,"schedule":8,"date":"2025-03-15","status":"present"}]`,
	}}
	recs, err = New(list, nil).Attendance.Children(ctx, "2025-03-14")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(recs) != 1 || recs[0].Status != models.Absent {
		t.Fatalf("expected the one record of 2025-03-14, got %+v", recs)
	}
	if list.calls[0].query.Get("date") != "2025-03-14" {
		t.Fatalf("expected date query, got %v", list.calls[0].query)
	}
}

func TestMineDropsUnknownStatuses(t *testing.T) {
	f := &fakeDoer{resp: map[string]string{
		"/api/student/attendance/": `{"2025-03-14-7":"present","2025-03-14-8":"???","2025-03-15-7":"pending"}`,
	}}
	m, err := New(f, nil).Attendance.Mine(context.Background(), "")
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if len(m) != 2 || m["2025-03-14-7"] != models.Present || m["2025-03-15-7"] != models.Pending {
		t.Fatalf("unexpected map %v", m)
	}
	sum := SummarizeStatuses(m)
	if sum.Total != 2 || sum.ByStatus[models.Pending] != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestSplitKey(t *testing.T) {
	cases := []struct {
		key   string
		date  string
		sched models.ID
		ok    bool
	}{
		{"2025-03-14-7", "2025-03-14", 7, true},
		{"2025-03-14-123", "2025-03-14", 123, true},
		{"2025-02-30-1", "", 0, false},
		{"2025-03-14", "", 0, false},
		{"junk", "", 0, false},
		{"3:2025-03-14-7", "2025-03-14", 7, true},
		{"x:2025-03-14-7", "", 0, false},
	}
	for _, tc := range cases {
		d, s, ok := SplitKey(tc.key)
		if d != tc.date || s != tc.sched || ok != tc.ok {
			t.Fatalf("%q: got (%q, %d, %v)", tc.key, d, s, ok)
		}
	}
	if st, _, _, ok := SplitStudentKey("3:2025-03-14-7"); !ok || st != 3 {
		t.Fatalf("expected student 3, got %d", st)
	}
}

func TestIndexKeepsEveryStudent(t *testing.T) {
	recs := []models.AttendanceRecord{
		{Student: 1, Schedule: 7, Date: "2025-03-14", Status: models.Present},
		{Student: 2, Schedule: 7, Date: "2025-03-14", Status: models.Absent},
		{Student: 3, Schedule: 7, Date: "2025-03-14T08:00:00Z", Status: models.Late},
		{Student: 4, Schedule: 7, Date: "2025-03-14", Status: models.NotSet},
	}
	m := Index(recs)
	if len(m) != 3 || m["1:2025-03-14-7"] != models.Present || m["2:2025-03-14-7"] != models.Absent || m["3:2025-03-14-7"] != models.Late {
		t.Fatalf("unexpected index %v", m)
	}
}

func TestSortSchedule(t *testing.T) {
	e := []models.ScheduleEntry{
		{Day: models.Wednesday, StartTime: "08:00"},
		{Day: models.Monday, StartTime: "10:00"},
		{Day: models.Monday, StartTime: "08:30"},
	}
	SortSchedule(e)
	if e[0].StartTime != "08:30" || e[1].StartTime != "10:00" || e[2].Day != models.Wednesday {
		t.Fatalf("unexpected order %+v", e)
	}
}

func TestStudentAndTeacherMutations(t *testing.T) {
	ctx := context.Background()
	f := &fakeDoer{resp: map[string]string{
		"/api/students/add/":     `{"id": 12, "nom": "Alaoui", "prenom": "Sara", "level": 1, "level_name": "1AC", "mail": "sara@school.ma"}`,
		"/api/teachers/edit/10/": `{"id": 10, "nom": "Benali", "prenom": "Amine", "subject": 3, "levels": [1, 2], "status": "Inactive"}`,
	}}
	api := New(f, nil)

	st, err := api.Students.Add(ctx, models.StudentInput{Nom: "Alaoui", Prenom: "Sara", Level: 1, Mail: "sara@school.ma", Numero: "0600000000"})
	if err != nil {
		t.Fatalf("add student: %v", err)
	}
	if st.ID != 12 || st.FullName() != "Sara Alaoui" || st.LevelName != "1AC" {
		t.Fatalf("unexpected student %+v", st)
	}
	tc, err := api.Teachers.Edit(ctx, 10, models.TeacherInput{Nom: "Benali", Prenom: "Amine", Subject: 3, Mail: "amine@school.ma", Numero: "0611111111", Status: "Inactive"})
	if err != nil {
		t.Fatalf("edit teacher: %v", err)
	}
	if tc.Subject.ID != 3 || len(tc.Levels) != 2 || tc.Status != "Inactive" {
		t.Fatalf("unexpected teacher %+v", tc)
	}

	n := len(f.calls)
	_, err = api.Teachers.Add(ctx, models.TeacherInput{Nom: "X", Prenom: "Y", Subject: 3, Mail: "nope", Numero: "1"})
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) || len(f.calls) != n {
		t.Fatalf("expected a local validation error without a request, got %v", err)
	}
}
