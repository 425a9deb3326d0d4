package export

import (
	"sort"

	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/school"
)

func GradesWorkbook(grades []models.Grade) (*Workbook, error) {
	rows := make([][]any, 0, len(grades))
	for _, g := range grades {
		var val any = g.Grade.String()
		if g.Grade.Valid {
			val = g.Grade.Value
		}
		date := g.DateG
		if d := g.Date(); !d.IsZero() {
			date = d.Format("2006-01-02")
		}
		rows = append(rows, []any{
			studentName(g.Student), g.Subject.String(), string(g.GradeType), val, date, g.Level.String(),
		})
	}

	bySubject := school.StatsBySubject(grades)
	subjects := make([]string, 0, len(bySubject))
	for s := range bySubject {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	summary := make([][]any, 0, len(subjects)+1)
	for _, s := range subjects {
		summary = append(summary, statsRow(s, bySubject[s]))
	}
	summary = append(summary, statsRow("All subjects", school.GradeStats(grades)))

	return NewWorkbook("grades", []SheetSpec{
		{Title: "Grades", Header: []string{"Student", "Subject", "Type", "Grade", "Date", "Level"}, Rows: rows},
		{Title: "Summary", Header: []string{"Subject", "Count", "Average", "Highest", "Lowest"}, Rows: summary},
	})
}

func statsRow(label string, st school.Stats) []any {
	return []any{label, st.Count, st.Average, st.Highest, st.Lowest}
}

func studentName(p models.Person) string {
	if n := p.FullName(); n != "" {
		return n
	}
	if p.ID != 0 {
		return "#" + p.ID.String()
	}
	return "N/A"
}

func AttendanceWorkbook(recs []models.AttendanceRecord) (*Workbook, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			r.Date, int64(r.Student), int64(r.Schedule), r.Subject.String(), r.Status.Label(), r.ChildNames,
		})
	}
	sum := school.SummarizeAttendance(recs)
	summary := make([][]any, 0, 6)
	for _, st := range []models.AttendanceStatus{models.Present, models.Absent, models.Late, models.Pending, models.NotSet} {
		summary = append(summary, []any{st.Label(), sum.ByStatus[st]})
	}
	summary = append(summary, []any{"Total", sum.Total})

	return NewWorkbook("attendance", []SheetSpec{
		{Title: "Attendance", Header: []string{"Date", "Student", "Schedule", "Subject", "Status", "Children"}, Rows: rows},
		{Title: "Summary", Header: []string{"Status", "Count"}, Rows: summary},
	})
}

// AttendanceMapWorkbook exports a keyed status map (student and teacher views).
func AttendanceMapWorkbook(m school.StatusMap) (*Workbook, error) {
	recs := make([]models.AttendanceRecord, 0, len(m))
	for k, st := range m {
		date, sched, ok := school.SplitKey(k)
		if !ok {
			continue
		}
		recs = append(recs, models.AttendanceRecord{Date: date, Schedule: sched, Status: st})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Date != recs[j].Date {
			return recs[i].Date < recs[j].Date
		}
		return recs[i].Schedule < recs[j].Schedule
	})
	return AttendanceWorkbook(recs)
}
