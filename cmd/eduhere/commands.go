package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/Spok95/eduhere-client/internal/app"
	"github.com/Spok95/eduhere-client/internal/auth"
	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/school"
)

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flags("login")
	username := fs.String("username", "", "username or email")
	roleFlag := fs.String("role", "student", "student|teacher|parent|admin")
	if err := parse(fs, args); err != nil {
		return err
	}
	role, ok := models.ParseRole(*roleFlag)
	if *username == "" || !ok {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.readPassword()
	if err != nil {
		return err
	}
	res, err := cli.auth.Login(ctx, *username, pwd, role)
	if err != nil {
		return &bannerError{banner: app.BannerFor(err), err: err}
	}
	fmt.Fprintf(cli.out, "Logged in as %s (%s).\n", res.Username, res.Role)
	return nil
}

func (cli *commandLine) logout(ctx context.Context, args []string) error {
	if err := parse(cli.flags("logout"), args); err != nil {
		return err
	}
	if err := cli.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Logged out.")
	return nil
}

func (cli *commandLine) whoami(ctx context.Context, args []string) error {
	if err := parse(cli.flags("whoami"), args); err != nil {
		return err
	}
	s, err := cli.sess.Load(ctx)
	if err != nil {
		return err
	}
	if s.Empty() {
		fmt.Fprintln(cli.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(cli.out, "role: %s\n", s.Role)
	if exp, err := auth.TokenExpiry(s.AccessToken); err == nil {
		left := time.Until(exp).Round(time.Second)
		if left < 0 {
			fmt.Fprintf(cli.out, "access token expired at %s (will refresh on next request)\n", exp.Format(time.RFC3339))
		} else {
			fmt.Fprintf(cli.out, "access token expires at %s (in %s)\n", exp.Format(time.RFC3339), left)
		}
	}
	if s.RefreshToken == "" {
		fmt.Fprintln(cli.out, "no refresh token stored")
	}
	return nil
}

func (cli *commandLine) fetchGrades(ctx context.Context, children bool) ([]models.Grade, error) {
	if children {
		return load(ctx, cli, app.RequireRole(cli.sess, models.Parent), cli.api.Grades.Children)
	}
	return load(ctx, cli, app.RequireRole(cli.sess, models.Student), cli.api.Grades.Mine)
}

func (cli *commandLine) grades(ctx context.Context, args []string) error {
	fs := cli.flags("grades")
	children := fs.Bool("children", false, "grades of the linked children (parent)")
	if err := parse(fs, args); err != nil {
		return err
	}
	grades, err := cli.fetchGrades(ctx, *children)
	if err != nil {
		return err
	}
	if len(grades) == 0 {
		fmt.Fprintln(cli.out, "No grades yet.")
		return nil
	}
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	if *children {
		fmt.Fprintln(tw, "STUDENT\tSUBJECT\tTYPE\tGRADE\tDATE")
	} else {
		fmt.Fprintln(tw, "SUBJECT\tTYPE\tGRADE\tDATE")
	}
	for _, g := range grades {
		date := g.DateG
		if d := g.Date(); !d.IsZero() {
			date = d.Format("2006-01-02")
		}
		if *children {
			fmt.Fprintf(tw, "%s\t", g.Student.FullName())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Subject, g.GradeType, g.Grade, date)
	}
	return tw.Flush()
}

func (cli *commandLine) stats(ctx context.Context, args []string) error {
	fs := cli.flags("stats")
	children := fs.Bool("children", false, "statistics over the linked children (parent)")
	if err := parse(fs, args); err != nil {
		return err
	}
	grades, err := cli.fetchGrades(ctx, *children)
	if err != nil {
		return err
	}
	st := school.GradeStats(grades)
	fmt.Fprintf(cli.out, "Count: %d\nAverage: %.2f\nHighest: %.2f\nLowest: %.2f\n", st.Count, st.Average, st.Highest, st.Lowest)

	by := school.StatsBySubject(grades)
	if len(by) < 2 {
		return nil
	}
	subjects := make([]string, 0, len(by))
	for s := range by {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	fmt.Fprintln(cli.out)
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tCOUNT\tAVERAGE\tHIGHEST\tLOWEST")
	for _, s := range subjects {
		x := by[s]
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n", s, x.Count, x.Average, x.Highest, x.Lowest)
	}
	return tw.Flush()
}

func (cli *commandLine) schedule(ctx context.Context, args []string) error {
	fs := cli.flags("schedule")
	children := fs.Bool("children", false, "timetable of the linked children (parent)")
	teacher := fs.Int64("teacher", 0, "timetable of one teacher")
	if err := parse(fs, args); err != nil {
		return err
	}
	var (
		entries []models.ScheduleEntry
		err     error
	)
	switch {
	case *teacher != 0:
		entries, err = load(ctx, cli, nil, func(ctx context.Context) ([]models.ScheduleEntry, error) {
			return cli.api.Schedules.Teacher(ctx, models.ID(*teacher))
		})
	case *children:
		entries, err = load(ctx, cli, app.RequireRole(cli.sess, models.Parent), cli.api.Schedules.Children)
	default:
		entries, err = load(ctx, cli, app.RequireRole(cli.sess, models.Student), cli.api.Schedules.Mine)
	}
	if err != nil {
		return err
	}
	school.SortSchedule(entries)
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDAY\tTIME\tSUBJECT\tTEACHER\tCLASS\tCHILD")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s-%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Day, e.StartTime, e.EndTime, e.Subject, e.Teacher, e.Classe, e.ChildNames)
	}
	return tw.Flush()
}

func (cli *commandLine) attendance(ctx context.Context, args []string) error {
	fs := cli.flags("attendance")
	children := fs.Bool("children", false, "attendance of the linked children (parent)")
	student := fs.Int64("student", 0, "attendance of one student (teacher)")
	teacher := fs.Int64("teacher", 0, "attendance marked by one teacher")
	date := fs.String("date", "", "YYYY-MM-DD")
	if err := parse(fs, args); err != nil {
		return err
	}
	switch {
	case *children:
		recs, err := load(ctx, cli, app.RequireRole(cli.sess, models.Parent), func(ctx context.Context) ([]models.AttendanceRecord, error) {
			return cli.api.Attendance.Children(ctx, *date)
		})
		if err != nil {
			return err
		}
		return cli.printRecords(recs)
	case *teacher != 0:
		recs, err := load(ctx, cli, nil, func(ctx context.Context) ([]models.AttendanceRecord, error) {
			return cli.api.Attendance.Teacher(ctx, models.ID(*teacher))
		})
		if err != nil {
			return err
		}
		return cli.printRecords(recs)
	case *student != 0:
		m, err := load(ctx, cli, nil, func(ctx context.Context) (school.StatusMap, error) {
			return cli.api.Attendance.Student(ctx, models.ID(*student), *date)
		})
		if err != nil {
			return err
		}
		return cli.printStatusMap(m)
	default:
		m, err := load(ctx, cli, app.RequireRole(cli.sess, models.Student), func(ctx context.Context) (school.StatusMap, error) {
			return cli.api.Attendance.Mine(ctx, *date)
		})
		if err != nil {
			return err
		}
		return cli.printStatusMap(m)
	}
}

func (cli *commandLine) printRecords(recs []models.AttendanceRecord) error {
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSTUDENT\tSCHEDULE\tSUBJECT\tSTATUS")
	for _, r := range recs {
		who := r.ChildNames
		if who == "" {
			who = r.Student.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.Date, who, r.Schedule, r.Subject, r.Status.Label())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cli.printSummary(school.SummarizeAttendance(recs))
	return nil
}

func (cli *commandLine) printStatusMap(m school.StatusMap) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSCHEDULE\tSTATUS")
	for _, k := range keys {
		date, sched, ok := school.SplitKey(k)
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", date, sched, m[k].Label())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cli.printSummary(school.SummarizeStatuses(m))
	return nil
}

func (cli *commandLine) printSummary(s school.AttendanceSummary) {
	fmt.Fprintf(cli.out, "Total: %d", s.Total)
	for _, st := range []models.AttendanceStatus{models.Present, models.Absent, models.Late, models.Pending} {
		if n := s.ByStatus[st]; n > 0 {
			fmt.Fprintf(cli.out, ", %s: %d", st.Label(), n)
		}
	}
	fmt.Fprintln(cli.out)
}

func (cli *commandLine) mark(ctx context.Context, args []string) error {
	fs := cli.flags("mark")
	student := fs.Int64("student", 0, "student id")
	sched := fs.Int64("schedule", 0, "schedule id")
	date := fs.String("date", time.Now().In(cli.cfg.Location).Format("2006-01-02"), "YYYY-MM-DD")
	status := fs.String("status", "", "present|absent|late|pending")
	if err := parse(fs, args); err != nil {
		return err
	}
	in := models.AttendanceInput{
		Student:  models.ID(*student),
		Schedule: models.ID(*sched),
		Date:     *date,
		Status:   models.AttendanceStatus(*status),
	}
	if err := cli.api.Attendance.Mark(ctx, in); err != nil {
		return &bannerError{banner: app.BannerFor(err), err: err}
	}
	fmt.Fprintf(cli.out, "Marked student %d %s on %s.\n", *student, models.NormalizeStatus(*status).Label(), *date)
	return nil
}

func (cli *commandLine) addGrade(ctx context.Context, args []string) error {
	fs := cli.flags("add-grade")
	student := fs.Int64("student", 0, "student id")
	subject := fs.Int64("subject", 0, "subject id")
	level := fs.Int64("level", 0, "level id")
	value := fs.Float64("grade", -1, "0-20")
	typ := fs.String("type", string(models.Test1), "Test1|Test2|Test3")
	if err := parse(fs, args); err != nil {
		return err
	}
	g, err := cli.api.Grades.Add(ctx, models.GradeInput{
		Student:   models.ID(*student),
		Subject:   models.ID(*subject),
		Level:     models.ID(*level),
		Grade:     *value,
		GradeType: models.GradeType(*typ),
	})
	if err != nil {
		return &bannerError{banner: app.BannerFor(err), err: err}
	}
	fmt.Fprintf(cli.out, "Grade %d added: %s %s.\n", g.ID, g.Subject, g.Grade)
	return nil
}
