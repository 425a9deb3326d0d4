package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Spok95/eduhere-client/internal/export"
	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/school"
)

func (cli *commandLine) export(ctx context.Context, args []string) error {
	fs := cli.flags("export")
	what := fs.String("what", "grades", "grades|attendance")
	out := fs.String("out", ".", "output directory")
	date := fs.String("date", "", "attendance: YYYY-MM-DD (month for students, day for parents)")
	if err := parse(fs, args); err != nil {
		return err
	}
	role, err := cli.sess.Role(ctx)
	if err != nil {
		return err
	}

	var wb *export.Workbook
	switch *what {
	case "grades":
		wb, err = cli.gradesWorkbook(ctx, role)
	case "attendance":
		wb, err = cli.attendanceWorkbook(ctx, role, *date)
	default:
		fs.Usage()
		return errHelp
	}
	if err != nil {
		return err
	}
	path, err := wb.SaveTo(*out, time.Now().In(cli.cfg.Location))
	if err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	fmt.Fprintf(cli.out, "Saved %s\n", path)
	return nil
}

func (cli *commandLine) gradesWorkbook(ctx context.Context, role models.Role) (*export.Workbook, error) {
	fetch := cli.api.Grades.Mine
	switch role {
	case models.Parent:
		fetch = cli.api.Grades.Children
	case models.Teacher, models.Admin:
		fetch = cli.api.Grades.List
	}
	grades, err := load(ctx, cli, nil, fetch)
	if err != nil {
		return nil, err
	}
	return export.GradesWorkbook(grades)
}

func (cli *commandLine) attendanceWorkbook(ctx context.Context, role models.Role, date string) (*export.Workbook, error) {
	switch role {
	case models.Parent:
		recs, err := load(ctx, cli, nil, func(ctx context.Context) ([]models.AttendanceRecord, error) {
			return cli.api.Attendance.Children(ctx, date)
		})
		if err != nil {
			return nil, err
		}
		return export.AttendanceWorkbook(recs)
	case models.Teacher:
		recs, err := load(ctx, cli, nil, func(ctx context.Context) ([]models.AttendanceRecord, error) {
			p, err := cli.api.Profiles.Teacher(ctx)
			if err != nil {
				return nil, err
			}
			return cli.api.Attendance.Teacher(ctx, p.TeacherID)
		})
		if err != nil {
			return nil, err
		}
		return export.AttendanceWorkbook(recs)
	default:
		m, err := load(ctx, cli, nil, func(ctx context.Context) (school.StatusMap, error) {
			return cli.api.Attendance.Mine(ctx, date)
		})
		if err != nil {
			return nil, err
		}
		return export.AttendanceMapWorkbook(m)
	}
}
