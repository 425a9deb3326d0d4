package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Spok95/eduhere-client/internal/app"
	"github.com/Spok95/eduhere-client/internal/models"
)

// students lists the admin's roster, or a teacher's class with -teacher
// (a teacher session defaults to its own class).
func (cli *commandLine) students(ctx context.Context, args []string) error {
	fs := cli.flags("students")
	teacher := fs.Int64("teacher", 0, "students on one teacher's levels")
	if err := parse(fs, args); err != nil {
		return err
	}
	role, err := cli.sess.Role(ctx)
	if err != nil {
		return err
	}
	var list []models.StudentRecord
	switch {
	case *teacher != 0:
		list, err = load(ctx, cli, nil, func(ctx context.Context) ([]models.StudentRecord, error) {
			return cli.api.Teachers.Students(ctx, models.ID(*teacher))
		})
	case role == models.Teacher:
		list, err = load(ctx, cli, nil, func(ctx context.Context) ([]models.StudentRecord, error) {
			p, err := cli.api.Profiles.Teacher(ctx)
			if err != nil {
				return nil, err
			}
			return cli.api.Teachers.Students(ctx, p.TeacherID)
		})
	default:
		list, err = load(ctx, cli, app.RequireRole(cli.sess, models.Admin), cli.api.Students.List)
	}
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLEVEL\tMAIL\tADMISSION")
	for _, s := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.FullName(), s.LevelName, s.Mail, s.Admission)
	}
	return tw.Flush()
}

func (cli *commandLine) teachers(ctx context.Context, args []string) error {
	fs := cli.flags("teachers")
	if err := parse(fs, args); err != nil {
		return err
	}
	list, err := load(ctx, cli, app.RequireRole(cli.sess, models.Admin), cli.api.Teachers.List)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSUBJECT\tLEVELS\tSTATUS")
	for _, t := range list {
		levels := make([]string, 0, len(t.Levels))
		for _, l := range t.Levels {
			levels = append(levels, l.String())
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.FullName(), t.Subject, strings.Join(levels, ","), t.Status)
	}
	return tw.Flush()
}
