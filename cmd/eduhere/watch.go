package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/app"
	"github.com/Spok95/eduhere-client/internal/jobs"
	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/notify"
	"github.com/Spok95/eduhere-client/internal/realtime"
	"github.com/Spok95/eduhere-client/internal/school"
)

// view is what the agent follows for the logged-in role.
type view struct {
	fetch      app.Fetcher
	filter     realtime.Filter
	perStudent bool
	schedule   func(context.Context) ([]models.ScheduleEntry, error)
}

func (cli *commandLine) buildView(ctx context.Context) (*view, error) {
	role, err := cli.sess.Role(ctx)
	if err != nil {
		return nil, err
	}
	today := func() string { return time.Now().In(cli.cfg.Location).Format("2006-01-02") }
	switch role {
	case models.Student:
		p, err := cli.api.Profiles.Student(ctx)
		if err != nil {
			return nil, err
		}
		return &view{
			fetch: func(ctx context.Context) (school.StatusMap, error) {
				return cli.api.Attendance.Mine(ctx, today())
			},
			filter:   realtime.ForStudent(p.StudentID),
			schedule: cli.api.Schedules.Mine,
		}, nil
	case models.Teacher:
		p, err := cli.api.Profiles.Teacher(ctx)
		if err != nil {
			return nil, err
		}
		return &view{
			fetch: func(ctx context.Context) (school.StatusMap, error) {
				recs, err := cli.api.Attendance.Teacher(ctx, p.TeacherID)
				if err != nil {
					return nil, err
				}
				return school.Index(recs), nil
			},
			filter:     realtime.ForTeacher(p.TeacherID),
			perStudent: true,
			schedule: func(ctx context.Context) ([]models.ScheduleEntry, error) {
				return cli.api.Schedules.Teacher(ctx, p.TeacherID)
			},
		}, nil
	case models.Parent:
		p, err := cli.api.Profiles.Parent(ctx)
		if err != nil {
			return nil, err
		}
		kids := make(map[models.ID]bool, len(p.Children))
		for _, c := range p.Children {
			kids[c.ID] = true
		}
		return &view{
			fetch: func(ctx context.Context) (school.StatusMap, error) {
				recs, err := cli.api.Attendance.Children(ctx, "")
				if err != nil {
					return nil, err
				}
				return school.Index(recs), nil
			},
			filter:     func(u models.AttendanceUpdate) bool { return kids[u.StudentID] },
			perStudent: true,
			schedule:   cli.api.Schedules.Children,
		}, nil
	}
	return nil, fmt.Errorf("watch needs a student, teacher or parent session (have %q)", role)
}

func (cli *commandLine) notifier() notify.Notifier {
	var n notify.Multi
	n = append(n, notify.Log{L: cli.log.Named("notify")})
	if cli.cfg.TelegramToken != "" && cli.cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cli.cfg.TelegramToken, cli.cfg.TelegramChatID, cli.log.Named("telegram"))
		if err != nil {
			cli.log.Warn("telegram disabled", zap.Error(err))
		} else {
			n = append(n, tg)
		}
	}
	return n
}

// watch runs until ctx ends: websocket pushes and polling feed one
// AttendanceSync, notifications go out, /healthz and /metrics are served.
func (cli *commandLine) watch(ctx context.Context, args []string) error {
	fs := cli.flags("watch")
	addr := fs.String("http", cli.cfg.HTTPAddr, "listen address for /healthz and /metrics")
	if err := parse(fs, args); err != nil {
		return err
	}
	v, err := cli.buildView(ctx)
	if err != nil {
		return &bannerError{banner: app.BannerFor(err), err: err}
	}

	n := cli.notifier()
	sync := app.NewAttendanceSync(v.fetch, app.SyncConfig{
		MinInterval: cli.cfg.PollInterval / 2,
		Notifier:    n,
		Filter:      v.filter,
		PerStudent:  v.perStudent,
		Log:         cli.log.Named("sync"),
	})
	sync.OnChange(func(key string, st models.AttendanceStatus) {
		fmt.Fprintf(cli.out, "%s %s\n", key, st.Label())
	})
	if entries, err := v.schedule(ctx); err != nil {
		cli.log.Warn("schedule unavailable, notifications without subject", zap.Error(err))
	} else {
		sync.SetSchedule(entries)
	}

	hub := realtime.NewHub(cli.log.Named("hub"))
	defer hub.Close()
	pushes := make(chan models.AttendanceUpdate, 64)
	sub := realtime.NewSubscriber(cli.cfg.WSURL, cli.sess, cli.ref, realtime.WithLogger(cli.log.Named("ws")))
	go func() {
		err := sub.Run(ctx, pushes)
		if errors.Is(err, apierr.ErrSessionExpired) {
			cli.log.Warn("websocket stopped, polling only", zap.Error(err))
		}
	}()
	go hub.Run(ctx, pushes)
	updates, cancel := hub.Subscribe(v.filter, 32)
	defer cancel()
	go sync.Run(ctx, updates)

	runner := jobs.New(ctx, cli.log.Named("jobs"))
	runner.Every(cli.cfg.PollInterval, "attendance_poll", sync.Refresh)
	if cli.cfg.DigestOn {
		hh, mm := int(cli.cfg.DigestAt/time.Hour), int(cli.cfg.DigestAt%time.Hour/time.Minute)
		runner.DailyAt(hh, mm, cli.cfg.Location, "attendance_digest", app.DailyDigest(sync, n, cli.cfg.Location))
	}

	app.StartHTTP(ctx, *addr, app.Routes(cli.sess, sync.Snapshot), cli.log.Named("http"))
	cli.log.Info("watching attendance", zap.String("ws", cli.cfg.WSURL), zap.Duration("poll", cli.cfg.PollInterval))

	<-ctx.Done()
	runner.Wait()
	return nil
}
