package school

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/ctxutil"
	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/validate"
)

type ScheduleService struct {
	c   Doer
	log *zap.Logger
}

func (s *ScheduleService) list(ctx context.Context, op, path string) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, op), path, nil, &out); err != nil {
		return nil, err
	}
	SortSchedule(out)
	return out, nil
}

func (s *ScheduleService) Mine(ctx context.Context) ([]models.ScheduleEntry, error) {
	return s.list(ctx, "schedules.mine", "/api/student/schedule/")
}

func (s *ScheduleService) Children(ctx context.Context) ([]models.ScheduleEntry, error) {
	return s.list(ctx, "schedules.children", "/api/parent/children/schedules/")
}

func (s *ScheduleService) Teacher(ctx context.Context, teacherID models.ID) ([]models.ScheduleEntry, error) {
	return s.list(ctx, "schedules.teacher", fmt.Sprintf("/api/schedules/teacher/%d/", teacherID))
}

func (s *ScheduleService) List(ctx context.Context) ([]models.ScheduleEntry, error) {
	return s.list(ctx, "schedules.list", "/api/schedules/list/")
}

func (s *ScheduleService) Level(ctx context.Context, levelID models.ID) ([]models.ScheduleEntry, error) {
	return s.list(ctx, "schedules.level", fmt.Sprintf("/api/schedules/level/%d/", levelID))
}

func (s *ScheduleService) Create(ctx context.Context, in models.ScheduleInput) (*models.ScheduleEntry, error) {
	if err := validate.ScheduleInput(in); err != nil {
		return nil, err
	}
	var e models.ScheduleEntry
	if err := s.c.PostJSON(ctxutil.WithOp(ctx, "schedules.create"), "/api/schedules/create/", in, &e); err != nil {
		return nil, err
	}
	s.log.Info("schedule created", zap.String("day", string(in.Day)), zap.String("start", in.StartTime))
	return &e, nil
}

func (s *ScheduleService) Update(ctx context.Context, id models.ID, in models.ScheduleInput) (*models.ScheduleEntry, error) {
	if err := validate.ScheduleInput(in); err != nil {
		return nil, err
	}
	var e models.ScheduleEntry
	if err := s.c.PutJSON(ctxutil.WithOp(ctx, "schedules.update"), fmt.Sprintf("/api/schedules/%d/update/", id), in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id models.ID) error {
	return s.c.DeleteJSON(ctxutil.WithOp(ctx, "schedules.delete"), fmt.Sprintf("/api/schedules/%d/delete/", id), nil)
}

// SortSchedule orders entries Monday first, then by start time.
func SortSchedule(entries []models.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].Day.Index(), entries[j].Day.Index()
		if di != dj {
			return di < dj
		}
		return entries[i].StartTime < entries[j].StartTime
	})
}
