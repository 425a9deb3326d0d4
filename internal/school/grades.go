package school

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/ctxutil"
	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/validate"
)

type GradeService struct {
	c   Doer
	log *zap.Logger
}

func (s *GradeService) list(ctx context.Context, op, path string) ([]models.Grade, error) {
	var out []models.Grade
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, op), path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Mine lists the logged-in student's grades.
func (s *GradeService) Mine(ctx context.Context) ([]models.Grade, error) {
	return s.list(ctx, "grades.mine", "/api/student/grades/")
}

// Children lists the grades of every child linked to the parent.
func (s *GradeService) Children(ctx context.Context) ([]models.Grade, error) {
	return s.list(ctx, "grades.children", "/api/parent/children/grades/")
}

func (s *GradeService) List(ctx context.Context) ([]models.Grade, error) {
	return s.list(ctx, "grades.list", "/api/grades/list/")
}

func (s *GradeService) Add(ctx context.Context, in models.GradeInput) (*models.Grade, error) {
	if err := validate.GradeInput(in); err != nil {
		return nil, err
	}
	var g models.Grade
	if err := s.c.PostJSON(ctxutil.WithOp(ctx, "grades.add"), "/api/grades/add/", in, &g); err != nil {
		return nil, err
	}
	s.log.Info("grade added", zap.Int64("student", int64(in.Student)), zap.Float64("grade", in.Grade))
	return &g, nil
}

func (s *GradeService) Edit(ctx context.Context, id models.ID, in models.GradeInput) (*models.Grade, error) {
	if err := validate.GradeInput(in); err != nil {
		return nil, err
	}
	var g models.Grade
	if err := s.c.PutJSON(ctxutil.WithOp(ctx, "grades.edit"), fmt.Sprintf("/api/grades/edit/%d/", id), in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GradeService) Delete(ctx context.Context, id models.ID) error {
	return s.c.DeleteJSON(ctxutil.WithOp(ctx, "grades.delete"), fmt.Sprintf("/api/grades/delete/%d/", id), nil)
}
