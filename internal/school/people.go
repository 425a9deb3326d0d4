package school

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/ctxutil"
	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/validate"
)

// StudentService is the admin's student roster.
type StudentService struct {
	c   Doer
	log *zap.Logger
}

func (s *StudentService) List(ctx context.Context) ([]models.StudentRecord, error) {
	var out []models.StudentRecord
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "students.list"), "/api/students/list/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the detail card: grades, attendance rate and records.
func (s *StudentService) Get(ctx context.Context, id models.ID) (*models.StudentDetail, error) {
	var d models.StudentDetail
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "students.get"), fmt.Sprintf("/api/students/%d/", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *StudentService) Add(ctx context.Context, in models.StudentInput) (*models.StudentRecord, error) {
	if err := validate.StudentInput(in); err != nil {
		return nil, err
	}
	var out models.StudentRecord
	if err := s.c.PostJSON(ctxutil.WithOp(ctx, "students.add"), "/api/students/add/", in, &out); err != nil {
		return nil, err
	}
	s.log.Info("student added", zap.Int64("id", int64(out.ID)), zap.String("mail", in.Mail))
	return &out, nil
}

func (s *StudentService) Edit(ctx context.Context, id models.ID, in models.StudentInput) (*models.StudentRecord, error) {
	if err := validate.StudentInput(in); err != nil {
		return nil, err
	}
	var out models.StudentRecord
	if err := s.c.PutJSON(ctxutil.WithOp(ctx, "students.edit"), fmt.Sprintf("/api/students/edit/%d/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *StudentService) Delete(ctx context.Context, id models.ID) error {
	return s.c.DeleteJSON(ctxutil.WithOp(ctx, "students.delete"), fmt.Sprintf("/api/students/delete/%d/", id), nil)
}

// TeacherService is the admin's teacher roster, plus the class list a
// teacher grades from.
type TeacherService struct {
	c   Doer
	log *zap.Logger
}

func (s *TeacherService) List(ctx context.Context) ([]models.TeacherRecord, error) {
	var out []models.TeacherRecord
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "teachers.list"), "/api/teachers/list/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TeacherService) Get(ctx context.Context, id models.ID) (*models.TeacherDetail, error) {
	var d models.TeacherDetail
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "teachers.get"), fmt.Sprintf("/api/teachers/%d/", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Students lists the students on the teacher's levels.
func (s *TeacherService) Students(ctx context.Context, id models.ID) ([]models.StudentRecord, error) {
	var out []models.StudentRecord
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "teachers.students"), fmt.Sprintf("/api/teachers/%d/students/", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TeacherService) Add(ctx context.Context, in models.TeacherInput) (*models.TeacherRecord, error) {
	if err := validate.TeacherInput(in); err != nil {
		return nil, err
	}
	var out models.TeacherRecord
	if err := s.c.PostJSON(ctxutil.WithOp(ctx, "teachers.add"), "/api/teachers/add/", in, &out); err != nil {
		return nil, err
	}
	s.log.Info("teacher added", zap.Int64("id", int64(out.ID)), zap.String("mail", in.Mail))
	return &out, nil
}

func (s *TeacherService) Edit(ctx context.Context, id models.ID, in models.TeacherInput) (*models.TeacherRecord, error) {
	if err := validate.TeacherInput(in); err != nil {
		return nil, err
	}
	var out models.TeacherRecord
	if err := s.c.PutJSON(ctxutil.WithOp(ctx, "teachers.edit"), fmt.Sprintf("/api/teachers/edit/%d/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TeacherService) Delete(ctx context.Context, id models.ID) error {
	return s.c.DeleteJSON(ctxutil.WithOp(ctx, "teachers.delete"), fmt.Sprintf("/api/teachers/delete/%d/", id), nil)
}
