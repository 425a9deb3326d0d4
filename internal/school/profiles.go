package school

import (
	"context"

	"github.com/Spok95/eduhere-client/internal/ctxutil"
	"github.com/Spok95/eduhere-client/internal/models"
)

type ProfileService struct {
	c Doer
}

func (s *ProfileService) Student(ctx context.Context) (*models.StudentProfile, error) {
	var p models.StudentProfile
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "profile.student"), "/api/student/profile/", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProfileService) Teacher(ctx context.Context) (*models.TeacherProfile, error) {
	var p models.TeacherProfile
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "profile.teacher"), "/api/teacher/profile/", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProfileService) Parent(ctx context.Context) (*models.ParentProfile, error) {
	var p models.ParentProfile
	if err := s.c.GetJSON(ctxutil.WithOp(ctx, "profile.parent"), "/api/parent/profile/", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
