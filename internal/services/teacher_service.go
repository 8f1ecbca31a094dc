package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/majdjoubi/halqa/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TeacherService serves the public browse/search surface over teacher
// profiles.
type TeacherService struct {
	directory models.TeacherDirectory
}

func NewTeacherService(directory models.TeacherDirectory) *TeacherService {
	return &TeacherService{directory: directory}
}

// ListTeachers returns verified teachers matching the optional specialization
// query, paginated. Page numbering starts at 1.
func (ts *TeacherService) ListTeachers(ctx context.Context, query string, page, limit int) ([]*models.TeacherProfile, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset := (page - 1) * limit
	return ts.directory.ListTeachers(ctx, strings.TrimSpace(query), offset, limit)
}

func (ts *TeacherService) GetTeacherByID(ctx context.Context, id string) (*models.TeacherProfile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("teacher ID is required")
	}
	return ts.directory.GetTeacherByID(ctx, id)
}
