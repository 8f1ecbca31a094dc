package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majdjoubi/halqa/internal/models"
)

type recordingDirectory struct {
	lastQuery  string
	lastOffset int
	lastLimit  int
}

func (d *recordingDirectory) ListTeachers(ctx context.Context, query string, offset, limit int) ([]*models.TeacherProfile, error) {
	d.lastQuery = query
	d.lastOffset = offset
	d.lastLimit = limit
	return []*models.TeacherProfile{}, nil
}

func (d *recordingDirectory) GetTeacherByID(ctx context.Context, id string) (*models.TeacherProfile, error) {
	return nil, models.ErrProfileNotFound
}

func TestListTeachersClampsPagination(t *testing.T) {
	dir := &recordingDirectory{}
	svc := NewTeacherService(dir)

	_, err := svc.ListTeachers(context.Background(), "  tajweed  ", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "tajweed", dir.lastQuery)
	assert.Equal(t, 0, dir.lastOffset, "page below 1 clamps to the first page")
	assert.Equal(t, defaultPageSize, dir.lastLimit)

	_, err = svc.ListTeachers(context.Background(), "", 3, 500)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, dir.lastLimit)
	assert.Equal(t, 2*maxPageSize, dir.lastOffset)
}

func TestGetTeacherByIDRequiresID(t *testing.T) {
	svc := NewTeacherService(&recordingDirectory{})

	_, err := svc.GetTeacherByID(context.Background(), "   ")
	require.Error(t, err)

	_, err = svc.GetTeacherByID(context.Background(), "t1")
	require.ErrorIs(t, err, models.ErrProfileNotFound)
}
