package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	StudentsTable = "students"
	TeachersTable = "teachers"
)

// ErrProfileNotFound marks the distinguishable "no rows" outcome of a profile
// lookup. Callers treat it as non-fatal and degrade to an empty profile.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepo is the store of role-specific profile rows, keyed by user_id.
type ProfileRepo interface {
	GetStudentByUserID(ctx context.Context, userID, accessToken string) (*StudentProfile, error)
	GetTeacherByUserID(ctx context.Context, userID, accessToken string) (*TeacherProfile, error)
	InsertStudent(ctx context.Context, profile *StudentProfile, accessToken string) (*StudentProfile, error)
	InsertTeacher(ctx context.Context, profile *TeacherProfile, accessToken string) (*TeacherProfile, error)
	UpsertStudent(ctx context.Context, userID string, fields map[string]interface{}, accessToken string) (*StudentProfile, error)
	UpsertTeacher(ctx context.Context, userID string, fields map[string]interface{}, accessToken string) (*TeacherProfile, error)
}

// TeacherDirectory is the public browse/search surface over teacher profiles.
type TeacherDirectory interface {
	ListTeachers(ctx context.Context, query string, offset, limit int) ([]*TeacherProfile, error)
	GetTeacherByID(ctx context.Context, id string) (*TeacherProfile, error)
}

func (su *SupabaseRepo) GetStudentByUserID(ctx context.Context, userID, accessToken string) (*StudentProfile, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(StudentsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get student profile: %v", err)
	}

	// Supabase returns an array even for single results
	var rows []StudentProfile
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal student rows: %v", err)
	}
	if len(rows) == 0 {
		return nil, ErrProfileNotFound
	}

	return &rows[0], nil
}

func (su *SupabaseRepo) GetTeacherByUserID(ctx context.Context, userID, accessToken string) (*TeacherProfile, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(TeachersTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher profile: %v", err)
	}

	var rows []TeacherProfile
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal teacher rows: %v", err)
	}
	if len(rows) == 0 {
		return nil, ErrProfileNotFound
	}

	return &rows[0], nil
}

func (su *SupabaseRepo) InsertStudent(ctx context.Context, profile *StudentProfile, accessToken string) (*StudentProfile, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, count, err := client.From(StudentsTable).
		Insert(profile, false, "", "", "exact").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert student profile: %v", err)
	}

	var rows []StudentProfile
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inserted student: %v", err)
	}
	if count == 0 || len(rows) == 0 {
		return nil, fmt.Errorf("no student row returned after insert")
	}

	return &rows[0], nil
}

func (su *SupabaseRepo) InsertTeacher(ctx context.Context, profile *TeacherProfile, accessToken string) (*TeacherProfile, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, count, err := client.From(TeachersTable).
		Insert(profile, false, "", "", "exact").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert teacher profile: %v", err)
	}

	var rows []TeacherProfile
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inserted teacher: %v", err)
	}
	if count == 0 || len(rows) == 0 {
		return nil, fmt.Errorf("no teacher row returned after insert")
	}

	return &rows[0], nil
}

func (su *SupabaseRepo) UpsertStudent(ctx context.Context, userID string, fields map[string]interface{}, accessToken string) (*StudentProfile, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	fields["user_id"] = userID

	raw, count, err := client.From(StudentsTable).
		Insert(fields, true, "user_id", "", "exact").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to upsert student profile: %v", err)
	}

	var rows []StudentProfile
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upserted student: %v", err)
	}
	if count == 0 || len(rows) == 0 {
		return nil, fmt.Errorf("no student row returned after upsert")
	}

	return &rows[0], nil
}

func (su *SupabaseRepo) UpsertTeacher(ctx context.Context, userID string, fields map[string]interface{}, accessToken string) (*TeacherProfile, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	fields["user_id"] = userID

	raw, count, err := client.From(TeachersTable).
		Insert(fields, true, "user_id", "", "exact").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to upsert teacher profile: %v", err)
	}

	var rows []TeacherProfile
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upserted teacher: %v", err)
	}
	if count == 0 || len(rows) == 0 {
		return nil, fmt.Errorf("no teacher row returned after upsert")
	}

	return &rows[0], nil
}

func (su *SupabaseRepo) ListTeachers(ctx context.Context, query string, offset, limit int) ([]*TeacherProfile, error) {
	builder := su.supabaseClient.From(TeachersTable).
		Select("*", "exact", false).
		Eq("is_verified", "true")

	if query != "" {
		pattern := "*" + query + "*"
		builder = builder.Or(fmt.Sprintf("specialization.ilike.%s,name.ilike.%s", pattern, pattern), "")
	}

	raw, count, err := builder.Range(offset, offset+limit-1, "").Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %v", err)
	}

	if count == 0 {
		return []*TeacherProfile{}, nil
	}

	var rows []TeacherProfile
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal teachers: %v", err)
	}

	teachers := make([]*TeacherProfile, 0, len(rows))
	for i := range rows {
		teachers = append(teachers, &rows[i])
	}
	return teachers, nil
}

func (su *SupabaseRepo) GetTeacherByID(ctx context.Context, id string) (*TeacherProfile, error) {
	raw, _, err := su.supabaseClient.From(TeachersTable).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %v", err)
	}

	var rows []TeacherProfile
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal teacher: %v", err)
	}
	if len(rows) == 0 {
		return nil, ErrProfileNotFound
	}

	return &rows[0], nil
}
