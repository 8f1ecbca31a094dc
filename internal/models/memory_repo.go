package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemoryProfileRepo is the non-persistent profile store backing the local
// auth backend when Supabase is unconfigured. Nothing survives a restart;
// it exists purely as a development/demo stand-in.
type MemoryProfileRepo struct {
	mu       sync.RWMutex
	students map[string]*StudentProfile // keyed by user_id
	teachers map[string]*TeacherProfile
	nextID   int
}

func NewMemoryProfileRepo() *MemoryProfileRepo {
	return &MemoryProfileRepo{
		students: make(map[string]*StudentProfile),
		teachers: make(map[string]*TeacherProfile),
	}
}

func (m *MemoryProfileRepo) GetStudentByUserID(ctx context.Context, userID, accessToken string) (*StudentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.students[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *MemoryProfileRepo) GetTeacherByUserID(ctx context.Context, userID, accessToken string) (*TeacherProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.teachers[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *MemoryProfileRepo) InsertStudent(ctx context.Context, profile *StudentProfile, accessToken string) (*StudentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.students[profile.UserID]; exists {
		return nil, fmt.Errorf("student profile already exists for user %s", profile.UserID)
	}
	clone := *profile
	m.nextID++
	clone.ID = fmt.Sprintf("mem-student-%d", m.nextID)
	m.students[profile.UserID] = &clone
	out := clone
	return &out, nil
}

func (m *MemoryProfileRepo) InsertTeacher(ctx context.Context, profile *TeacherProfile, accessToken string) (*TeacherProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.teachers[profile.UserID]; exists {
		return nil, fmt.Errorf("teacher profile already exists for user %s", profile.UserID)
	}
	clone := *profile
	m.nextID++
	clone.ID = fmt.Sprintf("mem-teacher-%d", m.nextID)
	m.teachers[profile.UserID] = &clone
	out := clone
	return &out, nil
}

func (m *MemoryProfileRepo) UpsertStudent(ctx context.Context, userID string, fields map[string]interface{}, accessToken string) (*StudentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := &StudentProfile{UserID: userID, Level: LevelBeginner}
	if existing, ok := m.students[userID]; ok {
		clone := *existing
		base = &clone
	}
	if err := applyFields(base, fields); err != nil {
		return nil, err
	}
	base.UserID = userID
	m.students[userID] = base
	out := *base
	return &out, nil
}

func (m *MemoryProfileRepo) UpsertTeacher(ctx context.Context, userID string, fields map[string]interface{}, accessToken string) (*TeacherProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := &TeacherProfile{UserID: userID, Languages: []string{"Arabic"}}
	if existing, ok := m.teachers[userID]; ok {
		clone := *existing
		base = &clone
	}
	if err := applyFields(base, fields); err != nil {
		return nil, err
	}
	base.UserID = userID
	m.teachers[userID] = base
	out := *base
	return &out, nil
}

func (m *MemoryProfileRepo) ListTeachers(ctx context.Context, query string, offset, limit int) ([]*TeacherProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*TeacherProfile, 0, len(m.teachers))
	lower := strings.ToLower(query)
	for _, t := range m.teachers {
		// Same contract as the postgrest query: verified teachers only,
		// matched on specialization or name.
		if !t.IsVerified {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Specialization), lower) &&
			!strings.Contains(strings.ToLower(t.Name), lower) {
			continue
		}
		clone := *t
		matched = append(matched, &clone)
	}

	if offset >= len(matched) {
		return []*TeacherProfile{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *MemoryProfileRepo) GetTeacherByID(ctx context.Context, id string) (*TeacherProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.teachers {
		if t.ID == id {
			clone := *t
			return &clone, nil
		}
	}
	return nil, ErrProfileNotFound
}

// applyFields overlays a partial-update map onto a profile struct by
// round-tripping through JSON, mirroring how the Supabase path applies the
// same map server-side.
func applyFields(target interface{}, fields map[string]interface{}) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal update fields: %v", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to apply update fields: %v", err)
	}
	return nil
}
