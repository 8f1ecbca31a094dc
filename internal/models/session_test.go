package models

import "testing"

func TestParseRoleDefaultsToStudent(t *testing.T) {
	cases := map[string]Role{
		"teacher": RoleTeacher,
		"student": RoleStudent,
		"":        RoleStudent,
		"admin":   RoleStudent,
		"Teacher": RoleStudent,
	}
	for raw, want := range cases {
		if got := ParseRole(raw); got != want {
			t.Errorf("ParseRole(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestProfileAccessorsAreNilSafe(t *testing.T) {
	var p *Profile
	if p.Name() != "" || p.ImageURL() != "" {
		t.Error("expected empty values from nil profile")
	}

	p = &Profile{}
	if p.Name() != "" {
		t.Error("expected empty name from profile with neither side set")
	}

	p = &Profile{Student: &StudentProfile{Name: "Ali", ProfileImageURL: "https://cdn/ali.png"}}
	if p.Name() != "Ali" || p.ImageURL() != "https://cdn/ali.png" {
		t.Errorf("unexpected student accessors: %q %q", p.Name(), p.ImageURL())
	}

	p = &Profile{Teacher: &TeacherProfile{Name: "Um Ahmad"}}
	if p.Name() != "Um Ahmad" {
		t.Errorf("unexpected teacher name: %q", p.Name())
	}
}

func TestNewProfileDefaults(t *testing.T) {
	student := NewStudentProfile("u1", "Ali")
	if student.Level != LevelBeginner {
		t.Errorf("expected beginner level default, got %s", student.Level)
	}
	if student.UserID != "u1" || student.Name != "Ali" {
		t.Errorf("unexpected identity fields: %+v", student)
	}

	teacher := NewTeacherProfile("u2", "Um Ahmad")
	if teacher.IsVerified {
		t.Error("new teachers must start unverified")
	}
	if len(teacher.Languages) != 1 || teacher.Languages[0] != "Arabic" {
		t.Errorf("expected Arabic language default, got %v", teacher.Languages)
	}
	if teacher.Rating != 0 || teacher.StudentsCount != 0 {
		t.Errorf("expected zeroed stats, got %+v", teacher)
	}
}
