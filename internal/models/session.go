package models

// Role is the account role carried in identity metadata.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// ParseRole maps raw metadata to a Role, defaulting to student when the
// metadata is absent or unrecognized.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleTeacher:
		return RoleTeacher
	default:
		return RoleStudent
	}
}

// Profile is the role-specific profile row resolved for a session. Exactly
// one of the two fields is set; both nil means the identity has no profile
// yet (a valid, degraded state the client must handle).
type Profile struct {
	Student *StudentProfile `json:"student,omitempty"`
	Teacher *TeacherProfile `json:"teacher,omitempty"`
}

func (p *Profile) Name() string {
	if p == nil {
		return ""
	}
	if p.Student != nil {
		return p.Student.Name
	}
	if p.Teacher != nil {
		return p.Teacher.Name
	}
	return ""
}

func (p *Profile) ImageURL() string {
	if p == nil {
		return ""
	}
	if p.Student != nil {
		return p.Student.ProfileImageURL
	}
	if p.Teacher != nil {
		return p.Teacher.ProfileImageURL
	}
	return ""
}

// Session is the identity/profile join materialized for a signed-in user.
// Profile may be nil when the profile row is missing or unreadable.
type Session struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Role    Role     `json:"role"`
	Profile *Profile `json:"profile,omitempty"`
}
