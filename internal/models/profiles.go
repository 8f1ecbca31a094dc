package models

import "time"

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// StudentProfile is one row of the students table, keyed by user_id (unique
// per identity, distinct from the row's own id).
type StudentProfile struct {
	ID                string    `db:"id" json:"id,omitempty"`
	UserID            string    `db:"user_id" json:"user_id" validate:"required"`
	Name              string    `db:"name" json:"name" validate:"required"`
	ProfileImageURL   string    `db:"profile_image_url" json:"profile_image_url,omitempty"`
	Age               *int      `db:"age" json:"age,omitempty"`
	Level             Level     `db:"level" json:"level"`
	Goals             []string  `db:"goals" json:"goals,omitempty"`
	PreferredSchedule string    `db:"preferred_schedule" json:"preferred_schedule,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherProfile is one row of the teachers table.
type TeacherProfile struct {
	ID                 string    `db:"id" json:"id,omitempty"`
	UserID             string    `db:"user_id" json:"user_id" validate:"required"`
	Name               string    `db:"name" json:"name" validate:"required"`
	ProfileImageURL    string    `db:"profile_image_url" json:"profile_image_url,omitempty"`
	Specialization     string    `db:"specialization" json:"specialization,omitempty"`
	ExperienceYears    int       `db:"experience_years" json:"experience_years"`
	HourlyRate         float64   `db:"hourly_rate" json:"hourly_rate"`
	Bio                string    `db:"bio" json:"bio,omitempty"`
	Certificates       []string  `db:"certificates" json:"certificates,omitempty"`
	Languages          []string  `db:"languages" json:"languages"`
	IsVerified         bool      `db:"is_verified" json:"is_verified"`
	Rating             float64   `db:"rating" json:"rating"`
	StudentsCount      int       `db:"students_count" json:"students_count"`
	AvailabilityStatus string    `db:"availability_status" json:"availability_status"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// NewStudentProfile seeds a student row with sign-up defaults.
func NewStudentProfile(userID, name string) *StudentProfile {
	now := time.Now()
	return &StudentProfile{
		UserID:    userID,
		Name:      name,
		Level:     LevelBeginner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTeacherProfile seeds a teacher row with sign-up defaults. New teachers
// start unverified with no rating until an admin reviews them.
func NewTeacherProfile(userID, name string) *TeacherProfile {
	now := time.Now()
	return &TeacherProfile{
		UserID:             userID,
		Name:               name,
		Languages:          []string{"Arabic"},
		IsVerified:         false,
		Rating:             0,
		StudentsCount:      0,
		AvailabilityStatus: "available",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
