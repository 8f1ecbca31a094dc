package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/majdjoubi/halqa/internal/models"
)

// ProfileResolver looks up the role-specific profile row for an identity.
// Used identically by sign-in, sign-up, session restore and the auth
// middleware.
type ProfileResolver struct {
	profiles models.ProfileRepo
	logger   *slog.Logger
}

func NewProfileResolver(profiles models.ProfileRepo, logger *slog.Logger) *ProfileResolver {
	return &ProfileResolver{profiles: profiles, logger: logger}
}

// Resolve selects the backing table by role and queries by user_id. A
// missing row resolves to (nil, nil); only transport or permission errors
// are returned, and callers degrade to an empty profile rather than failing
// the auth operation.
func (r *ProfileResolver) Resolve(ctx context.Context, identity Identity, accessToken string) (*models.Profile, error) {
	switch identity.Role {
	case models.RoleTeacher:
		teacher, err := r.profiles.GetTeacherByUserID(ctx, identity.ID, accessToken)
		if errors.Is(err, models.ErrProfileNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &models.Profile{Teacher: teacher}, nil
	default:
		student, err := r.profiles.GetStudentByUserID(ctx, identity.ID, accessToken)
		if errors.Is(err, models.ErrProfileNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &models.Profile{Student: student}, nil
	}
}
