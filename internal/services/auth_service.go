package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/majdjoubi/halqa/internal/auth"
	"github.com/majdjoubi/halqa/internal/events"
	"github.com/majdjoubi/halqa/internal/helpers"
	"github.com/majdjoubi/halqa/internal/models"
)

// AuthService orchestrates the auth backend, profile resolver and session
// store into the sign-up/sign-in/sign-out/update-profile workflow. A
// background goroutine consumes the backend's session-change events and
// pushes them through the same resolver/store path; Close tears it down.
type AuthService struct {
	backend  auth.Backend
	profiles models.ProfileRepo
	resolver *auth.ProfileResolver
	store    *auth.Store
	producer events.Producer
	logger   *slog.Logger
	done     chan struct{}
}

func NewAuthService(
	backend auth.Backend,
	profiles models.ProfileRepo,
	store *auth.Store,
	producer events.Producer,
	logger *slog.Logger,
) *AuthService {
	s := &AuthService{
		backend:  backend,
		profiles: profiles,
		resolver: auth.NewProfileResolver(profiles, logger),
		store:    store,
		producer: producer,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go s.watchSessionEvents()
	return s
}

// Close stops the session-event subscription and the backend. Must be called
// on shutdown so the watcher cannot act on behalf of a dead process.
func (s *AuthService) Close() error {
	close(s.done)
	return s.backend.Close()
}

func (s *AuthService) Store() *auth.Store {
	return s.store
}

type SignUpInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     models.Role `json:"role"`
	Name     string      `json:"name" validate:"required"`
}

// SignUp creates the identity with the provider, then inserts the
// role-specific profile row seeded with defaults. A profile-insert failure
// does not roll back the identity: the call still succeeds with a nil
// profile, which callers surface as a profile-completion prompt.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*models.Session, *auth.TokenPair, error) {
	seq := s.store.NextSeq()
	s.store.BeginOp()
	defer s.store.EndOp()

	if err := models.Validate.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("invalid sign-up data: %v", err)
	}
	if !helpers.IsPasswordStrong(input.Password) {
		return nil, nil, fmt.Errorf("password is not strong enough")
	}
	role := models.ParseRole(string(input.Role))
	name := strings.TrimSpace(input.Name)

	result, err := s.backend.SignUp(ctx, input.Email, input.Password, role, name)
	if err != nil {
		return nil, nil, err
	}

	profile := s.createProfile(ctx, result, role, name)
	session := sessionFrom(result.Identity, profile)
	s.store.Apply(seq, session)

	s.publish(ctx, events.KeyUserSignedUp, map[string]interface{}{
		"user_id": result.Identity.ID,
		"email":   result.Identity.Email,
		"role":    role,
		"name":    name,
	})

	return session, result.Tokens, nil
}

func (s *AuthService) createProfile(ctx context.Context, result *auth.Result, role models.Role, name string) *models.Profile {
	accessToken := ""
	if result.Tokens != nil {
		accessToken = result.Tokens.AccessToken
	}

	switch role {
	case models.RoleTeacher:
		teacher, err := s.profiles.InsertTeacher(ctx, models.NewTeacherProfile(result.Identity.ID, name), accessToken)
		if err != nil {
			s.logger.Error("teacher profile insert failed, continuing without profile",
				"user_id", result.Identity.ID, "error", err)
			return nil
		}
		return &models.Profile{Teacher: teacher}
	default:
		student, err := s.profiles.InsertStudent(ctx, models.NewStudentProfile(result.Identity.ID, name), accessToken)
		if err != nil {
			s.logger.Error("student profile insert failed, continuing without profile",
				"user_id", result.Identity.ID, "error", err)
			return nil
		}
		return &models.Profile{Student: student}
	}
}

// SignIn authenticates with the provider and resolves the profile. The role
// comes from identity metadata, defaulting to student; a missing profile is
// tolerated and yields a session with a nil profile.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, *auth.TokenPair, error) {
	seq := s.store.NextSeq()
	s.store.BeginOp()
	defer s.store.EndOp()

	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, nil, fmt.Errorf("invalid email format: %v", err)
	}
	if err := models.Validate.Var(password, "required"); err != nil {
		return nil, nil, fmt.Errorf("password is required")
	}

	result, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	accessToken := ""
	if result.Tokens != nil {
		accessToken = result.Tokens.AccessToken
	}
	session := sessionFrom(result.Identity, s.resolveProfile(ctx, result.Identity, accessToken))
	s.store.Apply(seq, session)

	return session, result.Tokens, nil
}

// SignOut clears the session regardless of the provider call outcome; a
// failure to reach the provider never blocks local logout. Idempotent.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	seq := s.store.NextSeq()
	s.store.BeginOp()
	defer s.store.EndOp()

	if err := s.backend.SignOut(ctx, accessToken); err != nil {
		s.logger.Error("provider sign-out failed, clearing session anyway", "error", err)
	}
	s.store.Apply(seq, nil)
	return nil
}

// Restore resolves an access token into a fresh session and installs it in
// the store. Used on startup to rehydrate from persisted tokens.
func (s *AuthService) Restore(ctx context.Context, accessToken string) (*models.Session, error) {
	seq := s.store.NextSeq()
	s.store.BeginOp()
	defer s.store.EndOp()

	session, err := s.SessionFor(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	s.store.Apply(seq, session)
	return session, nil
}

// SessionFor resolves an access token into a session without touching the
// store. The auth middleware uses it per request.
func (s *AuthService) SessionFor(ctx context.Context, accessToken string) (*models.Session, error) {
	identity, err := s.backend.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return sessionFrom(*identity, s.resolveProfile(ctx, *identity, accessToken)), nil
}

// Refresh exchanges a refresh token for fresh credentials. The backend emits
// a TOKEN_REFRESHED event, so the store is updated through the subscription.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.Result, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	return s.backend.Refresh(ctx, refreshToken)
}

// UpdateProfile upserts the given partial fields into the caller's profile
// table keyed by user_id, stamping updated_at, and replaces the stored
// session's profile wholesale on success.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, role models.Role, fields map[string]interface{}, accessToken string) (*models.Profile, error) {
	seq := s.store.NextSeq()
	s.store.BeginOp()
	defer s.store.EndOp()

	if userID == "" {
		return nil, auth.ErrNotAuthenticated
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	delete(fields, "id")
	delete(fields, "user_id")
	delete(fields, "created_at")
	fields["updated_at"] = time.Now()

	var profile *models.Profile
	switch models.ParseRole(string(role)) {
	case models.RoleTeacher:
		teacher, err := s.profiles.UpsertTeacher(ctx, userID, fields, accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to update profile: %v", err)
		}
		profile = &models.Profile{Teacher: teacher}
	default:
		student, err := s.profiles.UpsertStudent(ctx, userID, fields, accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to update profile: %v", err)
		}
		profile = &models.Profile{Student: student}
	}

	if current := s.store.Current(); current != nil && current.ID == userID {
		updated := *current
		updated.Profile = profile
		s.store.Apply(seq, &updated)
	}

	return profile, nil
}

// TestConnection probes provider reachability. Failure means "disconnected",
// not fatal; callers decide whether to proceed.
func (s *AuthService) TestConnection(ctx context.Context) bool {
	if err := s.backend.HealthCheck(ctx); err != nil {
		s.logger.Warn("auth provider health check failed", "error", err)
		return false
	}
	return true
}

// resolveProfile wraps the resolver with the degradation policy: transport
// errors are logged, not surfaced, and identities that only carry a metadata
// name (local backend) get a name-only profile synthesized.
func (s *AuthService) resolveProfile(ctx context.Context, identity auth.Identity, accessToken string) *models.Profile {
	profile, err := s.resolver.Resolve(ctx, identity, accessToken)
	if err != nil {
		s.logger.Error("profile lookup failed, continuing with empty profile",
			"user_id", identity.ID, "error", err)
		return nil
	}
	if profile == nil && identity.Name != "" {
		switch identity.Role {
		case models.RoleTeacher:
			return &models.Profile{Teacher: &models.TeacherProfile{UserID: identity.ID, Name: identity.Name}}
		default:
			return &models.Profile{Student: &models.StudentProfile{UserID: identity.ID, Name: identity.Name}}
		}
	}
	return profile
}

func (s *AuthService) watchSessionEvents() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.backend.Events():
			if !ok {
				return
			}
			s.handleSessionEvent(ev)
		}
	}
}

func (s *AuthService) handleSessionEvent(ev auth.SessionEvent) {
	seq := s.store.NextSeq()

	if ev.Type == auth.EventSignedOut || ev.Identity == nil {
		s.store.Apply(seq, nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accessToken := ""
	if ev.Tokens != nil {
		accessToken = ev.Tokens.AccessToken
	}
	s.store.Apply(seq, sessionFrom(*ev.Identity, s.resolveProfile(ctx, *ev.Identity, accessToken)))
}

func (s *AuthService) publish(ctx context.Context, key string, payload interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, key, payload); err != nil {
		s.logger.Warn("event publish failed", "key", key, "error", err)
	}
}

func sessionFrom(identity auth.Identity, profile *models.Profile) *models.Session {
	return &models.Session{
		ID:      identity.ID,
		Email:   identity.Email,
		Role:    identity.Role,
		Profile: profile,
	}
}
