package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/majdjoubi/halqa/internal/auth"
	"github.com/majdjoubi/halqa/internal/models"
)

// stubBackend scripts the identity provider. SignIn can be gated so a test
// can hold a call in flight while other updates race past it.
type stubBackend struct {
	mu             sync.Mutex
	events         chan auth.SessionEvent
	closeOnce      sync.Once
	enterOnce      sync.Once
	signUpCalls    int
	lastSignUpRole models.Role
	signUpErr      error
	signInErr      error
	signInEntered  chan struct{} // closed when SignIn is reached
	signInGate     chan struct{} // SignIn blocks until this closes
	signOutErr     error
	authIdentity   *auth.Identity
}

func newStubBackend() *stubBackend {
	return &stubBackend{events: make(chan auth.SessionEvent, 8)}
}

func testTokens() *auth.TokenPair {
	return &auth.TokenPair{AccessToken: "tok", RefreshToken: "ref", ExpiresIn: 3600}
}

func (b *stubBackend) SignUp(ctx context.Context, email, password string, role models.Role, name string) (*auth.Result, error) {
	b.mu.Lock()
	b.signUpCalls++
	b.lastSignUpRole = role
	b.mu.Unlock()

	if b.signUpErr != nil {
		return nil, b.signUpErr
	}
	return &auth.Result{
		Identity: auth.Identity{ID: "u1", Email: email, Role: role},
		Tokens:   testTokens(),
	}, nil
}

func (b *stubBackend) SignIn(ctx context.Context, email, password string) (*auth.Result, error) {
	if b.signInEntered != nil {
		b.enterOnce.Do(func() { close(b.signInEntered) })
	}
	if b.signInGate != nil {
		<-b.signInGate
	}
	if b.signInErr != nil {
		return nil, b.signInErr
	}
	return &auth.Result{
		Identity: auth.Identity{ID: "u1", Email: email, Role: models.RoleStudent},
		Tokens:   testTokens(),
	}, nil
}

func (b *stubBackend) SignOut(ctx context.Context, accessToken string) error {
	return b.signOutErr
}

func (b *stubBackend) Refresh(ctx context.Context, refreshToken string) (*auth.Result, error) {
	return &auth.Result{
		Identity: auth.Identity{ID: "u1", Email: "u1@example.com", Role: models.RoleStudent},
		Tokens:   testTokens(),
	}, nil
}

func (b *stubBackend) Authenticate(ctx context.Context, accessToken string) (*auth.Identity, error) {
	if b.authIdentity == nil {
		return nil, auth.ErrInvalidToken
	}
	return b.authIdentity, nil
}

func (b *stubBackend) HealthCheck(ctx context.Context) error { return nil }

func (b *stubBackend) Events() <-chan auth.SessionEvent { return b.events }

func (b *stubBackend) Close() error {
	b.closeOnce.Do(func() { close(b.events) })
	return nil
}

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) GetStudentByUserID(ctx context.Context, userID, accessToken string) (*models.StudentProfile, error) {
	args := m.Called(ctx, userID, accessToken)
	p, _ := args.Get(0).(*models.StudentProfile)
	return p, args.Error(1)
}

func (m *mockProfileRepo) GetTeacherByUserID(ctx context.Context, userID, accessToken string) (*models.TeacherProfile, error) {
	args := m.Called(ctx, userID, accessToken)
	p, _ := args.Get(0).(*models.TeacherProfile)
	return p, args.Error(1)
}

func (m *mockProfileRepo) InsertStudent(ctx context.Context, profile *models.StudentProfile, accessToken string) (*models.StudentProfile, error) {
	args := m.Called(ctx, profile, accessToken)
	p, _ := args.Get(0).(*models.StudentProfile)
	return p, args.Error(1)
}

func (m *mockProfileRepo) InsertTeacher(ctx context.Context, profile *models.TeacherProfile, accessToken string) (*models.TeacherProfile, error) {
	args := m.Called(ctx, profile, accessToken)
	p, _ := args.Get(0).(*models.TeacherProfile)
	return p, args.Error(1)
}

func (m *mockProfileRepo) UpsertStudent(ctx context.Context, userID string, fields map[string]interface{}, accessToken string) (*models.StudentProfile, error) {
	args := m.Called(ctx, userID, fields, accessToken)
	p, _ := args.Get(0).(*models.StudentProfile)
	return p, args.Error(1)
}

func (m *mockProfileRepo) UpsertTeacher(ctx context.Context, userID string, fields map[string]interface{}, accessToken string) (*models.TeacherProfile, error) {
	args := m.Called(ctx, userID, fields, accessToken)
	p, _ := args.Get(0).(*models.TeacherProfile)
	return p, args.Error(1)
}

func newTestAuthService(t *testing.T, backend auth.Backend, profiles models.ProfileRepo) (*AuthService, *auth.Store) {
	t.Helper()
	store := auth.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAuthService(backend, profiles, store, nil, logger)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, store
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSignUpCreatesProfileWithRequestedRole(t *testing.T) {
	backend := newStubBackend()
	repo := new(mockProfileRepo)
	repo.On("InsertTeacher", mock.Anything, mock.MatchedBy(func(p *models.TeacherProfile) bool {
		return p.UserID == "u1" && p.Name == "Um Ahmad"
	}), "tok").Return(&models.TeacherProfile{UserID: "u1", Name: "Um Ahmad", Languages: []string{"Arabic"}}, nil)

	svc, store := newTestAuthService(t, backend, repo)

	session, tokens, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "teacher@halqa.app",
		Password: "Passw0rd!",
		Role:     models.RoleTeacher,
		Name:     "Um Ahmad",
	})

	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, models.RoleTeacher, session.Role)
	require.NotNil(t, session.Profile)
	assert.Equal(t, "Um Ahmad", session.Profile.Name())
	require.NotNil(t, tokens)
	assert.Equal(t, "tok", tokens.AccessToken)
	assert.False(t, store.Loading())
	repo.AssertExpectations(t)
}

func TestSignUpDefaultsUnknownRoleToStudent(t *testing.T) {
	backend := newStubBackend()
	repo := new(mockProfileRepo)
	repo.On("InsertStudent", mock.Anything, mock.Anything, "tok").
		Return(&models.StudentProfile{UserID: "u1", Name: "Ali"}, nil)

	svc, _ := newTestAuthService(t, backend, repo)

	session, _, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "ali@halqa.app",
		Password: "Passw0rd!",
		Role:     models.Role("admin"),
		Name:     "Ali",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, session.Role)
	assert.Equal(t, models.RoleStudent, backend.lastSignUpRole)
	repo.AssertExpectations(t)
}

func TestSignUpSucceedsWhenProfileInsertFails(t *testing.T) {
	backend := newStubBackend()
	repo := new(mockProfileRepo)
	repo.On("InsertStudent", mock.Anything, mock.Anything, "tok").
		Return(nil, assert.AnError)

	svc, store := newTestAuthService(t, backend, repo)

	session, tokens, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "ali@halqa.app",
		Password: "Passw0rd!",
		Name:     "Ali",
	})

	// The identity exists with the provider; a failed profile insert degrades
	// to a session without a profile instead of failing the sign-up.
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Nil(t, session.Profile)
	require.NotNil(t, tokens)

	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, "u1", current.ID)
	assert.False(t, store.Loading())
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	backend := newStubBackend()
	repo := new(mockProfileRepo)
	svc, store := newTestAuthService(t, backend, repo)

	_, _, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "ali@halqa.app",
		Password: "alllowercase1",
		Name:     "Ali",
	})

	require.Error(t, err)
	assert.Equal(t, 0, backend.signUpCalls)
	assert.False(t, store.Loading())
}

func TestSignInLoadingClearsOnError(t *testing.T) {
	backend := newStubBackend()
	backend.signInErr = &auth.AuthError{Op: "signin", Message: "invalid login credentials"}
	repo := new(mockProfileRepo)
	svc, store := newTestAuthService(t, backend, repo)

	_, _, err := svc.SignIn(context.Background(), "a@b.com", "wrong")

	var authErr *auth.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid login credentials", authErr.Message)
	assert.False(t, store.Loading())
	assert.Nil(t, store.Current())
}

func TestSignInToleratesMissingProfile(t *testing.T) {
	backend := newStubBackend()
	repo := new(mockProfileRepo)
	repo.On("GetStudentByUserID", mock.Anything, "u1", "tok").
		Return(nil, models.ErrProfileNotFound)

	svc, _ := newTestAuthService(t, backend, repo)

	session, _, err := svc.SignIn(context.Background(), "a@b.com", "x")

	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Nil(t, session.Profile)
	repo.AssertExpectations(t)
}

func TestSignOutClearsSessionDespiteProviderFailure(t *testing.T) {
	backend := newStubBackend()
	backend.signOutErr = assert.AnError
	repo := new(mockProfileRepo)
	svc, store := newTestAuthService(t, backend, repo)

	store.Apply(store.NextSeq(), &models.Session{ID: "u1", Email: "a@b.com", Role: models.RoleStudent})

	require.NoError(t, svc.SignOut(context.Background(), "tok"))
	assert.Nil(t, store.Current())
	assert.False(t, store.Loading())

	// Already signed out: still a no-op success.
	require.NoError(t, svc.SignOut(context.Background(), "tok"))
	assert.Nil(t, store.Current())
}

// A sign-out event that lands while a sign-in call is still waiting on the
// provider must win: the sign-in allocated its sequence first, so its result
// is stale by the time it resolves.
func TestStaleSignInDiscardedAfterSignOutEvent(t *testing.T) {
	backend := newStubBackend()
	backend.signInEntered = make(chan struct{})
	backend.signInGate = make(chan struct{})
	repo := new(mockProfileRepo)
	repo.On("GetStudentByUserID", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, models.ErrProfileNotFound).Maybe()

	svc, store := newTestAuthService(t, backend, repo)

	updates, cancel := store.Subscribe()
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, _, err := svc.SignIn(context.Background(), "a@b.com", "x")
		errCh <- err
	}()

	select {
	case <-backend.signInEntered:
	case <-time.After(2 * time.Second):
		t.Fatal("sign-in never reached the backend")
	}

	// Provider-originated sign-out arrives while the sign-in is in flight.
	backend.events <- auth.SessionEvent{Type: auth.EventSignedOut}
	select {
	case got := <-updates:
		require.Nil(t, got)
	case <-time.After(2 * time.Second):
		t.Fatal("sign-out event was never applied")
	}

	close(backend.signInGate)
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sign-in never returned")
	}

	assert.Nil(t, store.Current(), "stale sign-in result must not resurrect the session")
}

func TestSessionEventResolvesProfile(t *testing.T) {
	backend := newStubBackend()
	repo := new(mockProfileRepo)
	repo.On("GetStudentByUserID", mock.Anything, "u2", "tok2").
		Return(&models.StudentProfile{UserID: "u2", Name: "Fatima"}, nil)

	_, store := newTestAuthService(t, backend, repo)

	backend.events <- auth.SessionEvent{
		Type:     auth.EventSignedIn,
		Identity: &auth.Identity{ID: "u2", Email: "fatima@halqa.app", Role: models.RoleStudent},
		Tokens:   &auth.TokenPair{AccessToken: "tok2"},
	}

	waitFor(t, func() bool {
		s := store.Current()
		return s != nil && s.ID == "u2" && s.Profile != nil
	}, "session event was never resolved into the store")

	assert.Equal(t, "Fatima", store.Current().Profile.Name())
	repo.AssertExpectations(t)
}

func TestUpdateProfileStripsImmutableFields(t *testing.T) {
	backend := newStubBackend()
	repo := new(mockProfileRepo)
	repo.On("UpsertStudent", mock.Anything, "u1", mock.MatchedBy(func(fields map[string]interface{}) bool {
		_, hasID := fields["id"]
		_, hasUserID := fields["user_id"]
		_, hasCreated := fields["created_at"]
		_, hasUpdated := fields["updated_at"]
		return !hasID && !hasUserID && !hasCreated && hasUpdated
	}), "tok").Return(&models.StudentProfile{UserID: "u1", Name: "Ali", Level: models.LevelIntermediate}, nil)

	svc, store := newTestAuthService(t, backend, repo)
	store.Apply(store.NextSeq(), &models.Session{ID: "u1", Email: "a@b.com", Role: models.RoleStudent})

	profile, err := svc.UpdateProfile(context.Background(), "u1", models.RoleStudent, map[string]interface{}{
		"id":         "injected",
		"user_id":    "someone-else",
		"created_at": "2020-01-01",
		"level":      "intermediate",
	}, "tok")

	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, models.LevelIntermediate, profile.Student.Level)

	current := store.Current()
	require.NotNil(t, current)
	require.NotNil(t, current.Profile)
	assert.Equal(t, models.LevelIntermediate, current.Profile.Student.Level)
	repo.AssertExpectations(t)
}

func TestUpdateProfileRequiresUser(t *testing.T) {
	backend := newStubBackend()
	repo := new(mockProfileRepo)
	svc, _ := newTestAuthService(t, backend, repo)

	_, err := svc.UpdateProfile(context.Background(), "", models.RoleStudent, map[string]interface{}{"name": "x"}, "tok")
	require.ErrorIs(t, err, auth.ErrNotAuthenticated)
}
