package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majdjoubi/halqa/internal/auth"
	"github.com/majdjoubi/halqa/internal/middleware"
	"github.com/majdjoubi/halqa/internal/models"
	"github.com/majdjoubi/halqa/internal/services"
)

// Routes wired over the local backend, the same shape the container selects
// when Supabase is unconfigured.
func newTestRouter(t *testing.T) (*gin.Engine, *models.MemoryProfileRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := models.NewMemoryProfileRepo()
	store := auth.NewStore()
	authService := services.NewAuthService(auth.NewLocalBackend(0), repo, store, nil, logger)
	t.Cleanup(func() { _ = authService.Close() })
	teacherService := services.NewTeacherService(repo)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/signup", SignUp(authService))
	v1.POST("/signin", SignIn(authService))
	v1.POST("/signout", SignOut(authService))
	v1.GET("/teachers", ListTeachers(teacherService))
	v1.GET("/teachers/:id", GetTeacher(teacherService))

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(authService, logger))
	protected.GET("/auth/session", GetSession(authService))
	protected.PATCH("/auth/profile", UpdateProfile(authService))

	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignUpSignInSessionFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/signup", gin.H{
		"email":    "ali@halqa.app",
		"password": "Passw0rd!",
		"role":     "student",
		"name":     "Ali",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "signup must set auth cookies")

	var signupRes struct {
		Success bool           `json:"success"`
		Data    models.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signupRes))
	assert.True(t, signupRes.Success)
	assert.Equal(t, models.RoleStudent, signupRes.Data.Role)
	require.NotNil(t, signupRes.Data.Profile)
	assert.Equal(t, "Ali", signupRes.Data.Profile.Name())

	// The cookies from signup authenticate the session endpoint.
	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/session", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sessionRes struct {
		Data models.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessionRes))
	assert.Equal(t, "ali@halqa.app", sessionRes.Data.Email)
}

func TestSignUpErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "duplicate email is a conflict",
			err:  &auth.AuthError{Op: "signup", Message: "email already in use"},
			want: http.StatusConflict,
		},
		{
			name: "session propagation timeout is retryable",
			err:  &auth.AuthError{Op: "signup", Message: "account created but session is not ready yet, please sign in", Temporary: true},
			want: http.StatusServiceUnavailable,
		},
		{
			name: "validation failure is a bad request",
			err:  errors.New("password is not strong enough"),
			want: http.StatusBadRequest,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, signUpErrorStatus(c.err))
		})
	}
}

func TestSignUpDuplicateEmailConflicts(t *testing.T) {
	r, _ := newTestRouter(t)

	body := gin.H{"email": "dup@halqa.app", "password": "Passw0rd!", "name": "Dup"}
	w := doJSON(t, r, http.MethodPost, "/api/v1/signup", body, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/signup", body, nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestSignOutIsIdempotentAndClearsCookies(t *testing.T) {
	r, _ := newTestRouter(t)

	// No session at all: still a 200.
	w := doJSON(t, r, http.MethodPost, "/api/v1/signout", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		assert.Less(t, c.MaxAge, 0, "cookie %s should be expired", c.Name)
	}
}

func TestSessionRequiresCookie(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/auth/session", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfileThroughHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/signup", gin.H{
		"email":    "ali@halqa.app",
		"password": "Passw0rd!",
		"name":     "Ali",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	cookies := w.Result().Cookies()

	w = doJSON(t, r, http.MethodPatch, "/api/v1/auth/profile", gin.H{
		"level": "intermediate",
	}, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Data models.Profile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotNil(t, res.Data.Student)
	assert.Equal(t, models.LevelIntermediate, res.Data.Student.Level)
	assert.Equal(t, "Ali", res.Data.Student.Name)
}

func TestTeacherDirectoryEndpoints(t *testing.T) {
	r, repo := newTestRouter(t)

	seed := models.NewTeacherProfile("t1", "Um Ahmad")
	seed.Specialization = "Tajweed"
	seed.IsVerified = true
	inserted, err := repo.InsertTeacher(context.Background(), seed, "")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/api/v1/teachers?q=tajweed", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listRes struct {
		Data []models.TeacherProfile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listRes))
	require.Len(t, listRes.Data, 1)
	assert.Equal(t, "Um Ahmad", listRes.Data[0].Name)

	// Unverified teachers stay out of the public listing.
	unverified := models.NewTeacherProfile("t2", "Pending Applicant")
	unverified.Specialization = "Tajweed"
	_, err = repo.InsertTeacher(context.Background(), unverified, "")
	require.NoError(t, err)

	w = doJSON(t, r, http.MethodGet, "/api/v1/teachers?q=tajweed", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listRes))
	require.Len(t, listRes.Data, 1)

	w = doJSON(t, r, http.MethodGet, "/api/v1/teachers/"+inserted.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/teachers/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
