package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"

	"github.com/majdjoubi/halqa/internal/helpers"
	"github.com/majdjoubi/halqa/internal/models"
)

const (
	sessionPollAttempts  = 5
	sessionPollBaseDelay = 200 * time.Millisecond
)

// LiveBackend talks to Supabase GoTrue.
type LiveBackend struct {
	client *supabase.Client
	logger *slog.Logger
	emitter
}

func NewLiveBackend(client *supabase.Client, logger *slog.Logger) *LiveBackend {
	return &LiveBackend{
		client:  client,
		logger:  logger,
		emitter: newEmitter(),
	}
}

func (lb *LiveBackend) SignUp(ctx context.Context, email, password string, role models.Role, name string) (*Result, error) {
	signup := types.SignupRequest{
		Email:    email,
		Password: password,
		Data: map[string]interface{}{
			"role": string(role),
			"name": name,
		},
	}

	if _, err := lb.client.Auth.Signup(signup); err != nil {
		return nil, &AuthError{Op: "signup", Message: cleanSignupError(err), Err: err}
	}

	// The new identity's session is eventually consistent on the provider
	// side. Poll with backoff until it materializes instead of sleeping a
	// fixed interval.
	tokenRes, err := lb.waitForSession(ctx, email, password)
	if err != nil {
		return nil, err
	}

	result := lb.resultFromToken(tokenRes)
	// Metadata propagation can lag the signup call; the requested role wins.
	result.Identity.Role = role
	lb.emit(SessionEvent{Type: EventSignedIn, Identity: &result.Identity, Tokens: result.Tokens})
	return result, nil
}

func (lb *LiveBackend) waitForSession(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	var lastErr error
	delay := sessionPollBaseDelay
	for attempt := 0; attempt < sessionPollAttempts; attempt++ {
		res, err := lb.client.Auth.SignInWithEmailPassword(email, password)
		if err == nil {
			return res, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, &AuthError{
		Op:        "signup",
		Message:   "account created but session is not ready yet, please sign in",
		Temporary: true,
		Err:       lastErr,
	}
}

func (lb *LiveBackend) SignIn(ctx context.Context, email, password string) (*Result, error) {
	res, err := lb.client.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, &AuthError{Op: "signin", Message: "invalid email or password", Err: err}
	}

	result := lb.resultFromToken(res)
	lb.emit(SessionEvent{Type: EventSignedIn, Identity: &result.Identity, Tokens: result.Tokens})
	return result, nil
}

func (lb *LiveBackend) SignOut(ctx context.Context, accessToken string) error {
	defer lb.emit(SessionEvent{Type: EventSignedOut})
	if accessToken == "" {
		return nil
	}
	if err := lb.client.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("provider sign-out failed: %v", err)
	}
	return nil
}

func (lb *LiveBackend) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	res, err := lb.client.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, &AuthError{Op: "refresh", Message: "session expired, please sign in again", Err: err}
	}

	result := lb.resultFromToken(res)
	lb.emit(SessionEvent{Type: EventTokenRefreshed, Identity: &result.Identity, Tokens: result.Tokens})
	return result, nil
}

func (lb *LiveBackend) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := helpers.ValidateToken(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  models.ParseRole(metadataString(claims.UserMetadata, "role")),
	}, nil
}

func (lb *LiveBackend) HealthCheck(ctx context.Context) error {
	if _, err := lb.client.Auth.HealthCheck(); err != nil {
		return fmt.Errorf("auth provider unreachable: %v", err)
	}
	return nil
}

func (lb *LiveBackend) resultFromToken(res *types.TokenResponse) *Result {
	return &Result{
		Identity: Identity{
			ID:    res.User.ID.String(),
			Email: res.User.Email,
			Role:  models.ParseRole(metadataString(res.User.UserMetadata, "role")),
		},
		Tokens: &TokenPair{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
			ExpiresIn:    res.ExpiresIn,
		},
	}
}

func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

// cleanSignupError turns raw provider/database errors into messages safe to
// relay to the user.
func cleanSignupError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "User already registered"),
		strings.Contains(msg, "already Registered"),
		strings.Contains(msg, "unique constraint"):
		return "email already in use"
	case strings.Contains(msg, "null value in column"):
		return "required field is missing"
	case strings.Contains(msg, "invalid input syntax"):
		return "invalid input format"
	default:
		return "failed to create account"
	}
}
