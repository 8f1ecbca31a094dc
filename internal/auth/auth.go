package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/majdjoubi/halqa/internal/models"
)

// Identity is the externally managed authentication record: the provider's
// opaque id plus the metadata stamped at sign-up time.
type Identity struct {
	ID    string
	Email string
	Role  models.Role
	// Name carries a display name for identities whose profile exists only
	// in identity metadata (local backend). Live identities leave it empty;
	// their name lives in the profile row.
	Name string
}

// TokenPair holds the provider-issued tokens for a session. ExpiresIn is the
// access token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Result is the outcome of a successful sign-up, sign-in or refresh.
type Result struct {
	Identity Identity
	Tokens   *TokenPair
}

type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// SessionEvent is a provider-originated session change pushed through the
// backend's event channel. Identity is nil when the session is gone.
type SessionEvent struct {
	Type     EventType
	Identity *Identity
	Tokens   *TokenPair
}

// Backend is the single point of contact with an identity provider. Two
// implementations exist: LiveBackend (Supabase GoTrue) and LocalBackend (an
// in-memory stand-in used when the provider is unconfigured). The variant is
// selected once at startup; callers never branch on configuration.
type Backend interface {
	SignUp(ctx context.Context, email, password string, role models.Role, name string) (*Result, error)
	SignIn(ctx context.Context, email, password string) (*Result, error)
	// SignOut revokes the token with the provider. A provider failure here
	// must not block local logout; callers clear their session regardless.
	SignOut(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*Result, error)
	// Authenticate resolves an access token back to its identity.
	Authenticate(ctx context.Context, accessToken string) (*Identity, error)
	// HealthCheck is a best-effort reachability probe; failure means
	// "disconnected", not fatal.
	HealthCheck(ctx context.Context) error
	// Events delivers provider-originated session changes until Close.
	Events() <-chan SessionEvent
	Close() error
}

var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// AuthError relays a provider rejection (bad credentials, duplicate email)
// with a message safe to show the user. Temporary marks outcomes worth
// retrying, such as a session that has not propagated yet; permanent
// rejections leave it false.
type AuthError struct {
	Op        string
	Message   string
	Temporary bool
	Err       error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// emitter is the shared event-channel plumbing for both backends. Sends are
// non-blocking: a slow consumer drops events rather than stalling auth calls.
type emitter struct {
	mu     sync.Mutex
	events chan SessionEvent
	closed bool
}

func newEmitter() emitter {
	return emitter{events: make(chan SessionEvent, 8)}
}

func (e *emitter) emit(ev SessionEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}

func (e *emitter) Events() <-chan SessionEvent {
	return e.events
}

func (e *emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}
