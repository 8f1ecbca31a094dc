package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/majdjoubi/halqa/internal/models"
)

// LocalSimulatedDelay approximates provider latency in local mode so the
// client-side loading states stay observable during development.
const LocalSimulatedDelay = 400 * time.Millisecond

type localAccount struct {
	identity Identity
	password string
}

// LocalBackend is the mock identity provider used when Supabase is
// unconfigured. Identities live in memory only; nothing is persisted and no
// credentials are verified beyond basic shape. Development stand-in, never
// authoritative.
type LocalBackend struct {
	mu       sync.Mutex
	accounts map[string]*localAccount // keyed by email
	access   map[string]string        // access token -> email
	refresh  map[string]string        // refresh token -> email
	delay    time.Duration
	emitter
}

func NewLocalBackend(delay time.Duration) *LocalBackend {
	return &LocalBackend{
		accounts: make(map[string]*localAccount),
		access:   make(map[string]string),
		refresh:  make(map[string]string),
		delay:    delay,
		emitter:  newEmitter(),
	}
}

func (lb *LocalBackend) simulate(ctx context.Context) error {
	if lb.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(lb.delay):
		return nil
	}
}

func (lb *LocalBackend) SignUp(ctx context.Context, email, password string, role models.Role, name string) (*Result, error) {
	if err := lb.simulate(ctx); err != nil {
		return nil, err
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	if _, exists := lb.accounts[email]; exists {
		return nil, &AuthError{Op: "signup", Message: "email already in use"}
	}

	identity := Identity{
		ID:    fmt.Sprintf("local-%d", time.Now().UnixNano()),
		Email: email,
		Role:  role,
		Name:  name,
	}
	lb.accounts[email] = &localAccount{identity: identity, password: password}

	tokens := lb.issueTokensLocked(email)
	lb.emit(SessionEvent{Type: EventSignedIn, Identity: &identity, Tokens: tokens})

	return &Result{Identity: identity, Tokens: tokens}, nil
}

// SignIn synthesizes a session from the email alone: unknown emails get a
// fresh student identity named after the mailbox, and passwords are not
// verified. Good enough for a demo, never for production.
func (lb *LocalBackend) SignIn(ctx context.Context, email, password string) (*Result, error) {
	if err := lb.simulate(ctx); err != nil {
		return nil, err
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	acc, exists := lb.accounts[email]
	if !exists {
		acc = &localAccount{
			identity: Identity{
				ID:    fmt.Sprintf("local-%d", time.Now().UnixNano()),
				Email: email,
				Role:  models.RoleStudent,
				Name:  strings.SplitN(email, "@", 2)[0],
			},
			password: password,
		}
		lb.accounts[email] = acc
	}

	tokens := lb.issueTokensLocked(email)
	identity := acc.identity
	lb.emit(SessionEvent{Type: EventSignedIn, Identity: &identity, Tokens: tokens})

	return &Result{Identity: identity, Tokens: tokens}, nil
}

func (lb *LocalBackend) SignOut(ctx context.Context, accessToken string) error {
	lb.mu.Lock()
	delete(lb.access, accessToken)
	lb.mu.Unlock()

	lb.emit(SessionEvent{Type: EventSignedOut})
	return nil
}

func (lb *LocalBackend) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	email, ok := lb.refresh[refreshToken]
	if !ok {
		return nil, &AuthError{Op: "refresh", Message: "session expired, please sign in again"}
	}
	acc, ok := lb.accounts[email]
	if !ok {
		return nil, &AuthError{Op: "refresh", Message: "session expired, please sign in again"}
	}

	delete(lb.refresh, refreshToken)
	tokens := lb.issueTokensLocked(email)
	identity := acc.identity
	lb.emit(SessionEvent{Type: EventTokenRefreshed, Identity: &identity, Tokens: tokens})

	return &Result{Identity: identity, Tokens: tokens}, nil
}

func (lb *LocalBackend) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	email, ok := lb.access[accessToken]
	if !ok {
		return nil, ErrInvalidToken
	}
	acc, ok := lb.accounts[email]
	if !ok {
		return nil, ErrInvalidToken
	}

	identity := acc.identity
	return &identity, nil
}

func (lb *LocalBackend) HealthCheck(ctx context.Context) error {
	return nil
}

func (lb *LocalBackend) issueTokensLocked(email string) *TokenPair {
	accessToken := "local-access-" + uuid.NewString()
	refreshToken := "local-refresh-" + uuid.NewString()
	lb.access[accessToken] = email
	lb.refresh[refreshToken] = email

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    3600,
	}
}
