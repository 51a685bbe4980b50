package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/barale2906/carmot-go/api"
	"github.com/barale2906/carmot-go/internal/errors"
)

// Status is the session lifecycle state. Exactly one status holds at any
// observation point.
type Status int

const (
	// StatusAnonymous - no session; also after logout or a discarded credential.
	StatusAnonymous Status = iota
	// StatusAuthenticating - a login or restored-credential validation is in flight.
	StatusAuthenticating
	// StatusAuthenticated - credential and principal both present.
	StatusAuthenticated
	// StatusInvalid - the refresh protocol gave up mid-request; the
	// credential is gone and the user must log in again.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Fallback copy when the backend gives no message.
const connectionErrorMessage = "Error de conexión"

// LoginResult is what callers of Login receive. Login never panics past its
// boundary; failures land here as a human-readable message.
type LoginResult struct {
	OK    bool
	Error string
}

// SessionStore holds the authenticated principal and derived status, and
// owns login/logout/check/refresh. The invariant "authenticated" holds iff
// the credential and the principal are both present; they are cleared
// together, never independently.
type SessionStore struct {
	svc    *Service
	client *api.Client
	log    zerolog.Logger

	mu        sync.Mutex
	status    Status
	principal *Principal
	checked   bool
}

// NewSessionStore creates the session store. Wire MarkInvalid as the
// client's OnSessionInvalid hook so a failed mid-request refresh is
// observable here.
func NewSessionStore(client *api.Client, svc *Service, logger *zerolog.Logger) *SessionStore {
	sessionLog := zerolog.Nop()
	if logger != nil {
		sessionLog = *logger
	}
	return &SessionStore{svc: svc, client: client, log: sessionLog}
}

// Login exchanges credentials for a session. On success the credential is
// persisted and the principal fetched; a failure at either step leaves the
// store anonymous with everything cleared.
func (s *SessionStore) Login(ctx context.Context, creds Credentials) LoginResult {
	s.setStatus(StatusAuthenticating)

	tok, err := s.svc.Login(ctx, creds)
	if err != nil {
		s.clearLocal(StatusAnonymous)
		s.log.Warn().Err(err).Msg("login failed")
		return LoginResult{Error: userMessage(err)}
	}
	if err := s.client.Credentials().Store(tok); err != nil {
		s.clearLocal(StatusAnonymous)
		return LoginResult{Error: connectionErrorMessage}
	}

	principal, err := s.svc.CurrentUser(ctx)
	if err != nil {
		// A session without a principal is not a session.
		_ = s.client.Credentials().Clear()
		s.clearLocal(StatusAnonymous)
		s.log.Warn().Err(err).Msg("principal fetch after login failed")
		return LoginResult{Error: userMessage(err)}
	}

	s.mu.Lock()
	s.principal = principal
	s.status = StatusAuthenticated
	s.checked = true
	s.mu.Unlock()
	s.log.Info().Str("user", principal.Name).Msg("session established")
	return LoginResult{OK: true}
}

// Logout notifies the backend best-effort and clears the local session
// unconditionally. Idempotent.
func (s *SessionStore) Logout(ctx context.Context) {
	if err := s.svc.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("server logout failed; clearing local session anyway")
	}
	if err := s.client.Credentials().Clear(); err != nil {
		s.log.Warn().Err(err).Msg("clearing credential")
	}
	s.clearLocal(StatusAnonymous)
}

// CheckAuth validates a restored credential. With no persisted credential
// it reports unauthenticated immediately, without a network call.
func (s *SessionStore) CheckAuth(ctx context.Context) bool {
	tok, err := s.client.Credentials().Load()
	if err != nil || tok == nil {
		s.log.Debug().Err(errors.ErrNoCredential).Msg("skipping session validation")
		s.mu.Lock()
		s.status = StatusAnonymous
		s.principal = nil
		s.checked = true
		s.mu.Unlock()
		return false
	}

	if expiry, ok := api.TokenExpiresAt(tok.AccessToken); ok && expiry.Before(time.Now()) {
		s.log.Debug().Time("expired_at", expiry).Msg("restored credential already expired; validating anyway")
	}

	s.setStatus(StatusAuthenticating)
	principal, err := s.svc.CurrentUser(ctx)
	if err != nil {
		_ = s.client.Credentials().Clear()
		s.clearLocal(StatusAnonymous)
		s.log.Info().Err(err).Msg("restored credential rejected")
		return false
	}

	s.mu.Lock()
	s.principal = principal
	s.status = StatusAuthenticated
	s.checked = true
	s.mu.Unlock()
	return true
}

// RefreshToken exchanges the current credential for a new one; failure
// forces a logout.
func (s *SessionStore) RefreshToken(ctx context.Context) bool {
	if err := s.client.Refresh(ctx); err != nil {
		s.log.Warn().Err(err).Msg("token refresh failed; logging out")
		s.Logout(ctx)
		return false
	}
	return true
}

// MarkInvalid records that the refresh protocol failed mid-request. Wire it
// as api.Config.OnSessionInvalid.
func (s *SessionStore) MarkInvalid() {
	s.clearLocal(StatusInvalid)
}

// IsAuthenticated reports whether the status is authenticated.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusAuthenticated
}

// Status returns the current lifecycle state.
func (s *SessionStore) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Checked reports whether an auth check has completed this process; the
// navigation guard uses it to decide whether a CheckAuth round-trip is due.
func (s *SessionStore) Checked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checked
}

// Principal returns a copy of the authenticated user, or nil.
func (s *SessionStore) Principal() *Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil {
		return nil
	}
	p := *s.principal
	return &p
}

// UserName returns the principal's name, or "".
func (s *SessionStore) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil {
		return ""
	}
	return s.principal.Name
}

// UserRole returns the principal's role, or "".
func (s *SessionStore) UserRole() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil {
		return ""
	}
	return s.principal.Role
}

func (s *SessionStore) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *SessionStore) clearLocal(status Status) {
	s.mu.Lock()
	s.principal = nil
	s.status = status
	s.checked = true
	s.mu.Unlock()
}

// userMessage derives a human-readable message: the backend's own message
// when present, generic connection copy otherwise.
func userMessage(err error) string {
	if apiErr, ok := api.AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return connectionErrorMessage
}
