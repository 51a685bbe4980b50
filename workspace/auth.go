package workspace

import (
	"context"

	"github.com/barale2906/carmot-go/auth"
	"github.com/barale2906/carmot-go/notifications"
)

// Auth pairs the session store with the notification queue.
type Auth struct {
	activity
	session *auth.SessionStore
	queue   *notifications.Store
}

// NewAuth creates the auth facade.
func NewAuth(session *auth.SessionStore, queue *notifications.Store) *Auth {
	return &Auth{session: session, queue: queue}
}

// Login authenticates and notifies on failure. The returned message is
// empty on success.
func (a *Auth) Login(ctx context.Context, creds auth.Credentials) (bool, string) {
	a.begin()
	result := a.session.Login(ctx, creds)
	if !result.OK {
		if a.queue != nil {
			a.queue.Error("Error de Autenticación", result.Error)
		}
		a.end(result.Error)
		return false, result.Error
	}
	a.end("")
	return true, ""
}

// Logout ends the session. Local state is always cleared.
func (a *Auth) Logout(ctx context.Context) {
	a.begin()
	a.session.Logout(ctx)
	if a.queue != nil {
		a.queue.Info("Sesión cerrada", "Has cerrado sesión correctamente")
	}
	a.end("")
}

// CheckAuth validates the stored credential against the backend.
func (a *Auth) CheckAuth(ctx context.Context) bool {
	a.begin()
	ok := a.session.CheckAuth(ctx)
	a.end("")
	return ok
}

// IsAuthenticated reports whether a session is live.
func (a *Auth) IsAuthenticated() bool { return a.session.IsAuthenticated() }

// Principal returns the signed-in user, or nil.
func (a *Auth) Principal() *auth.Principal { return a.session.Principal() }

// UserName returns the signed-in user's name, or "".
func (a *Auth) UserName() string { return a.session.UserName() }

// UserRole returns the signed-in user's role, or "".
func (a *Auth) UserRole() string { return a.session.UserRole() }

// UserID returns the signed-in user's id, or 0.
func (a *Auth) UserID() int64 {
	if p := a.session.Principal(); p != nil {
		return p.ID
	}
	return 0
}

// Session exposes the underlying store for the navigation guard.
func (a *Auth) Session() *auth.SessionStore { return a.session }
