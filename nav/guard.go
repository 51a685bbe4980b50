// Package nav implements the client-side navigation contract: a route table
// with per-route auth requirements and the guard evaluated before a view
// may render.
package nav

import (
	"context"

	"github.com/rs/zerolog"
)

// Requirement is a route's declared access rule.
type Requirement int

const (
	// RequireNone - anyone may enter.
	RequireNone Requirement = iota
	// RequireAuth - only authenticated sessions may enter.
	RequireAuth
	// RequireGuest - only anonymous sessions may enter (the login view).
	RequireGuest
)

// Route is one entry of the navigation table.
type Route struct {
	Path        string
	Name        string
	Requirement Requirement
}

// Well-known destinations.
const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"
)

// Routes returns the application's navigation table.
func Routes() []Route {
	return []Route{
		{Path: "/", Name: "Root", Requirement: RequireNone},
		{Path: LoginPath, Name: "Login", Requirement: RequireGuest},
		{Path: LandingPath, Name: "Dashboard", Requirement: RequireAuth},
		{Path: "/kpis", Name: "KPIs", Requirement: RequireAuth},
		{Path: "/kpis/create", Name: "CreateKPI", Requirement: RequireAuth},
		{Path: "/kpis/:id/edit", Name: "EditKPI", Requirement: RequireAuth},
		{Path: "/:pathMatch(.*)*", Name: "NotFound", Requirement: RequireNone},
	}
}

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Proceed    bool
	RedirectTo string
}

func proceed() Decision             { return Decision{Proceed: true} }
func redirect(path string) Decision { return Decision{RedirectTo: path} }

// Session is the slice of the session store the guard needs.
type Session interface {
	IsAuthenticated() bool
	Checked() bool
	CheckAuth(ctx context.Context) bool
}

// Guard gates route entry on session status.
type Guard struct {
	session Session
	log     zerolog.Logger
}

// NewGuard creates a Guard over session.
func NewGuard(session Session, logger *zerolog.Logger) *Guard {
	guardLog := zerolog.Nop()
	if logger != nil {
		guardLog = *logger
	}
	return &Guard{session: session, log: guardLog}
}

// Evaluate decides whether the navigation to route may proceed. When the
// session status is not yet known this process, a CheckAuth round-trip runs
// first; the decision is only returned once that completes.
func (g *Guard) Evaluate(ctx context.Context, route Route) Decision {
	if !g.session.IsAuthenticated() && !g.session.Checked() {
		g.session.CheckAuth(ctx)
	}

	authenticated := g.session.IsAuthenticated()
	switch {
	case route.Requirement == RequireAuth && !authenticated:
		g.log.Debug().Str("route", route.Path).Msg("guard: redirecting to login")
		return redirect(LoginPath)
	case route.Requirement == RequireGuest && authenticated:
		g.log.Debug().Str("route", route.Path).Msg("guard: redirecting to landing")
		return redirect(LandingPath)
	default:
		return proceed()
	}
}
