package apiclient

import (
	"context"
)

// RouteMeta is the static per-route declaration the guard and the title
// logic depend on. Nothing mutates it at runtime.
type RouteMeta struct {
	// RequiresAuth defaults to true when unset.
	RequiresAuth *bool  `json:"requires_auth,omitempty" yaml:"requires_auth,omitempty"`
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
}

// NeedsAuth treats an unset RequiresAuth as true.
func (m RouteMeta) NeedsAuth() bool {
	return m.RequiresAuth == nil || *m.RequiresAuth
}

// Bool returns a pointer for RouteMeta.RequiresAuth literals.
func Bool(v bool) *bool {
	return &v
}

// Route is one navigable view, registered once at startup.
type Route struct {
	Path string    `json:"path" yaml:"path"`
	Name string    `json:"name,omitempty" yaml:"name,omitempty"`
	Meta RouteMeta `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// DecisionAction is the guard's verdict for one transition.
type DecisionAction string

const (
	DecisionProceed  DecisionAction = "proceed"
	DecisionRedirect DecisionAction = "redirect"
)

// Decision is the deterministic outcome of evaluating one route transition.
type Decision struct {
	Action DecisionAction
	// To is the redirect target, including the preserved intended path for
	// login redirects.
	To     string
	Reason string
}

func proceed() Decision {
	return Decision{Action: DecisionProceed}
}

func redirect(to, reason string) Decision {
	return Decision{Action: DecisionRedirect, To: to, Reason: reason}
}

// Guard runs before every client-side route transition and decides whether
// it may proceed, must redirect to the login view, or must redirect away
// from it, based on session state and the target's access requirements.
type Guard struct {
	session    *SessionStore
	logger     Logger
	loginRoute string
	homeRoute  string
}

func NewGuard(cfg Config, session *SessionStore) *Guard {
	return &Guard{
		session:    session,
		logger:     defLogger{},
		loginRoute: cfg.GetLoginRoute(),
		homeRoute:  cfg.GetHomeRoute(),
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	g.logger = logger
	return g
}

// Evaluate decides one transition. When the target requires authentication
// and a token is present without a cached identity, the profile is fetched
// in-guard; a failed fetch forces a logout so stale credentials never let a
// view render.
func (g *Guard) Evaluate(ctx context.Context, target Route) Decision {
	if target.Meta.NeedsAuth() {
		if !g.session.IsLoggedIn() {
			return redirect(g.loginRedirect(target), "authentication required")
		}

		if g.session.Identity() == nil {
			if _, err := g.session.GetUserInfo(ctx); err != nil {
				g.logger.Error("profile fetch during navigation failed: %v", err)
				if lerr := g.session.Logout(ctx); lerr != nil {
					g.logger.Error("logout after failed profile fetch: %v", lerr)
				}
				return redirect(g.loginRedirect(target), "profile fetch failed")
			}
		}

		return proceed()
	}

	if target.Path == g.loginRoute && g.session.IsLoggedIn() {
		return redirect(g.homeRoute, "already authenticated")
	}

	return proceed()
}

// loginRedirect preserves the intended target as a return-path query
// parameter.
func (g *Guard) loginRedirect(target Route) string {
	return g.loginRoute + "?redirect=" + target.Path
}
