package guard

import (
	"sort"
	"strings"

	"github.com/dmitrijs2005/insightpulse/internal/client/session"
	"github.com/dmitrijs2005/insightpulse/internal/models"
)

// Route is one entry of the page table.
type Route struct {
	Path      string
	Title     string
	Protected bool
	Roles     []models.Role
	// RedirectTo makes the route an alias of another path.
	RedirectTo string
}

type Router struct {
	routes map[string]Route
}

// DefaultRoutes is the dashboard's page table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Title: "Home"},
		{Path: "/login", Title: "Sign in"},
		{Path: "/register", Title: "Create account"},
		{Path: "/verify-email", Title: "Verify email"},
		{Path: "/reset-password", Title: "Reset password"},
		{Path: "/dashboard", Title: "Dashboard", Protected: true},
		{Path: "/analytics", Title: "Analytics", Protected: true},
		{Path: "/profile", Title: "Profile", Protected: true},
		{Path: "/admin", RedirectTo: "/admin/users"},
		{Path: "/admin/users", Title: "User management", Protected: true, Roles: []models.Role{models.RoleAdmin}},
		{Path: "/settings", Title: "Settings", Protected: true, Roles: []models.Role{models.RoleAdmin, models.RoleAnalyst}},
	}
}

func NewRouter(routes []Route) *Router {
	r := &Router{routes: make(map[string]Route, len(routes))}
	for _, rt := range routes {
		r.routes[rt.Path] = rt
	}
	return r
}

func normalize(location string) string {
	path, _, _ := strings.Cut(location, "?")
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}

// Lookup returns the route for location after following aliases.
func (r *Router) Lookup(location string) (Route, bool) {
	path := normalize(location)
	for range len(r.routes) + 1 {
		rt, ok := r.routes[path]
		if !ok {
			return Route{}, false
		}
		if rt.RedirectTo == "" {
			return rt, true
		}
		path = rt.RedirectTo
	}
	return Route{}, false
}

// Navigate resolves location against the table and guards it with state.
// It keeps no state of its own and is meant to be called on every move.
func (r *Router) Navigate(state session.State, location string) Decision {
	rt, ok := r.Lookup(location)
	if !ok {
		return Decision{Outcome: NotFound, Path: normalize(location)}
	}
	if !rt.Protected {
		return Decision{Outcome: Render, Path: rt.Path}
	}
	d := Check(state, rt.Roles, rt.Path)
	if d.Outcome == RedirectLogin {
		d.From = location
	}
	return d
}

// Paths lists the routable paths, sorted.
func (r *Router) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
