// Package router holds the client's route table and the navigation guard
// that gates every transition on the reconciled session.
package router

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrNoSignInRoute  = errors.New("route table has no sign-in route")
	ErrNoLandingRoute = errors.New("route table has no landing route")
	ErrRedirectLoop   = errors.New("route redirects do not terminate")
	ErrInvalidRoute   = errors.New("invalid route")
)

const maxRedirects = 8

// Route is one entry of the table. A route with Redirect set only forwards
// to another path and is never guarded itself.
type Route struct {
	Path         string
	Name         string
	RequiresAuth bool
	Redirect     string

	// SignIn marks the sign-in/sign-up entry point.
	SignIn bool
	// Landing marks the page signed-in users are sent to.
	Landing bool
}

// DefaultRoutes returns the application's routes.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/auth", Name: "auth", SignIn: true},
		{Path: "/dashboard", Name: "dashboard", RequiresAuth: true, Landing: true},
		{Path: "/projects/:id", Name: "project-detail", RequiresAuth: true},
		{Path: "/", Redirect: "/dashboard"},
	}
}

// Match is the outcome of resolving a path against the table. Route is nil
// for paths the table does not know.
type Match struct {
	Path   string
	Route  *Route
	Params map[string]string
}

// Table is an ordered, immutable route table; the first matching route wins.
type Table struct {
	routes  []Route
	signIn  *Route
	landing *Route
}

// NewTable validates routes. It needs one SignIn and one Landing route.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{routes: make([]Route, len(routes))}
	copy(t.routes, routes)

	for i := range t.routes {
		r := &t.routes[i]
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, r.Path)
		}
		if r.Redirect != "" && (r.SignIn || r.Landing || r.RequiresAuth) {
			return nil, fmt.Errorf("%w: redirect route %q cannot be guarded", ErrInvalidRoute, r.Path)
		}
		if r.SignIn && t.signIn == nil {
			t.signIn = r
		}
		if r.Landing && t.landing == nil {
			t.landing = r
		}
	}
	if t.signIn == nil {
		return nil, ErrNoSignInRoute
	}
	if t.landing == nil {
		return nil, ErrNoLandingRoute
	}
	if strings.Contains(t.signIn.Path, ":") || strings.Contains(t.landing.Path, ":") {
		return nil, fmt.Errorf("%w: entry points cannot take parameters", ErrInvalidRoute)
	}
	return t, nil
}

func (t *Table) SignInPath() string  { return t.signIn.Path }
func (t *Table) LandingPath() string { return t.landing.Path }

// Routes returns a copy of the table.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Resolve normalises p, follows redirects and matches the result.
func (t *Table) Resolve(p string) (Match, error) {
	p = normalise(p)
	for hops := 0; hops <= maxRedirects; hops++ {
		r, params := t.match(p)
		if r == nil || r.Redirect == "" {
			return Match{Path: p, Route: r, Params: params}, nil
		}
		p = normalise(r.Redirect)
	}
	return Match{}, fmt.Errorf("%w: %s", ErrRedirectLoop, p)
}

func (t *Table) match(p string) (*Route, map[string]string) {
	for i := range t.routes {
		if params, ok := matchPattern(t.routes[i].Path, p); ok {
			return &t.routes[i], params
		}
	}
	return nil, nil
}

// matchPattern matches p against a pattern whose ":name" segments capture
// one path segment each.
func matchPattern(pattern, p string) (map[string]string, bool) {
	ps := splitPath(pattern)
	xs := splitPath(p)
	if len(ps) != len(xs) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range ps {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if xs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// normalise drops any query or fragment and cleans the path.
func normalise(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
