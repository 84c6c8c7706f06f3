package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/projectdesk/internal/client/router"
)

// Open navigates to path through the guard and moves the shell to wherever
// the guard decides. Failures are reported to the user, never returned.
func (a *App) Open(ctx context.Context, path string) {
	res := a.guard.Navigate(ctx, path)

	a.mu.Lock()
	a.route = res.Target
	a.params = nil
	if res.Decision == router.Allow {
		a.params = res.Match.Params
	}
	a.mu.Unlock()

	switch res.Decision {
	case router.RedirectToAuth:
		if res.Err != nil {
			a.println("Session could not be verified, please log in.")
			a.logger.Warn(ctx, "navigation failed closed", "path", path, "error", res.Err)
		} else {
			a.println("Sign in required.")
		}
	case router.RedirectToDashboard:
		a.println("Already signed in.")
	}

	a.describeRoute(res)
}

func (a *App) describeRoute(res router.Result) {
	if res.Decision != router.Allow {
		a.println("->", res.Target)
		return
	}
	if res.Match.Route == nil {
		a.println("->", res.Target, "(no such page)")
		return
	}
	name := res.Match.Route.Name
	if len(res.Match.Params) == 0 {
		a.println("->", res.Target, "["+name+"]")
		return
	}
	keys := make([]string, 0, len(res.Match.Params))
	for k := range res.Match.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+res.Match.Params[k])
	}
	a.println("->", res.Target, "["+name+" "+strings.Join(parts, " ")+"]")
}

// WhoAmI prints the signed-in user and their profile.
func (a *App) WhoAmI(_ context.Context) error {
	st := a.store.State()
	if st.CurrentUser == nil {
		return errors.New("not signed in")
	}
	a.println("user:    ", st.CurrentUser.ID, st.CurrentUser.Email)
	if p := st.CurrentProfile; p != nil {
		line := p.Username
		if p.FullName != "" {
			line = fmt.Sprintf("%s (%s)", p.Username, p.FullName)
		}
		if p.Synthetic() {
			line += " [local only: " + string(p.Fallback) + "]"
		}
		a.println("profile: ", line)
	}
	return nil
}

func (a *App) currentRoute() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}
