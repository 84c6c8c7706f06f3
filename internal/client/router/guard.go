package router

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/projectdesk/internal/client/models"
	"github.com/dmitrijs2005/projectdesk/internal/logging"
)

// Phase is the guard's position within one transition.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReconciling
	PhaseDeciding
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReconciling:
		return "reconciling"
	case PhaseDeciding:
		return "deciding"
	default:
		return "unknown"
	}
}

// Decision is the terminal outcome of a transition.
type Decision int

const (
	Allow Decision = iota
	RedirectToAuth
	RedirectToDashboard
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToAuth:
		return "redirect-to-auth"
	case RedirectToDashboard:
		return "redirect-to-dashboard"
	default:
		return "unknown"
	}
}

// Reconciler is the part of the session store the guard depends on.
type Reconciler interface {
	Reconcile(ctx context.Context) (models.State, error)
}

// Result describes a finished transition. Target is where the caller should
// end up; Match describes the requested path after redirects. Err holds the
// reconciliation failure that forced a RedirectToAuth, if any.
type Result struct {
	Decision Decision
	Target   string
	Match    Match
	State    models.State
	Err      error
}

// Option configures a Guard.
type Option func(*Guard)

func WithLogger(l logging.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithPhaseHook calls fn on every phase change.
func WithPhaseHook(fn func(Phase)) Option {
	return func(g *Guard) { g.onPhase = fn }
}

// Guard decides every transition on freshly reconciled session state.
// Transitions are processed one at a time.
type Guard struct {
	table   *Table
	store   Reconciler
	logger  logging.Logger
	onPhase func(Phase)

	nav   sync.Mutex
	mu    sync.Mutex
	phase Phase
}

func NewGuard(table *Table, store Reconciler, opts ...Option) *Guard {
	g := &Guard{
		table:  table,
		store:  store,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Phase reports the current phase.
func (g *Guard) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Guard) enter(p Phase) {
	g.mu.Lock()
	g.phase = p
	g.mu.Unlock()
	if g.onPhase != nil {
		g.onPhase(p)
	}
}

// Navigate runs one transition to p. Any reconciliation failure, and any
// path that cannot be resolved, ends in RedirectToAuth.
func (g *Guard) Navigate(ctx context.Context, p string) Result {
	g.nav.Lock()
	defer g.nav.Unlock()
	defer g.enter(PhaseIdle)

	m, err := g.table.Resolve(p)
	if err != nil {
		g.logger.Error(ctx, "route resolution failed", "path", p, "error", err)
		return g.toAuth(Match{Path: p}, models.State{}, err)
	}

	g.enter(PhaseReconciling)
	st, err := g.store.Reconcile(ctx)
	if err != nil {
		g.logger.Error(ctx, "session reconciliation failed, redirecting to sign-in", "path", m.Path, "error", err)
		return g.toAuth(m, models.State{}, err)
	}

	g.enter(PhaseDeciding)
	res := g.decide(m, st)
	g.logger.Debug(ctx, "navigation decided", "path", m.Path, "decision", res.Decision, "target", res.Target)
	return res
}

func (g *Guard) decide(m Match, st models.State) Result {
	signedIn := st.CurrentUser != nil
	switch {
	case m.Route != nil && m.Route.RequiresAuth && !signedIn:
		return g.toAuth(m, st, nil)
	case m.Route != nil && m.Route.SignIn && signedIn:
		return Result{Decision: RedirectToDashboard, Target: g.table.LandingPath(), Match: m, State: st}
	default:
		return Result{Decision: Allow, Target: m.Path, Match: m, State: st}
	}
}

func (g *Guard) toAuth(m Match, st models.State, err error) Result {
	return Result{Decision: RedirectToAuth, Target: g.table.SignInPath(), Match: m, State: st, Err: err}
}
