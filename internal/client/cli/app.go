package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/projectdesk/internal/client/models"
	"github.com/dmitrijs2005/projectdesk/internal/client/router"
	"github.com/dmitrijs2005/projectdesk/internal/logging"
)

// SessionStore is the part of session.Store the shell uses.
type SessionStore interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	State() models.State
	Watch(fn func(models.State)) (cancel func())
}

// Navigator runs guarded transitions.
type Navigator interface {
	Navigate(ctx context.Context, path string) router.Result
}

// Option configures an App.
type Option func(*App)

// WithIO replaces stdin/stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.reader = bufio.NewReader(in)
		a.out = out
	}
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithLandingPath sets where the shell goes after a successful sign-in.
func WithLandingPath(p string) Option {
	return func(a *App) { a.landing = p }
}

type App struct {
	store   SessionStore
	guard   Navigator
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	landing string

	mu       sync.Mutex
	route    string
	params   map[string]string
	lastUser string
}

func NewApp(store SessionStore, guard Navigator, opts ...Option) *App {
	a := &App{
		store:   store,
		guard:   guard,
		logger:  logging.Nop(),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		landing: "/dashboard",
		route:   "/",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run opens the root route and serves commands until exit or end of input.
func (a *App) Run(ctx context.Context) {
	a.lastUser = userLabel(a.store.State())
	cancel := a.store.Watch(a.onStateChange)
	defer cancel()

	a.println("Welcome to ProjectDesk (type 'help' for commands)")
	a.Open(ctx, "/")
	runREPL(ctx, a, a.status, a.reader)
}

// onStateChange reports sign-in and sign-out as they are committed,
// including those caused outside the shell.
func (a *App) onStateChange(st models.State) {
	label := userLabel(st)

	a.mu.Lock()
	changed := label != a.lastUser
	a.lastUser = label
	a.mu.Unlock()

	if !changed {
		return
	}
	if label == "" {
		a.println("* signed out")
		return
	}
	a.println("* signed in as", label)
}

func (a *App) signedIn() bool {
	return a.store.State().SignedIn()
}

func (a *App) status() string {
	a.mu.Lock()
	route := a.route
	a.mu.Unlock()

	if u := userLabel(a.store.State()); u != "" {
		return fmt.Sprintf("%s (%s)", route, u)
	}
	return route
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func userLabel(st models.State) string {
	if st.CurrentUser == nil {
		return ""
	}
	if st.CurrentUser.Email != "" {
		return st.CurrentUser.Email
	}
	return st.CurrentUser.ID
}
