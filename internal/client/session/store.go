// Package session holds the client's canonical view of the signed-in user
// and their profile, kept in step with the remote auth provider.
//
// Reconciliations and provider events are numbered when the provider's
// session is observed: a reconciliation once GetSession returns, an event on
// receipt. A result is committed only when it is newer than the last
// committed one, so a slow stale result never overwrites fresher state.
package session

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrijs2005/projectdesk/internal/client/client"
	"github.com/dmitrijs2005/projectdesk/internal/client/models"
	"github.com/dmitrijs2005/projectdesk/internal/client/profile"
	"github.com/dmitrijs2005/projectdesk/internal/logging"
)

// ErrDisposed is returned by operations on a disposed Store.
var ErrDisposed = errors.New("session store disposed")

// Option configures a Store.
type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is safe for concurrent use.
type Store struct {
	auth     client.AuthClient
	profiles profile.Resolver
	logger   logging.Logger

	mu        sync.Mutex
	user      *models.User
	profile   *models.Profile
	loading   int
	seq       uint64
	committed uint64

	observers map[int]func(models.State)
	nextObsID int
	notifyMu  sync.Mutex

	initOnce    sync.Once
	initialized bool
	disposed    bool
	unsubscribe func()
	baseCtx     context.Context
	cancel      context.CancelFunc
	handlers    sync.WaitGroup
}

// New returns an uninitialised Store. Call Init before use.
func New(auth client.AuthClient, profiles profile.Resolver, opts ...Option) *Store {
	s := &Store{
		auth:      auth,
		profiles:  profiles,
		logger:    logging.Nop(),
		observers: make(map[int]func(models.State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init subscribes to provider events and performs the first reconciliation.
// Only the first call has any effect.
func (s *Store) Init(ctx context.Context) error {
	first := false
	s.initOnce.Do(func() {
		first = true
		s.mu.Lock()
		if s.disposed {
			s.mu.Unlock()
			return
		}
		s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
		s.initialized = true
		s.mu.Unlock()

		unsubscribe := s.auth.OnAuthStateChange(s.onAuthEvent)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.disposed {
			unsubscribe()
			return
		}
		s.unsubscribe = unsubscribe
	})
	if !first {
		return nil
	}
	if s.isDisposed() {
		return ErrDisposed
	}
	_, err := s.Reconcile(ctx)
	return err
}

// Dispose removes the provider subscription and waits for event handlers
// still running. The store keeps its last state but ignores further events.
func (s *Store) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	unsubscribe, cancel := s.unsubscribe, s.cancel
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	s.handlers.Wait()
}

func (s *Store) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *Store) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Reconcile pulls the provider's current session into the store and returns
// the resulting state. The user and profile are settled when it returns:
// either this call committed them or a newer reconciliation already had.
// On error the state is left untouched.
func (s *Store) Reconcile(ctx context.Context) (models.State, error) {
	if s.isDisposed() {
		return models.State{}, ErrDisposed
	}
	sess, err := s.auth.GetSession(ctx)
	if err != nil {
		s.logger.Warn(ctx, "session reconciliation failed", "error", err)
		return s.State(), err
	}
	seq := s.nextSeq()
	s.apply(ctx, seq, sess, false)
	return s.State(), nil
}

func (s *Store) onAuthEvent(ev client.AuthEvent) {
	s.mu.Lock()
	if s.disposed || !s.initialized {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	ctx := s.baseCtx
	s.handlers.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.handlers.Done()
		s.logger.Debug(ctx, "auth event", "event", ev.Kind, "seq", seq)
		s.apply(ctx, seq, ev.Session, ev.Kind == client.EventUserUpdated)
	}()
}

// apply resolves the profile for the session's user and commits the pair.
// The profile already held for the same user is reused unless refresh is
// set. A synthetic profile is reused even then and stays in place for the
// session's lifetime.
func (s *Store) apply(ctx context.Context, seq uint64, sess *models.Session, refresh bool) {
	if sess == nil {
		s.commit(ctx, seq, nil, nil)
		return
	}
	user := sess.User
	user.Metadata = maps.Clone(sess.User.Metadata)

	var prof *models.Profile
	s.mu.Lock()
	if s.user != nil && s.user.ID == user.ID && s.profile != nil && (!refresh || s.profile.Synthetic()) {
		prof = s.profile
	}
	s.mu.Unlock()
	if prof == nil {
		prof = s.profiles.Resolve(ctx, user.ID)
	}
	s.commit(ctx, seq, &user, prof)
}

func (s *Store) commit(ctx context.Context, seq uint64, user *models.User, prof *models.Profile) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if seq <= s.committed {
		s.mu.Unlock()
		s.logger.Debug(ctx, "discarding stale session result", "seq", seq)
		return
	}
	s.committed = seq
	s.user = user
	s.profile = prof
	if user == nil {
		s.profile = nil
	}
	st := s.stateLocked()
	obs := s.observersLocked()
	s.mu.Unlock()

	s.notify(obs, st)
}

// SignIn authenticates with the provider. The signed-in user reaches the
// store through the provider's event, not through this call.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	return s.withLoading(func() error {
		_, err := s.auth.SignInWithPassword(ctx, email, password)
		return err
	})
}

// SignUp registers a new account. Like SignIn it leaves the state to the
// provider's event.
func (s *Store) SignUp(ctx context.Context, email, password string) error {
	return s.withLoading(func() error {
		_, err := s.auth.SignUp(ctx, email, password)
		return err
	})
}

// SignOut asks the provider to end the session. Local state is cleared by
// the resulting SIGNED_OUT event.
func (s *Store) SignOut(ctx context.Context) error {
	return s.auth.SignOut(ctx)
}

func (s *Store) withLoading(fn func() error) error {
	s.setLoading(1)
	defer s.setLoading(-1)
	return fn()
}

func (s *Store) setLoading(delta int) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	before := s.loading > 0
	s.loading += delta
	after := s.loading > 0
	st := s.stateLocked()
	obs := s.observersLocked()
	s.mu.Unlock()

	if before != after {
		s.notify(obs, st)
	}
}

// State returns a snapshot.
func (s *Store) State() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() models.State {
	st := models.State{IsLoading: s.loading > 0}
	if s.user != nil {
		u := *s.user
		u.Metadata = maps.Clone(s.user.Metadata)
		st.CurrentUser = &u
	}
	if s.profile != nil {
		p := *s.profile
		st.CurrentProfile = &p
	}
	return st
}

func (s *Store) CurrentUser() *models.User       { return s.State().CurrentUser }
func (s *Store) CurrentProfile() *models.Profile { return s.State().CurrentProfile }
func (s *Store) IsLoading() bool                 { return s.State().IsLoading }

// Watch registers fn to receive the state after every change. Observers run
// synchronously in change order and must not call the store's mutating
// methods. The returned func removes fn.
func (s *Store) Watch(fn func(models.State)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextObsID++
	id := s.nextObsID
	s.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) observersLocked() []func(models.State) {
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(models.State), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.observers[id])
	}
	return out
}

// notify must be called with notifyMu held.
func (s *Store) notify(obs []func(models.State), st models.State) {
	for _, fn := range obs {
		fn(st)
	}
}
