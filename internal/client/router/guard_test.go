package router

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/projectdesk/internal/client/client"
	"github.com/dmitrijs2005/projectdesk/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	state models.State
	err   error
	calls int
}

func (f *fakeStore) Reconcile(context.Context) (models.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.state, f.err
}

func signedIn() models.State {
	return models.State{
		CurrentUser:    &models.User{ID: "u1", Email: "u1@example.com"},
		CurrentProfile: &models.Profile{ID: "u1", Username: "user_u1"},
	}
}

func newTestGuard(t *testing.T, store Reconciler, opts ...Option) *Guard {
	t.Helper()
	tbl, err := NewTable(DefaultRoutes())
	require.NoError(t, err)
	return NewGuard(tbl, store, opts...)
}

func TestNavigate_Decisions(t *testing.T) {
	tests := []struct {
		name       string
		state      models.State
		path       string
		want       Decision
		wantTarget string
	}{
		{"dashboard without session", models.State{}, "/dashboard", RedirectToAuth, "/auth"},
		{"project without session", models.State{}, "/projects/7", RedirectToAuth, "/auth"},
		{"root without session", models.State{}, "/", RedirectToAuth, "/auth"},
		{"auth without session", models.State{}, "/auth", Allow, "/auth"},
		{"auth with session", signedIn(), "/auth", RedirectToDashboard, "/dashboard"},
		{"dashboard with session", signedIn(), "/dashboard", Allow, "/dashboard"},
		{"root with session", signedIn(), "/", Allow, "/dashboard"},
		{"project with session", signedIn(), "/projects/7", Allow, "/projects/7"},
		{"unknown path without session", models.State{}, "/about", Allow, "/about"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{state: tt.state}
			g := newTestGuard(t, store)

			res := g.Navigate(context.Background(), tt.path)

			assert.Equal(t, tt.want, res.Decision)
			assert.Equal(t, tt.wantTarget, res.Target)
			assert.NoError(t, res.Err)
			assert.Equal(t, 1, store.calls)
			assert.Equal(t, PhaseIdle, g.Phase())
		})
	}
}

func TestNavigate_FailsClosed(t *testing.T) {
	netErr := fmt.Errorf("%w: connection refused", client.ErrNetwork)
	for _, p := range []string{"/dashboard", "/auth", "/projects/1", "/", "/about"} {
		t.Run(p, func(t *testing.T) {
			g := newTestGuard(t, &fakeStore{state: signedIn(), err: netErr})

			res := g.Navigate(context.Background(), p)

			assert.Equal(t, RedirectToAuth, res.Decision)
			assert.Equal(t, "/auth", res.Target)
			assert.ErrorIs(t, res.Err, client.ErrNetwork)
			assert.Nil(t, res.State.CurrentUser)
		})
	}
}

func TestNavigate_Params(t *testing.T) {
	g := newTestGuard(t, &fakeStore{state: signedIn()})

	res := g.Navigate(context.Background(), "/projects/abc-123")

	require.Equal(t, Allow, res.Decision)
	require.NotNil(t, res.Match.Route)
	assert.Equal(t, "project-detail", res.Match.Route.Name)
	assert.Equal(t, map[string]string{"id": "abc-123"}, res.Match.Params)
	assert.Equal(t, "u1", res.State.CurrentUser.ID)
}

func TestNavigate_Phases(t *testing.T) {
	var phases []Phase
	g := newTestGuard(t, &fakeStore{}, WithPhaseHook(func(p Phase) { phases = append(phases, p) }))

	g.Navigate(context.Background(), "/dashboard")

	assert.Equal(t, []Phase{PhaseReconciling, PhaseDeciding, PhaseIdle}, phases)

	phases = nil
	g = newTestGuard(t, &fakeStore{err: client.ErrNetwork}, WithPhaseHook(func(p Phase) { phases = append(phases, p) }))
	g.Navigate(context.Background(), "/dashboard")
	assert.Equal(t, []Phase{PhaseReconciling, PhaseIdle}, phases)
}

func TestDecisionAndPhaseStrings(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect-to-auth", RedirectToAuth.String())
	assert.Equal(t, "redirect-to-dashboard", RedirectToDashboard.String())
	assert.Equal(t, "reconciling", PhaseReconciling.String())
	assert.Equal(t, "unknown", Decision(9).String())
}
