package client

import (
	"context"

	"github.com/dmitrijs2005/projectdesk/internal/client/models"
)

// EventKind names a provider-originated session change.
type EventKind string

const (
	EventInitialSession EventKind = "INITIAL_SESSION"
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// AuthEvent is delivered to OnAuthStateChange handlers. Session is nil when
// the provider reports no active session.
type AuthEvent struct {
	Kind    EventKind
	Session *models.Session
}

// AuthClient is the remote auth capability consumed by the session store.
//
// Contract:
//   - GetSession: the current session, or nil when signed out.
//   - SignInWithPassword / SignUp: fail with ErrAuthRejected or ErrNetwork.
//     SignUp may return a nil session when the provider requires
//     confirmation before signing in.
//   - SignOut: fails with ErrAuthRejected when the provider refuses.
//   - OnAuthStateChange: handlers receive every session change in order;
//     the returned func removes the handler.
type AuthClient interface {
	GetSession(ctx context.Context) (*models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(handler func(AuthEvent)) (unsubscribe func())
}

// ProfileClient is the remote keyed profile store. Both calls are subject to
// the provider's access-control policy.
type ProfileClient interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	InsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error)
}

// SessionCache persists the provider session between runs. Load returns
// nil, nil when nothing is cached.
type SessionCache interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}
