// Package profile resolves the application profile for an authenticated
// user: fetch it, create it on first sight, or fall back to a locally
// fabricated profile when the store refuses the write.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/projectdesk/internal/client/client"
	"github.com/dmitrijs2005/projectdesk/internal/client/models"
	"github.com/dmitrijs2005/projectdesk/internal/common"
	"github.com/dmitrijs2005/projectdesk/internal/logging"
)

// Resolver is what the session store needs from a Provisioner.
type Resolver interface {
	Resolve(ctx context.Context, userID string) *models.Profile
}

var _ Resolver = (*Provisioner)(nil)

// Option configures a Provisioner.
type Option func(*Provisioner)

func WithLogger(l logging.Logger) Option {
	return func(p *Provisioner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock sets the time source for synthetic CreatedAt values.
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) {
		if now != nil {
			p.now = now
		}
	}
}

// Provisioner fetches or creates profiles in a remote ProfileClient.
type Provisioner struct {
	store  client.ProfileClient
	logger logging.Logger
	now    func() time.Time
}

// NewProvisioner returns a Provisioner backed by store.
func NewProvisioner(store client.ProfileClient, opts ...Option) *Provisioner {
	p := &Provisioner{
		store:  store,
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultUsername derives the placeholder username for userID: "user_"
// followed by its first eight characters, or the whole id when shorter.
func DefaultUsername(userID string) string {
	id := []rune(userID)
	if len(id) > common.UsernameIDLength {
		id = id[:common.UsernameIDLength]
	}
	return common.UsernamePrefix + string(id)
}

// Resolve returns the profile for userID. It never fails: when the record
// can be neither read nor created, a synthetic profile is returned and the
// cause is recorded in its Fallback field.
func (p *Provisioner) Resolve(ctx context.Context, userID string) *models.Profile {
	logger := p.logger.With("user_id", userID)

	existing, err := p.store.GetProfile(ctx, userID)
	if err == nil && existing != nil {
		return existing
	}
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		logger.Debug(ctx, "profile fetch failed, trying to create", "error", err)
	}

	inserted, err := p.store.InsertProfile(ctx, &models.Profile{
		ID:       userID,
		Username: DefaultUsername(userID),
	})
	if err == nil && inserted != nil {
		logger.Info(ctx, "profile created", "username", inserted.Username)
		return inserted
	}
	if err == nil {
		err = errors.New("insert returned no profile")
	}

	if client.IsAccessDenied(err) {
		logger.Warn(ctx, "profile insert blocked by access policy, using synthetic profile", "error", err)
		return p.synthetic(userID, models.FallbackAccessDenied)
	}
	logger.Error(ctx, "profile insert failed, using synthetic profile", "error", err)
	return p.synthetic(userID, models.FallbackInsertFailed)
}

func (p *Provisioner) synthetic(userID string, reason models.FallbackReason) *models.Profile {
	return &models.Profile{
		ID:         userID,
		Username:   DefaultUsername(userID),
		CreatedAt:  p.now().UTC(),
		Provenance: models.ProvenanceSynthetic,
		Fallback:   reason,
	}
}
