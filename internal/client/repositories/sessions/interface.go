package sessions

import (
	"context"

	"github.com/dmitrijs2005/projectdesk/internal/client/models"
)

// Repository stores at most one provider session: the one the client is
// currently signed in with.
type Repository interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}
