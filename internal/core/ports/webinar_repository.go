package ports

import (
	"context"

	"github.com/99minutos/webinar-system/internal/core/domain"
)

// WebinarRepository persists webinars in a single store keyed by id.
type WebinarRepository interface {
	// Create inserts a new webinar. Returns domain.ErrWebinarExists when the id is taken.
	Create(ctx context.Context, w *domain.Webinar) error
	// FindByID returns (nil, nil) when no webinar has the given id.
	FindByID(ctx context.Context, id string) (*domain.Webinar, error)
	// Update replaces the stored state of an existing webinar.
	Update(ctx context.Context, w *domain.Webinar) error
}
