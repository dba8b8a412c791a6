// Package memory holds a process-local webinar store used for tests and
// single-instance deployments.
package memory

import (
	"context"
	"sync"

	"github.com/99minutos/webinar-system/internal/core/domain"
)

// WebinarRepository keeps webinar state in a map guarded by a mutex.
// Entities are copied on the way in and out, so callers never share state.
type WebinarRepository struct {
	mu    sync.RWMutex
	byID  map[string]domain.WebinarProps
	order []string
}

// NewWebinarRepository returns a store pre-filled with seed.
func NewWebinarRepository(seed ...*domain.Webinar) *WebinarRepository {
	r := &WebinarRepository{byID: make(map[string]domain.WebinarProps, len(seed))}
	for _, w := range seed {
		r.put(w.Props())
	}
	return r
}

func (r *WebinarRepository) Create(_ context.Context, w *domain.Webinar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[w.ID()]; ok {
		return domain.ErrWebinarExists
	}
	r.put(w.Props())
	return nil
}

func (r *WebinarRepository) FindByID(_ context.Context, id string) (*domain.Webinar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	props, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return domain.NewWebinar(props), nil
}

func (r *WebinarRepository) Update(_ context.Context, w *domain.Webinar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[w.ID()]; !ok {
		return domain.ErrWebinarNotFound
	}
	r.byID[w.ID()] = w.Props()
	return nil
}

// All returns the stored webinars in insertion order.
func (r *WebinarRepository) All() []domain.WebinarProps {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.WebinarProps, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *WebinarRepository) put(p domain.WebinarProps) {
	if _, ok := r.byID[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.byID[p.ID] = p
}
