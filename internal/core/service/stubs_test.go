package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/webinar-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubWebinarRepo struct {
	byID      map[string]domain.WebinarProps
	created   []*domain.Webinar
	updates   int
	findErr   error
	createErr error
	updateErr error
}

func newStubWebinarRepo(seed ...*domain.Webinar) *stubWebinarRepo {
	r := &stubWebinarRepo{byID: make(map[string]domain.WebinarProps)}
	for _, w := range seed {
		r.byID[w.ID()] = w.Props()
	}
	return r
}

func (r *stubWebinarRepo) Create(_ context.Context, w *domain.Webinar) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, w)
	r.byID[w.ID()] = w.Props()
	return nil
}

func (r *stubWebinarRepo) FindByID(_ context.Context, id string) (*domain.Webinar, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	props, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return domain.NewWebinar(props), nil
}

func (r *stubWebinarRepo) Update(_ context.Context, w *domain.Webinar) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates++
	r.byID[w.ID()] = w.Props()
	return nil
}

func (r *stubWebinarRepo) seats(id string) int {
	return r.byID[id].Seats
}

var discardLogger = zerolog.Nop()
