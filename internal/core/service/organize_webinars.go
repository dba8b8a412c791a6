package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/webinar-system/internal/core/domain"
	"github.com/99minutos/webinar-system/internal/core/ports"
)

type OrganizeWebinarsService struct {
	repo   ports.WebinarRepository
	ids    ports.IDGenerator
	clock  ports.DateGenerator
	logger zerolog.Logger
}

func NewOrganizeWebinarsService(
	repo ports.WebinarRepository,
	ids ports.IDGenerator,
	clock ports.DateGenerator,
	logger zerolog.Logger,
) *OrganizeWebinarsService {
	return &OrganizeWebinarsService{repo: repo, ids: ids, clock: clock, logger: logger}
}

// Execute validates the command and stores a new webinar owned by input.UserID.
// Nothing is persisted when a rule rejects the command.
func (s *OrganizeWebinarsService) Execute(ctx context.Context, input ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
	webinar := domain.NewWebinar(domain.WebinarProps{
		ID:          s.ids.Generate(),
		OrganizerID: input.UserID,
		Title:       input.Title,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Seats:       input.Seats,
	})

	// Order matters: callers rely on the first failing rule being reported.
	switch {
	case webinar.HasNotEnoughSeats():
		return nil, s.reject(webinar, domain.ErrNotEnoughSeats)
	case webinar.HasTooManySeats():
		return nil, s.reject(webinar, domain.ErrTooManySeats)
	case webinar.IsTooSoon(s.clock.Now()):
		return nil, s.reject(webinar, domain.ErrDatesTooSoon)
	}

	if err := s.repo.Create(ctx, webinar); err != nil {
		s.logger.Error().Err(err).Str("webinar_id", webinar.ID()).Msg("failed to create webinar")
		return nil, fmt.Errorf("organize webinar: %w", err)
	}

	s.logger.Info().
		Str("webinar_id", webinar.ID()).
		Str("organizer_id", webinar.OrganizerID()).
		Int("seats", webinar.Seats()).
		Msg("webinar organized")

	return &ports.OrganizeWebinarsResult{ID: webinar.ID()}, nil
}

func (s *OrganizeWebinarsService) reject(w *domain.Webinar, err error) error {
	s.logger.Debug().
		Str("organizer_id", w.OrganizerID()).
		Int("seats", w.Seats()).
		Time("start_date", w.StartDate()).
		Str("reason", domain.KindOf(err).String()).
		Msg("webinar rejected")
	return fmt.Errorf("organize webinar: %w", err)
}
