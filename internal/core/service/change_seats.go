package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/webinar-system/internal/core/domain"
	"github.com/99minutos/webinar-system/internal/core/ports"
)

// ChangeSeatsService raises the capacity of an existing webinar.
//
// The read and the write are two separate repository calls; two concurrent
// executions against the same id can lose an update unless the caller or the
// repository serialises them.
type ChangeSeatsService struct {
	repo   ports.WebinarRepository
	logger zerolog.Logger
}

func NewChangeSeatsService(repo ports.WebinarRepository, logger zerolog.Logger) *ChangeSeatsService {
	return &ChangeSeatsService{repo: repo, logger: logger}
}

func (s *ChangeSeatsService) Execute(ctx context.Context, input ports.ChangeSeatsInput) error {
	webinar, err := s.repo.FindByID(ctx, input.WebinarID)
	if err != nil {
		return fmt.Errorf("change seats: %w", err)
	}
	if webinar == nil {
		return s.reject(input, domain.ErrWebinarNotFound)
	}

	if !webinar.IsOrganizer(input.User.ID) {
		return s.reject(input, domain.ErrNotOrganizer)
	}
	if webinar.WouldReduceSeats(input.Seats) {
		return s.reject(input, domain.ErrReduceSeats)
	}
	if input.Seats > domain.MaxSeats {
		return s.reject(input, domain.ErrTooManySeats)
	}

	previous := webinar.Seats()
	webinar.Update(domain.WebinarUpdate{Seats: &input.Seats})

	if err := s.repo.Update(ctx, webinar); err != nil {
		s.logger.Error().Err(err).Str("webinar_id", input.WebinarID).Msg("failed to update webinar")
		return fmt.Errorf("change seats: %w", err)
	}

	s.logger.Info().
		Str("webinar_id", input.WebinarID).
		Int("from", previous).
		Int("to", input.Seats).
		Msg("seats changed")

	return nil
}

func (s *ChangeSeatsService) reject(input ports.ChangeSeatsInput, err error) error {
	s.logger.Debug().
		Str("webinar_id", input.WebinarID).
		Str("user_id", input.User.ID).
		Int("seats", input.Seats).
		Str("reason", domain.KindOf(err).String()).
		Msg("seat change rejected")
	return fmt.Errorf("change seats: %w", err)
}
