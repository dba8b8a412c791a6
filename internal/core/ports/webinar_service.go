package ports

import (
	"context"
	"time"

	"github.com/99minutos/webinar-system/internal/core/domain"
)

// OrganizeWebinarsInput is the command for scheduling a new webinar.
type OrganizeWebinarsInput struct {
	UserID    string
	Title     string
	Seats     int
	StartDate time.Time
	EndDate   time.Time
}

// OrganizeWebinarsResult is returned once the webinar is stored.
type OrganizeWebinarsResult struct {
	ID string
}

// ChangeSeatsInput is the command for raising a webinar's capacity.
type ChangeSeatsInput struct {
	User      domain.User
	WebinarID string
	Seats     int
}

// OrganizeWebinars creates webinars.
// Rejections: domain.ErrNotEnoughSeats, domain.ErrTooManySeats, domain.ErrDatesTooSoon.
type OrganizeWebinars interface {
	Execute(ctx context.Context, input OrganizeWebinarsInput) (*OrganizeWebinarsResult, error)
}

// ChangeSeats raises the seat count of an existing webinar.
// Rejections: domain.ErrWebinarNotFound, domain.ErrNotOrganizer,
// domain.ErrReduceSeats, domain.ErrTooManySeats.
type ChangeSeats interface {
	Execute(ctx context.Context, input ChangeSeatsInput) error
}
