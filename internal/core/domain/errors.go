package domain

import "errors"

var (
	ErrDatesTooSoon    = errors.New("webinar must be scheduled at least 3 days in advance")
	ErrTooManySeats    = errors.New("webinar must have at most 1000 seats")
	ErrNotEnoughSeats  = errors.New("webinar must have at least 1 seat")
	ErrReduceSeats     = errors.New("webinar seats cannot be reduced")
	ErrWebinarNotFound = errors.New("webinar not found")
	ErrNotOrganizer    = errors.New("user is not the organizer of this webinar")

	// Raised by adapters, never by the use-cases.
	ErrWebinarExists = errors.New("webinar already exists")
	ErrWebinarBusy   = errors.New("webinar is being modified, retry later")
)

// ErrorKind is the closed set of business rejections a use-case can produce.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindDatesTooSoon
	KindTooManySeats
	KindNotEnoughSeats
	KindReduceSeats
	KindWebinarNotFound
	KindNotOrganizer
)

var kindErrors = []struct {
	kind ErrorKind
	err  error
}{
	{KindDatesTooSoon, ErrDatesTooSoon},
	{KindTooManySeats, ErrTooManySeats},
	{KindNotEnoughSeats, ErrNotEnoughSeats},
	{KindReduceSeats, ErrReduceSeats},
	{KindWebinarNotFound, ErrWebinarNotFound},
	{KindNotOrganizer, ErrNotOrganizer},
}

// KindOf maps err (possibly wrapped) to its ErrorKind.
// Infrastructure failures and nil map to KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, ke := range kindErrors {
		if errors.Is(err, ke.err) {
			return ke.kind
		}
	}
	return KindUnknown
}

// String returns the snake_case label used in logs and metrics.
func (k ErrorKind) String() string {
	switch k {
	case KindDatesTooSoon:
		return "dates_too_soon"
	case KindTooManySeats:
		return "too_many_seats"
	case KindNotEnoughSeats:
		return "not_enough_seats"
	case KindReduceSeats:
		return "reduce_seats"
	case KindWebinarNotFound:
		return "webinar_not_found"
	case KindNotOrganizer:
		return "not_organizer"
	default:
		return "unknown"
	}
}
