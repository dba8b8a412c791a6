package domain

import "time"

const (
	// MinSeats is the smallest capacity a webinar may be organized with.
	MinSeats = 1
	// MaxSeats is the hard upper bound on a webinar's capacity.
	MaxSeats = 1000
	// MinLeadTime is the minimum interval between now and a new webinar's start.
	MinLeadTime = 72 * time.Hour
)

// WebinarProps is the full state of a webinar.
type WebinarProps struct {
	ID          string
	OrganizerID string
	Title       string
	StartDate   time.Time
	EndDate     time.Time
	Seats       int
}

// WebinarUpdate carries the mutable fields of a webinar. Nil fields are left untouched.
type WebinarUpdate struct {
	Seats *int
}

// Webinar is the aggregate root. It stores state and exposes rule helpers,
// but never validates on its own: the use-cases decide when a rule applies.
type Webinar struct {
	props   WebinarProps
	initial WebinarProps
}

// NewWebinar builds a webinar from props and records them as its initial snapshot.
func NewWebinar(props WebinarProps) *Webinar {
	return &Webinar{props: props, initial: props}
}

func (w *Webinar) ID() string { return w.props.ID }
func (w *Webinar) OrganizerID() string { return w.props.OrganizerID }
func (w *Webinar) Title() string { return w.props.Title }
func (w *Webinar) StartDate() time.Time { return w.props.StartDate }
func (w *Webinar) EndDate() time.Time { return w.props.EndDate }
func (w *Webinar) Seats() int { return w.props.Seats }

// Props returns a copy of the current state.
func (w *Webinar) Props() WebinarProps { return w.props }

// InitialState returns the state the webinar was constructed with.
// It lives in memory only and is never persisted.
func (w *Webinar) InitialState() WebinarProps { return w.initial }

// Update applies the non-nil fields of u in place.
func (w *Webinar) Update(u WebinarUpdate) {
	if u.Seats != nil {
		w.props.Seats = *u.Seats
	}
}

// HasNotEnoughSeats reports whether the capacity is below MinSeats.
func (w *Webinar) HasNotEnoughSeats() bool {
	return w.props.Seats < MinSeats
}

// HasTooManySeats reports whether the capacity exceeds MaxSeats.
func (w *Webinar) HasTooManySeats() bool {
	return w.props.Seats > MaxSeats
}

// IsTooSoon reports whether the webinar starts less than MinLeadTime after now.
func (w *Webinar) IsTooSoon(now time.Time) bool {
	return w.props.StartDate.Sub(now) < MinLeadTime
}

// IsOrganizer reports whether userID owns the webinar.
func (w *Webinar) IsOrganizer(userID string) bool {
	return w.props.OrganizerID == userID
}

// WouldReduceSeats reports whether target is lower than the current capacity.
func (w *Webinar) WouldReduceSeats(target int) bool {
	return target < w.props.Seats
}
