package ports

import "time"

// IDGenerator produces unique webinar identifiers.
type IDGenerator interface {
	Generate() string
}

// DateGenerator reports the current instant. Temporal rules read time only through it.
type DateGenerator interface {
	Now() time.Time
}
