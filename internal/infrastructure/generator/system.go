// Package generator provides the identifier and clock adapters injected into
// the webinar use-cases.
package generator

import (
	"time"

	"github.com/google/uuid"
)

// UUIDGenerator returns random RFC 4122 v4 identifiers.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
