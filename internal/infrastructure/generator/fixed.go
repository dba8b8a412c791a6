package generator

import (
	"fmt"
	"sync"
	"time"
)

// DefaultFixedNow is the instant FixedDateGenerator reports unless told otherwise.
var DefaultFixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FixedIDGenerator returns "id-1", "id-2", ... in call order.
type FixedIDGenerator struct {
	mu   sync.Mutex
	next int
}

func NewFixedIDGenerator() *FixedIDGenerator {
	return &FixedIDGenerator{}
}

func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%d", g.next)
}

// FixedDateGenerator always reports the same instant.
type FixedDateGenerator struct {
	now time.Time
}

// NewFixedDateGenerator returns a clock frozen at DefaultFixedNow.
func NewFixedDateGenerator() FixedDateGenerator {
	return FixedDateGenerator{now: DefaultFixedNow}
}

// NewFixedDateGeneratorAt returns a clock frozen at t.
func NewFixedDateGeneratorAt(t time.Time) FixedDateGenerator {
	return FixedDateGenerator{now: t.UTC()}
}

func (g FixedDateGenerator) Now() time.Time {
	return g.now
}
