package quota

import (
	"sync"
	"time"
)

const dayFormat = "2006-01-02"

// Clock supplies the current time. Injected so day rollover is testable
// with a fake date source.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Gate tracks a per-day recognition counter and denies attempts once the
// daily ceiling is reached. The counter resets automatically when the
// calendar day changes. The limit is advisory and local to this process:
// check-then-commit is not atomic across concurrent recognitions, so two
// overlapping attempts can both pass the check with one slot remaining.
// The counter lives in memory only; a process restart starts the day at
// zero again.
type Gate struct {
	mu    sync.Mutex
	clock Clock
	limit int
	day   string
	count int
}

// NewGate creates a gate with the given daily ceiling, using the system clock.
func NewGate(limit int) *Gate {
	return NewGateWithClock(limit, systemClock{})
}

// NewGateWithClock creates a gate with an injected clock.
func NewGateWithClock(limit int, clock Clock) *Gate {
	return &Gate{clock: clock, limit: limit}
}

// CheckAndReserve reports whether another recognition is allowed today.
// It is a pure read of the allowance: the counter is only advanced by Commit.
func (g *Gate) CheckAndReserve() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()
	return g.count < g.limit
}

// Commit consumes exactly one slot. Call it only after a recognition attempt
// fully succeeded, so failed attempts never burn quota.
func (g *Gate) Commit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()
	g.count++
}

// Remaining returns the number of recognitions still allowed today.
func (g *Gate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()
	if g.count >= g.limit {
		return 0
	}
	return g.limit - g.count
}

// Limit returns the configured daily ceiling.
func (g *Gate) Limit() int {
	return g.limit
}

// rollover resets the counter on the first touch of a new calendar day.
// Callers must hold g.mu.
func (g *Gate) rollover() {
	today := g.clock.Now().Format(dayFormat)
	if g.day != today {
		g.day = today
		g.count = 0
	}
}
