package clock

import (
	"fmt"
	"time"
)

// Clock abstracts the current-instant source so scheduling logic can be
// tested against a frozen time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by the wall clock, normalized to UTC.
func System() Clock { return systemClock{} }

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time { return f.t }

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock { return fixedClock{t: t} }

// TimeContext pairs an instant source with the clinic's IANA timezone.
// All weekday and working-hours decisions are derived in this location;
// nothing else in the codebase is allowed to hold a timezone or offset.
type TimeContext struct {
	clock Clock
	loc   *time.Location
}

// NewTimeContext resolves tzName (an IANA name such as "Asia/Kolkata")
// against the system zone database.
func NewTimeContext(c Clock, tzName string) (TimeContext, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return TimeContext{}, fmt.Errorf("load timezone %q: %w", tzName, err)
	}
	return TimeContext{clock: c, loc: loc}, nil
}

// FixedContext is a test helper building a context from an explicit
// clock and location.
func FixedContext(c Clock, loc *time.Location) TimeContext {
	return TimeContext{clock: c, loc: loc}
}

func (tc TimeContext) Now() time.Time { return tc.clock.Now() }

func (tc TimeContext) Location() *time.Location { return tc.loc }

// Local renders an absolute instant in the context's timezone.
func (tc TimeContext) Local(t time.Time) time.Time { return t.In(tc.loc) }
