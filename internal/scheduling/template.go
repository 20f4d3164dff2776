package scheduling

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time with no date component.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24h notation. The whole string must
// be the time: trailing text and one-digit minutes are rejected.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.Minutes() < o.Minutes() }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// On combines the wall-clock time with a calendar date in loc,
// producing an absolute instant.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// TemplateEntry is one weekday's working window. The window is
// half-open: a slot starting exactly at End is never bookable.
type TemplateEntry struct {
	Weekday time.Weekday
	Start   TimeOfDay
	End     TimeOfDay
}

// WorkingHoursTemplate is a doctor's weekly working-hours template,
// at most one entry per weekday. Templates are replaced whole; there
// is no partial delete.
type WorkingHoursTemplate []TemplateEntry

// DefaultTemplate returns the Mon-Fri 09:00-17:00 template persisted
// for doctors registered without a custom schedule. It produces
// concrete entries so slot generation never special-cases a missing
// template.
func DefaultTemplate() WorkingHoursTemplate {
	tmpl := make(WorkingHoursTemplate, 0, 5)
	for wd := time.Monday; wd <= time.Friday; wd++ {
		tmpl = append(tmpl, TemplateEntry{
			Weekday: wd,
			Start:   TimeOfDay{Hour: 9},
			End:     TimeOfDay{Hour: 17},
		})
	}
	return tmpl
}

// EntryFor looks up the entry for a weekday. A missing entry means the
// doctor does not work that day.
func (t WorkingHoursTemplate) EntryFor(wd time.Weekday) (TemplateEntry, bool) {
	for _, e := range t {
		if e.Weekday == wd {
			return e, true
		}
	}
	return TemplateEntry{}, false
}

// Validate checks every entry has a real weekday, start < end, valid
// wall-clock times, and no weekday appears twice.
func (t WorkingHoursTemplate) Validate() error {
	seen := make(map[time.Weekday]bool, len(t))
	for _, e := range t {
		if e.Weekday < time.Sunday || e.Weekday > time.Saturday {
			return fmt.Errorf("template entry weekday %d out of range", int(e.Weekday))
		}
		if seen[e.Weekday] {
			return fmt.Errorf("duplicate template entry for %s", e.Weekday)
		}
		seen[e.Weekday] = true
		if !e.Start.valid() || !e.End.valid() {
			return fmt.Errorf("template entry for %s has out-of-range time", e.Weekday)
		}
		if !e.Start.Before(e.End) {
			return fmt.Errorf("template entry for %s: start %s is not before end %s",
				e.Weekday, e.Start, e.End)
		}
	}
	return nil
}
