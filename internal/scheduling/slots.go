package scheduling

import "time"

// BookedSet holds the instants already taken for a doctor on a day.
// Keys are unix seconds so that two time.Time values naming the same
// instant in different locations compare equal.
type BookedSet map[int64]struct{}

func NewBookedSet(instants []time.Time) BookedSet {
	s := make(BookedSet, len(instants))
	for _, t := range instants {
		s[t.Truncate(time.Minute).Unix()] = struct{}{}
	}
	return s
}

func (s BookedSet) Contains(t time.Time) bool {
	_, ok := s[t.Truncate(time.Minute).Unix()]
	return ok
}

// GenerateSlots computes the bookable instants for one doctor on one
// calendar day. It is a pure function over its inputs: the weekly
// template, the already-booked instants, the target day, the slot
// granularity, the current instant, and the clinic timezone.
//
// Saturdays and Sundays produce no slots regardless of template
// content. Slot boundaries are half-open [start, end): a slot starting
// exactly at the end of the working window is never produced.
// Candidates at or before now are dropped, as are exact-instant
// matches against booked. The result is in ascending order and is
// recomputed fresh on every call.
func GenerateSlots(tmpl WorkingHoursTemplate, booked BookedSet, day time.Time, slotDuration time.Duration, now time.Time, loc *time.Location) []time.Time {
	if slotDuration <= 0 {
		return nil
	}

	local := day.In(loc)
	wd := local.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return nil
	}

	entry, ok := tmpl.EntryFor(wd)
	if !ok {
		return nil
	}

	start := entry.Start.On(local, loc)
	end := entry.End.On(local, loc)

	var slots []time.Time
	for t := start; t.Before(end); t = t.Add(slotDuration) {
		if !t.After(now) {
			continue
		}
		if booked.Contains(t) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}
