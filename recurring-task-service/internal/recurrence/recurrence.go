// Package recurrence computes the next occurrence of a recurring task.
// Pure calendar arithmetic, no clock access, so it is trivially testable
// with fixed timestamps.
package recurrence

import (
	"time"

	"puretasks/contracts/events"
)

// Next returns the occurrence following from for the given pattern and
// interval.
//
// Monthly advancement rolls the month index (past December increments
// the year) and clamps the day-of-month to the last day of the target
// month, so Jan 31 + 1 month lands on Feb 28/29, never March. Yearly
// advancement clamps the same way, covering Feb 29 anchors in non-leap
// target years. Unrecognized patterns fall back to a one-day advance;
// the interval is deliberately not applied on that path, matching the
// lenient behavior recurring tasks have always had.
func Next(pattern string, interval int, from time.Time) time.Time {
	switch pattern {
	case events.PatternDaily:
		return from.AddDate(0, 0, interval)
	case events.PatternWeekly:
		return from.AddDate(0, 0, 7*interval)
	case events.PatternMonthly:
		return addMonthsClamped(from, interval)
	case events.PatternYearly:
		return addYearsClamped(from, interval)
	default:
		return from.AddDate(0, 0, 1)
	}
}

func addMonthsClamped(from time.Time, months int) time.Time {
	monthIdx := int(from.Month()) - 1 + months
	year := from.Year() + monthIdx/12
	month := time.Month(monthIdx%12 + 1)

	day := from.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

func addYearsClamped(from time.Time, years int) time.Time {
	year := from.Year() + years

	day := from.Day()
	if last := daysIn(year, from.Month()); day > last {
		day = last
	}

	return time.Date(year, from.Month(), day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

// daysIn returns the number of days in the given month; day 0 of the
// following month normalizes to its last day.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
