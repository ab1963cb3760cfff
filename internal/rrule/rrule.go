package rrule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Daily builds a FREQ=DAILY rule firing at hour:minute in loc, anchored on
// the day before anchor so the rule always has occurrences around it.
func Daily(hour, minute int, loc *time.Location, anchor time.Time) (*rrule.RRule, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	if loc == nil {
		loc = time.Local
	}

	local := anchor.In(loc)
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: time.Date(local.Year(), local.Month(), local.Day()-1, hour, minute, 0, 0, loc),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build daily rule: %w", err)
	}
	return rule, nil
}

// NextDaily returns the first hour:minute in loc strictly after `after`.
// An `after` exactly on the time of day rolls over to the next day.
func NextDaily(hour, minute int, loc *time.Location, after time.Time) (time.Time, error) {
	rule, err := Daily(hour, minute, loc, after)
	if err != nil {
		return time.Time{}, err
	}

	next := rule.After(after, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("no occurrence of %02d:%02d after %s", hour, minute, after)
	}
	return next, nil
}

// SnapToClock keeps the calendar day of t in loc and replaces its time of
// day with hour:minute:00.
func SnapToClock(t time.Time, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
}

// HumanReadable renders a daily time of day for status messages.
func HumanReadable(hour, minute int) string {
	return fmt.Sprintf("every day at %02d:%02d", hour, minute)
}
