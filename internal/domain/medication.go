package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Medication struct {
	ID                    string
	UserID                string
	Name                  string
	Dosage                string
	Quantity              int
	Continuous            bool
	TreatmentDurationDays int
	ClockTimes            []string
	CreatedAt             time.Time
}

// HasClockTime reports whether the medication is scheduled at the given HH:MM.
func (m *Medication) HasClockTime(clockTime string) bool {
	return slices.Contains(m.ClockTimes, clockTime)
}

// ActiveAt reports whether the medication still has doses due at t.
// Continuous medications are always active; finite courses end
// TreatmentDurationDays after creation.
func (m *Medication) ActiveAt(t time.Time) bool {
	if m.Continuous {
		return true
	}
	if m.TreatmentDurationDays <= 0 {
		return false
	}
	return !t.After(m.CreatedAt.AddDate(0, 0, m.TreatmentDurationDays))
}

// ClockTime is a wall-clock time of day without a timezone.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses an "HH:MM" string.
func ParseClockTime(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("%w: clock time %q is not HH:MM", ErrInvalidSchedule, s)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("%w: clock time %q has invalid hour", ErrInvalidSchedule, s)
	}

	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: clock time %q has invalid minute", ErrInvalidSchedule, s)
	}

	return ClockTime{Hour: hour, Minute: minute}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant at this clock time on the calendar day of t, in loc.
func (c ClockTime) On(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
}
