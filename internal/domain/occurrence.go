package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	dailyOccurrenceSuffix = "daily"
	occurrenceDateLayout  = "20060102"
)

// Payload is the data carried by an armed alert and echoed back in responses.
type Payload struct {
	MedicationID string `json:"medication_id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	ClockTime    string `json:"clock_time"`
	Snoozed      bool   `json:"snoozed,omitempty"`
	OneShot      bool   `json:"one_shot,omitempty"`
}

type Occurrence struct {
	ID        string    `json:"id"`
	Payload   Payload   `json:"payload"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	FireAt    time.Time `json:"fire_at"`
	Recurring bool      `json:"recurring"`
}

// RecurringOccurrenceID identifies the daily occurrence of a medication at a clock time.
func RecurringOccurrenceID(medicationID, clockTime string) string {
	return fmt.Sprintf("%s-%s-%s", medicationID, compactClockTime(clockTime), dailyOccurrenceSuffix)
}

// DatedOccurrenceID identifies a single-shot occurrence of a medication on one day.
func DatedOccurrenceID(medicationID, clockTime string, day time.Time) string {
	return fmt.Sprintf("%s-%s-%s", medicationID, compactClockTime(clockTime), day.Format(occurrenceDateLayout))
}

func compactClockTime(clockTime string) string {
	return strings.ReplaceAll(clockTime, ":", "")
}

// NextFireAt returns the next firing instant of a recurring occurrence after
// after, keeping the same wall-clock time in loc.
func (o *Occurrence) NextFireAt(after time.Time, loc *time.Location) (time.Time, error) {
	ct, err := ParseClockTime(o.Payload.ClockTime)
	if err != nil {
		return time.Time{}, err
	}

	next := ct.On(o.FireAt, loc)
	for !next.After(after) {
		local := next.In(loc)
		next = time.Date(local.Year(), local.Month(), local.Day()+1, ct.Hour, ct.Minute, 0, 0, loc)
	}
	return next, nil
}

// DeliveredAlert is one fired instance of an occurrence awaiting a response.
type DeliveredAlert struct {
	InstanceID string     `json:"instance_id"`
	Occurrence Occurrence `json:"occurrence"`
	FiredAt    time.Time  `json:"fired_at"`
}

// InstanceID identifies a fired instance of an occurrence.
func InstanceID(occurrenceID string, firedAt time.Time) string {
	return fmt.Sprintf("%s@%d", occurrenceID, firedAt.Unix())
}

func NewDeliveredAlert(occ Occurrence, firedAt time.Time) *DeliveredAlert {
	return &DeliveredAlert{
		InstanceID: InstanceID(occ.ID, occ.FireAt),
		Occurrence: occ,
		FiredAt:    firedAt,
	}
}
