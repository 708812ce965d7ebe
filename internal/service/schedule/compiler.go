package schedule

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

const (
	defaultDosageLabel = "not specified"
	defaultBodyDosage  = "your medication"
)

// Compiler turns a medication's dosing schedule into concrete occurrences.
type Compiler struct {
	now func() time.Time
	loc *time.Location
}

func NewCompiler(now func() time.Time, loc *time.Location) *Compiler {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Compiler{
		now: now,
		loc: loc,
	}
}

func (c *Compiler) Location() *time.Location {
	return c.loc
}

// Compile returns the occurrences to arm for med, ordered by clock time as
// given and then by day. Unparsable clock times are skipped.
func (c *Compiler) Compile(med *domain.Medication) []*domain.Occurrence {
	if len(med.ClockTimes) == 0 {
		slog.Warn("medication has no clock times, nothing to schedule",
			slog.String("medication_id", med.ID),
			slog.String("name", med.Name),
		)
		return []*domain.Occurrence{}
	}

	now := c.now().In(c.loc)

	var end time.Time
	if !med.Continuous {
		if med.TreatmentDurationDays <= 0 {
			slog.Info("finite course without duration has no future doses",
				slog.String("medication_id", med.ID),
				slog.Int("treatment_duration_days", med.TreatmentDurationDays),
			)
			return []*domain.Occurrence{}
		}
		end = now.AddDate(0, 0, med.TreatmentDurationDays)
	}

	occurrences := make([]*domain.Occurrence, 0, len(med.ClockTimes))
	for _, raw := range med.ClockTimes {
		ct, err := domain.ParseClockTime(raw)
		if err != nil {
			slog.Warn("skipping unparsable clock time",
				slog.String("medication_id", med.ID),
				slog.String("clock_time", raw),
				slog.String("error", err.Error()),
			)
			continue
		}

		first := c.firstInstant(ct, now)
		clockTime := ct.String()

		if med.Continuous {
			occurrences = append(occurrences, c.newOccurrence(
				domain.RecurringOccurrenceID(med.ID, clockTime), med, clockTime, first, true,
			))
			continue
		}

		for day := 0; ; day++ {
			at := time.Date(first.Year(), first.Month(), first.Day()+day, ct.Hour, ct.Minute, 0, 0, c.loc)
			if at.After(end) {
				break
			}
			occurrences = append(occurrences, c.newOccurrence(
				domain.DatedOccurrenceID(med.ID, clockTime, at), med, clockTime, at, false,
			))
		}
	}

	slog.Debug("compiled medication schedule",
		slog.String("medication_id", med.ID),
		slog.Bool("continuous", med.Continuous),
		slog.Int("clock_time_count", len(med.ClockTimes)),
		slog.Int("occurrence_count", len(occurrences)),
	)

	return occurrences
}

// firstInstant is the first instant at ct that is not before now.
func (c *Compiler) firstInstant(ct domain.ClockTime, now time.Time) time.Time {
	at := ct.On(now, c.loc)
	if at.Before(now) {
		at = time.Date(at.Year(), at.Month(), at.Day()+1, ct.Hour, ct.Minute, 0, 0, c.loc)
	}
	return at
}

func (c *Compiler) newOccurrence(id string, med *domain.Medication, clockTime string, at time.Time, recurring bool) *domain.Occurrence {
	dosage := med.Dosage
	if dosage == "" {
		dosage = defaultDosageLabel
	}

	return &domain.Occurrence{
		ID: id,
		Payload: domain.Payload{
			MedicationID: med.ID,
			UserID:       med.UserID,
			Name:         med.Name,
			Dosage:       dosage,
			ClockTime:    clockTime,
			OneShot:      !recurring,
		},
		Title:     Title(med.Name),
		Body:      Body(med.Dosage),
		FireAt:    at,
		Recurring: recurring,
	}
}

func Title(name string) string {
	return fmt.Sprintf("💊 %s", name)
}

func Body(dosage string) string {
	if dosage == "" || dosage == defaultDosageLabel {
		dosage = defaultBodyDosage
	}
	return fmt.Sprintf("Time to take %s", dosage)
}
