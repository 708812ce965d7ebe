package snooze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/schedule"
)

const (
	Delay       = 5 * time.Minute
	titleSuffix = " (Reminder)"
)

// Rescheduler arms a single follow-up alert after a snooze. The medication's
// regular schedule is left alone.
type Rescheduler struct {
	store domain.AlertStore
	now   func() time.Time
}

func NewRescheduler(store domain.AlertStore, now func() time.Time) *Rescheduler {
	if now == nil {
		now = time.Now
	}
	return &Rescheduler{
		store: store,
		now:   now,
	}
}

func (r *Rescheduler) Snooze(ctx context.Context, payload domain.Payload) (*domain.Occurrence, error) {
	fireAt := r.now().Add(Delay)

	snoozed := payload
	snoozed.Snoozed = true
	snoozed.OneShot = true

	occ := &domain.Occurrence{
		ID:      snoozeOccurrenceID(payload),
		Payload: snoozed,
		Title:   schedule.Title(payload.Name) + titleSuffix,
		Body:    schedule.Body(payload.Dosage),
		FireAt:  fireAt,
	}

	if _, err := r.store.Schedule(ctx, occ); err != nil {
		return nil, fmt.Errorf("failed to schedule snooze: %w", err)
	}

	slog.InfoContext(ctx, "medication snoozed",
		slog.String("occurrence_id", occ.ID),
		slog.String("medication_id", payload.MedicationID),
		slog.String("user_id", payload.UserID),
		slog.Time("fire_at", fireAt),
	)

	return occ, nil
}

func snoozeOccurrenceID(payload domain.Payload) string {
	return fmt.Sprintf("%s-%s-snooze-%s",
		payload.MedicationID,
		strings.ReplaceAll(payload.ClockTime, ":", ""),
		uuid.NewString(),
	)
}
