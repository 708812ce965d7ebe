package adherence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

const (
	notificationNoteFormat = "Taken via notification at %s"
	manualNote             = "Taken manually"
	clockLayout            = "15:04"
)

var ErrDuplicateIntake = errors.New("intake already recorded for this dose")

// DedupeGuard claims a (medication, time) bucket. Claim reports false when the
// bucket was already claimed.
type DedupeGuard interface {
	Claim(ctx context.Context, medicationID string, at time.Time) (bool, error)
	Release(ctx context.Context, medicationID string, at time.Time) error
}

// Recorder appends taken doses to the adherence log on behalf of the
// authenticated user.
type Recorder struct {
	log   domain.AdherenceLog
	auth  domain.AuthContext
	guard DedupeGuard
	now   func() time.Time
	loc   *time.Location
}

// NewRecorder builds a Recorder. guard may be nil, in which case duplicate
// acknowledgements are recorded twice.
func NewRecorder(log domain.AdherenceLog, auth domain.AuthContext, guard DedupeGuard, now func() time.Time, loc *time.Location) *Recorder {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Recorder{
		log:   log,
		auth:  auth,
		guard: guard,
		now:   now,
		loc:   loc,
	}
}

// Record logs the dose described by a notification payload as taken now.
func (r *Recorder) Record(ctx context.Context, payload domain.Payload) (*domain.AdherenceRecord, error) {
	userID, err := r.currentUser(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}

	takenAt := r.now()
	return r.append(ctx, &domain.AdherenceRecord{
		ID:           uuid.NewString(),
		MedicationID: payload.MedicationID,
		UserID:       userID,
		TakenAt:      takenAt,
		Note:         fmt.Sprintf(notificationNoteFormat, takenAt.In(r.loc).Format(clockLayout)),
	})
}

// RecordManual logs a dose the user marked as taken from the app.
func (r *Recorder) RecordManual(ctx context.Context, medicationID string, quantity int) (*domain.AdherenceRecord, error) {
	userID, err := r.currentUser(ctx, "")
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		quantity = 1
	}

	return r.append(ctx, &domain.AdherenceRecord{
		ID:           uuid.NewString(),
		MedicationID: medicationID,
		UserID:       userID,
		TakenAt:      r.now(),
		Quantity:     &quantity,
		Note:         manualNote,
	})
}

// Recent returns the user's latest records, newest first.
func (r *Recorder) Recent(ctx context.Context, userID string, limit int) ([]*domain.AdherenceRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	records, err := r.log.Recent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load adherence history: %w", err)
	}
	return records, nil
}

func (r *Recorder) currentUser(ctx context.Context, owner string) (string, error) {
	userID, ok := r.auth.CurrentUser(ctx)
	if !ok || userID == "" {
		return "", domain.ErrUnauthenticated
	}
	if owner != "" && owner != userID {
		slog.WarnContext(ctx, "user attempted to acknowledge another user's alert",
			slog.String("user_id", userID),
			slog.String("owner_id", owner),
		)
		return "", fmt.Errorf("%w: alert belongs to another user", domain.ErrUnauthenticated)
	}
	return userID, nil
}

func (r *Recorder) append(ctx context.Context, record *domain.AdherenceRecord) (*domain.AdherenceRecord, error) {
	if r.guard != nil {
		first, err := r.guard.Claim(ctx, record.MedicationID, record.TakenAt)
		if err != nil {
			// The log stays authoritative; a guard outage only re-enables duplicates.
			slog.WarnContext(ctx, "adherence dedupe guard unavailable",
				slog.String("medication_id", record.MedicationID),
				slog.String("error", err.Error()),
			)
		} else if !first {
			slog.InfoContext(ctx, "duplicate intake suppressed",
				slog.String("medication_id", record.MedicationID),
				slog.String("user_id", record.UserID),
			)
			return nil, ErrDuplicateIntake
		}
	}

	if err := r.log.Append(ctx, record); err != nil {
		if r.guard != nil {
			if releaseErr := r.guard.Release(ctx, record.MedicationID, record.TakenAt); releaseErr != nil {
				slog.WarnContext(ctx, "failed to release dedupe claim",
					slog.String("medication_id", record.MedicationID),
					slog.String("error", releaseErr.Error()),
				)
			}
		}
		return nil, fmt.Errorf("failed to append adherence record: %w", err)
	}

	slog.InfoContext(ctx, "medication intake recorded",
		slog.String("record_id", record.ID),
		slog.String("medication_id", record.MedicationID),
		slog.String("user_id", record.UserID),
		slog.Time("taken_at", record.TakenAt),
	)

	return record, nil
}
