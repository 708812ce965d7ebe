package grouping

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

// Grouper collects the medications a user takes at the same clock time so they
// can be answered in one prompt.
type Grouper struct {
	repo domain.MedicationRepository
}

func NewGrouper(repo domain.MedicationRepository) *Grouper {
	return &Grouper{repo: repo}
}

// Group never fails: if the lookup fails or finds nothing, the batch holds
// only the fired medication.
func (g *Grouper) Group(ctx context.Context, fired domain.Payload) *domain.ModalBatch {
	batch := &domain.ModalBatch{
		UserID:    fired.UserID,
		ClockTime: fired.ClockTime,
		Items:     []domain.BatchItem{itemFromPayload(fired)},
	}

	meds, err := g.repo.FindActiveByUserAndClockTime(ctx, fired.UserID, fired.ClockTime)
	if err != nil {
		slog.WarnContext(ctx, "grouping query failed, presenting fired medication alone",
			slog.String("user_id", fired.UserID),
			slog.String("clock_time", fired.ClockTime),
			slog.String("error", fmt.Errorf("%w: %w", domain.ErrGroupingQueryFailed, err).Error()),
		)
		return batch
	}
	if len(meds) == 0 {
		slog.InfoContext(ctx, "no active medications found for clock time, presenting fired medication alone",
			slog.String("user_id", fired.UserID),
			slog.String("clock_time", fired.ClockTime),
			slog.String("medication_id", fired.MedicationID),
		)
		return batch
	}

	for _, med := range meds {
		if med.ID == fired.MedicationID {
			continue
		}
		batch.Items = append(batch.Items, domain.BatchItem{
			MedicationID: med.ID,
			UserID:       med.UserID,
			Name:         med.Name,
			Dosage:       med.Dosage,
			ClockTime:    fired.ClockTime,
		})
	}

	slog.DebugContext(ctx, "grouped co-occurring medications",
		slog.String("user_id", fired.UserID),
		slog.String("clock_time", fired.ClockTime),
		slog.Int("batch_size", batch.Size()),
	)

	return batch
}

func itemFromPayload(p domain.Payload) domain.BatchItem {
	return domain.BatchItem{
		MedicationID: p.MedicationID,
		UserID:       p.UserID,
		Name:         p.Name,
		Dosage:       p.Dosage,
		ClockTime:    p.ClockTime,
	}
}
