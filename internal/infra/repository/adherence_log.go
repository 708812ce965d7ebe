package repository

import (
	"context"
	"fmt"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

const defaultRecentLimit = 5

// AdherenceLog is the append-only medication_intakes table.
type AdherenceLog struct {
	db DBTX
}

func NewAdherenceLog(db DBTX) *AdherenceLog {
	return &AdherenceLog{db: db}
}

func (l *AdherenceLog) Append(ctx context.Context, record *domain.AdherenceRecord) error {
	if record == nil || record.MedicationID == "" {
		return ErrMissingMedicationID
	}
	if record.UserID == "" {
		return ErrMissingUserID
	}

	query := `
		INSERT INTO medication_intakes (id, medication_id, user_id, taken_at, quantity, note)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := l.db.Exec(ctx, query,
		record.ID,
		record.MedicationID,
		record.UserID,
		record.TakenAt,
		record.Quantity,
		record.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to append intake for medication %s: %w", record.MedicationID, err)
	}

	return nil
}

// Recent returns the user's latest intakes, newest first.
func (l *AdherenceLog) Recent(ctx context.Context, userID string, limit int) ([]*domain.AdherenceRecord, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	query := `
		SELECT id, medication_id, user_id, taken_at, quantity, note
		FROM medication_intakes
		WHERE user_id = $1
		ORDER BY taken_at DESC, id
		LIMIT $2`

	rows, err := l.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query intakes: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.AdherenceRecord, 0, limit)
	for rows.Next() {
		var rec domain.AdherenceRecord
		if err := rows.Scan(&rec.ID, &rec.MedicationID, &rec.UserID, &rec.TakenAt, &rec.Quantity, &rec.Note); err != nil {
			return nil, fmt.Errorf("failed to scan intake: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate intakes: %w", err)
	}

	return records, nil
}
