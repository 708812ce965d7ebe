package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

const medicationColumns = `id, user_id, name, dosage, quantity, continuous, treatment_duration_days, clock_times, created_at`

type MedicationRepository struct {
	db  DBTX
	now func() time.Time
}

func NewMedicationRepository(db DBTX, now func() time.Time) *MedicationRepository {
	if now == nil {
		now = time.Now
	}
	return &MedicationRepository{
		db:  db,
		now: now,
	}
}

// FindActiveByUserAndClockTime returns the user's medications scheduled at
// clockTime whose course has not ended, oldest first.
func (r *MedicationRepository) FindActiveByUserAndClockTime(ctx context.Context, userID, clockTime string) ([]*domain.Medication, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	query := `
		SELECT ` + medicationColumns + `
		FROM medications
		WHERE user_id = $1
		  AND clock_times @> ARRAY[$2]::text[]
		  AND (
			continuous
			OR (treatment_duration_days > 0
				AND created_at + make_interval(days => treatment_duration_days) >= $3)
		  )
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, userID, clockTime, r.now())
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var meds []*domain.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, med)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medications: %w", err)
	}

	return meds, nil
}

func (r *MedicationRepository) Get(ctx context.Context, medicationID string) (*domain.Medication, error) {
	if medicationID == "" {
		return nil, ErrMissingMedicationID
	}

	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1`

	med, err := scanMedication(r.db.QueryRow(ctx, query, medicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMedicationNotFound, medicationID)
		}
		return nil, err
	}

	return med, nil
}

// Update upserts the medication. CreatedAt is kept from the first write.
func (r *MedicationRepository) Update(ctx context.Context, med *domain.Medication) error {
	if med == nil || med.ID == "" {
		return ErrMissingMedicationID
	}
	if med.UserID == "" {
		return ErrMissingUserID
	}

	createdAt := med.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	clockTimes := med.ClockTimes
	if clockTimes == nil {
		clockTimes = []string{}
	}

	query := `
		INSERT INTO medications (` + medicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			name = EXCLUDED.name,
			dosage = EXCLUDED.dosage,
			quantity = EXCLUDED.quantity,
			continuous = EXCLUDED.continuous,
			treatment_duration_days = EXCLUDED.treatment_duration_days,
			clock_times = EXCLUDED.clock_times`

	_, err := r.db.Exec(ctx, query,
		med.ID,
		med.UserID,
		med.Name,
		med.Dosage,
		med.Quantity,
		med.Continuous,
		med.TreatmentDurationDays,
		clockTimes,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save medication %s: %w", med.ID, err)
	}

	return nil
}

func (r *MedicationRepository) Delete(ctx context.Context, medicationID string) error {
	if medicationID == "" {
		return ErrMissingMedicationID
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM medications WHERE id = $1`, medicationID)
	if err != nil {
		return fmt.Errorf("failed to delete medication %s: %w", medicationID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrMedicationNotFound, medicationID)
	}

	return nil
}

func scanMedication(row pgx.Row) (*domain.Medication, error) {
	var med domain.Medication
	err := row.Scan(
		&med.ID,
		&med.UserID,
		&med.Name,
		&med.Dosage,
		&med.Quantity,
		&med.Continuous,
		&med.TreatmentDurationDays,
		&med.ClockTimes,
		&med.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan medication: %w", err)
	}
	return &med, nil
}
