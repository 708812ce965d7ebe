package domain

import "context"

//go:generate mockgen -source=medication_repository.go -destination=medication_repository_mock.go -package=domain

type MedicationRepository interface {
	FindActiveByUserAndClockTime(ctx context.Context, userID, clockTime string) ([]*Medication, error)
	Get(ctx context.Context, medicationID string) (*Medication, error)
	Update(ctx context.Context, med *Medication) error
	Delete(ctx context.Context, medicationID string) error
}
