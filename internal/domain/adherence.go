package domain

import "time"

type AdherenceRecord struct {
	ID           string    `json:"id"`
	MedicationID string    `json:"medication_id"`
	UserID       string    `json:"user_id"`
	TakenAt      time.Time `json:"taken_at"`
	Quantity     *int      `json:"quantity,omitempty"`
	Note         string    `json:"note"`
}
