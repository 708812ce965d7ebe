package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

type MedicationHandler struct {
	reminders   ReminderService
	intakes     IntakeService
	medications domain.MedicationRepository
}

func NewMedicationHandler(reminders ReminderService, intakes IntakeService, medications domain.MedicationRepository) *MedicationHandler {
	return &MedicationHandler{
		reminders:   reminders,
		intakes:     intakes,
		medications: medications,
	}
}

type medicationRequest struct {
	UserID                string   `json:"user_id" binding:"required"`
	Name                  string   `json:"name" binding:"required"`
	Dosage                string   `json:"dosage"`
	Quantity              int      `json:"quantity" binding:"gte=0"`
	Continuous            bool     `json:"continuous"`
	TreatmentDurationDays int      `json:"treatment_duration_days" binding:"gte=0"`
	ClockTimes            []string `json:"clock_times" binding:"dive,clocktime"`
}

type intakeRequest struct {
	Quantity int `json:"quantity" binding:"gte=0"`
}

type occurrencesResponse struct {
	MedicationID string               `json:"medication_id"`
	Occurrences  []*domain.Occurrence `json:"occurrences"`
	Count        int                  `json:"count"`
}

type cancelResponse struct {
	MedicationID  string `json:"medication_id"`
	CanceledCount int    `json:"canceled_count"`
}

// ScheduleAlerts rearms the alerts of a medication. A request body, when
// present, is saved as the medication's new definition first; if the new
// definition cannot be armed for lack of permission, the alerts of the old
// one are canceled so they do not outlive it.
func (h *MedicationHandler) ScheduleAlerts(c *gin.Context) {
	ctx := c.Request.Context()
	medicationID := c.Param("id")

	var med *domain.Medication
	edited := c.Request.ContentLength > 0
	if edited {
		var req medicationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		existing, err := h.medications.Get(ctx, medicationID)
		if err != nil && !isNotFound(err) {
			respondDomainError(c, err)
			return
		}

		med = req.toDomain(medicationID)
		if existing != nil {
			med.CreatedAt = existing.CreatedAt
		}
		if err := h.medications.Update(ctx, med); err != nil {
			respondDomainError(c, err)
			return
		}
	} else {
		var err error
		med, err = h.medications.Get(ctx, medicationID)
		if err != nil {
			respondDomainError(c, err)
			return
		}
	}

	armed, err := h.reminders.ScheduleForMedication(ctx, med)
	if err != nil {
		if edited && errors.Is(err, domain.ErrPermissionDenied) {
			h.cancelStale(ctx, medicationID)
		}
		respondDomainError(c, err)
		return
	}

	slog.InfoContext(ctx, "medication alerts scheduled",
		slog.String("medication_id", medicationID),
		slog.Int("armed_count", len(armed)),
	)

	c.JSON(http.StatusOK, occurrencesResponse{
		MedicationID: medicationID,
		Occurrences:  armed,
		Count:        len(armed),
	})
}

func (h *MedicationHandler) CancelAlerts(c *gin.Context) {
	medicationID := c.Param("id")

	canceled, err := h.reminders.CancelForMedication(c.Request.Context(), medicationID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelResponse{
		MedicationID:  medicationID,
		CanceledCount: canceled,
	})
}

// DeleteMedication cancels the medication's alerts before removing it so no
// orphaned alert keeps firing.
func (h *MedicationHandler) DeleteMedication(c *gin.Context) {
	ctx := c.Request.Context()
	medicationID := c.Param("id")

	if _, err := h.reminders.CancelForMedication(ctx, medicationID); err != nil {
		respondDomainError(c, err)
		return
	}

	if err := h.medications.Delete(ctx, medicationID); err != nil {
		respondDomainError(c, err)
		return
	}

	slog.InfoContext(ctx, "medication deleted",
		slog.String("medication_id", medicationID),
	)

	c.Status(http.StatusNoContent)
}

func (h *MedicationHandler) ListAlerts(c *gin.Context) {
	medicationID := c.Param("id")

	armed, err := h.reminders.ListArmed(c.Request.Context(), medicationID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, occurrencesResponse{
		MedicationID: medicationID,
		Occurrences:  armed,
		Count:        len(armed),
	})
}

func (h *MedicationHandler) RecordIntake(c *gin.Context) {
	var req intakeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}

	record, err := h.intakes.RecordManual(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (r medicationRequest) toDomain(medicationID string) *domain.Medication {
	clockTimes := make([]string, 0, len(r.ClockTimes))
	for _, raw := range r.ClockTimes {
		ct, err := domain.ParseClockTime(raw)
		if err != nil {
			continue
		}
		clockTimes = append(clockTimes, ct.String())
	}

	return &domain.Medication{
		ID:                    medicationID,
		UserID:                r.UserID,
		Name:                  r.Name,
		Dosage:                r.Dosage,
		Quantity:              r.Quantity,
		Continuous:            r.Continuous,
		TreatmentDurationDays: r.TreatmentDurationDays,
		ClockTimes:            clockTimes,
	}
}

func (h *MedicationHandler) cancelStale(ctx context.Context, medicationID string) {
	canceled, err := h.reminders.CancelForMedication(ctx, medicationID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to cancel alerts of replaced schedule",
			slog.String("medication_id", medicationID),
			slog.String("error", err.Error()),
		)
		return
	}
	slog.InfoContext(ctx, "canceled alerts of replaced schedule",
		slog.String("medication_id", medicationID),
		slog.Int("canceled_count", canceled),
	)
}
