package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

type ResponseHandler struct {
	reminders ReminderService
	firer     AlertFirer
	now       func() time.Time
}

// NewResponseHandler builds the inbound response endpoints. firer may be nil
// when alerts are fired in-process, which disables the fire webhook.
func NewResponseHandler(reminders ReminderService, firer AlertFirer, now func() time.Time) *ResponseHandler {
	if now == nil {
		now = time.Now
	}
	return &ResponseHandler{
		reminders: reminders,
		firer:     firer,
		now:       now,
	}
}

type payloadRequest struct {
	MedicationID string `json:"medication_id" binding:"required"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	ClockTime    string `json:"clock_time" binding:"omitempty,clocktime"`
	Snoozed      bool   `json:"snoozed"`
	OneShot      bool   `json:"one_shot"`
}

type responseRequest struct {
	Action     string         `json:"action"`
	InstanceID string         `json:"instance_id"`
	Payload    payloadRequest `json:"payload"`
}

// alarmMedication is the medication map sent by the full-screen alarm screen.
type alarmMedication struct {
	MedicationID string `json:"medicamentoId" binding:"required"`
	Name         string `json:"nome"`
	Dosage       string `json:"dosagem"`
	ClockTime    string `json:"horario" binding:"omitempty,clocktime"`
	UserID       string `json:"userId"`
}

type alarmActionRequest struct {
	Action      string           `json:"action" binding:"required"`
	Medicamento *alarmMedication `json:"medicamento"`
	Medication  *alarmMedication `json:"medication"`
	InstanceID  string           `json:"instance_id"`
}

type outcomeResponse struct {
	Outcome domain.Outcome `json:"outcome"`
}

func (h *ResponseHandler) HandleResponse(c *gin.Context) {
	var req responseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	h.route(c, domain.ResponseEvent{
		Action:     domain.ParseAction(req.Action),
		InstanceID: req.InstanceID,
		Payload:    req.Payload.toDomain(),
	})
}

// HandleAlarmAction accepts the take/snooze buttons of the full-screen alarm.
func (h *ResponseHandler) HandleAlarmAction(c *gin.Context) {
	var req alarmActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	med := req.Medicamento
	if med == nil {
		med = req.Medication
	}
	if med == nil {
		respondError(c, http.StatusBadRequest, "validation_error", "medicamento is required")
		return
	}

	action := domain.ParseAction(req.Action)
	if action == domain.ActionNone {
		respondError(c, http.StatusBadRequest, "validation_error", "unsupported alarm action "+req.Action)
		return
	}

	h.route(c, domain.ResponseEvent{
		Action:     action,
		InstanceID: req.InstanceID,
		Payload: domain.Payload{
			MedicationID: med.MedicationID,
			UserID:       med.UserID,
			Name:         med.Name,
			Dosage:       med.Dosage,
			ClockTime:    normalizeClockTime(med.ClockTime),
		},
	})
}

// HandleFire is called by the external scheduler when an armed occurrence is
// due.
func (h *ResponseHandler) HandleFire(c *gin.Context) {
	ctx := c.Request.Context()

	if h.firer == nil {
		respondError(c, http.StatusNotFound, "not_found", "alerts are fired in-process")
		return
	}

	// The task body is the armed occurrence record.
	var occ domain.Occurrence
	if err := c.ShouldBindJSON(&occ); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if occ.ID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "occurrence id is required")
		return
	}

	alert, err := h.firer.Fire(ctx, &occ, h.now())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if err := h.reminders.Deliver(ctx, alert); err != nil {
		// The alert stays pending; the scheduler must not retry the fire.
		slog.WarnContext(ctx, "fired alert was not routed",
			slog.String("instance_id", alert.InstanceID),
			slog.String("error", err.Error()),
		)
	}

	c.JSON(http.StatusOK, alert)
}

func (h *ResponseHandler) route(c *gin.Context, event domain.ResponseEvent) {
	outcome, err := h.reminders.HandleInboundResponse(c.Request.Context(), event)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcomeResponse{Outcome: outcome})
}

func (p payloadRequest) toDomain() domain.Payload {
	return domain.Payload{
		MedicationID: p.MedicationID,
		UserID:       p.UserID,
		Name:         p.Name,
		Dosage:       p.Dosage,
		ClockTime:    normalizeClockTime(p.ClockTime),
		Snoozed:      p.Snoozed,
		OneShot:      p.OneShot,
	}
}

func normalizeClockTime(raw string) string {
	ct, err := domain.ParseClockTime(raw)
	if err != nil {
		return raw
	}
	return ct.String()
}
