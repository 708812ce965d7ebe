package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/adherence"
)

type ReminderService interface {
	ScheduleForMedication(ctx context.Context, med *domain.Medication) ([]*domain.Occurrence, error)
	CancelForMedication(ctx context.Context, medicationID string) (int, error)
	HandleInboundResponse(ctx context.Context, event domain.ResponseEvent) (domain.Outcome, error)
	ListArmed(ctx context.Context, medicationID string) ([]*domain.Occurrence, error)
	PendingAlerts(ctx context.Context, userID string) ([]*domain.DeliveredAlert, error)
	Deliver(ctx context.Context, alert *domain.DeliveredAlert) error
	ForgetPermission(userID string)
}

type IntakeService interface {
	RecordManual(ctx context.Context, medicationID string, quantity int) (*domain.AdherenceRecord, error)
	Recent(ctx context.Context, userID string, limit int) ([]*domain.AdherenceRecord, error)
}

type PermissionStore interface {
	Set(ctx context.Context, userID string, allowed bool) error
}

// AlertFirer is implemented by alert stores that are fired by an external
// scheduler calling back into this service.
type AlertFirer interface {
	Fire(ctx context.Context, occ *domain.Occurrence, now time.Time) (*domain.DeliveredAlert, error)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, errType, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error:   errType,
		Message: message,
	})
}

// respondDomainError maps domain errors onto HTTP statuses.
func respondDomainError(c *gin.Context, err error) {
	status, errType := classify(err)

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
	} else {
		slog.WarnContext(c.Request.Context(), "request rejected",
			slog.String("path", c.FullPath()),
			slog.String("error_type", errType),
			slog.String("error", err.Error()),
		)
	}

	respondError(c, status, errType, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrMedicationNotFound), errors.Is(err, domain.ErrOccurrenceNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidSchedule):
		return http.StatusBadRequest, "invalid_schedule"
	case errors.Is(err, adherence.ErrDuplicateIntake):
		return http.StatusConflict, "duplicate_intake"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrMedicationNotFound)
}
