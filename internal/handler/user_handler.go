package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/presenter"
)

const (
	defaultHistoryLimit = 5
	maxHistoryLimit     = 100
	heartbeatInterval   = 25 * time.Second
)

type UserHandler struct {
	reminders   ReminderService
	intakes     IntakeService
	permissions PermissionStore
	hub         *presenter.Hub
	auth        domain.AuthContext
}

func NewUserHandler(
	reminders ReminderService,
	intakes IntakeService,
	permissions PermissionStore,
	hub *presenter.Hub,
	auth domain.AuthContext,
) *UserHandler {
	return &UserHandler{
		reminders:   reminders,
		intakes:     intakes,
		permissions: permissions,
		hub:         hub,
		auth:        auth,
	}
}

type permissionRequest struct {
	Allowed *bool `json:"allowed" binding:"required"`
}

type pendingResponse struct {
	UserID string                   `json:"user_id"`
	Alerts []*domain.DeliveredAlert `json:"alerts"`
	Count  int                      `json:"count"`
}

type historyResponse struct {
	UserID  string                    `json:"user_id"`
	Records []*domain.AdherenceRecord `json:"records"`
	Count   int                       `json:"count"`
}

// StreamPrompts streams grouped prompts for a user as Server-Sent Events
// until the client disconnects.
func (h *UserHandler) StreamPrompts(c *gin.Context) {
	userID := c.Param("userID")
	if !h.requireUser(c, userID) {
		return
	}

	ctx := c.Request.Context()
	sub := h.hub.Subscribe(userID)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	slog.InfoContext(ctx, "prompt stream opened",
		slog.String("user_id", userID),
		slog.Int("subscribers", h.hub.Subscribers(userID)),
	)

	c.SSEvent("ready", gin.H{"user_id": userID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "prompt stream closed",
				slog.String("user_id", userID),
			)
			return
		case batch, ok := <-sub.Events():
			if !ok {
				return
			}
			c.SSEvent("prompt", batch)
			c.Writer.Flush()
		case t := <-heartbeat.C:
			c.SSEvent("heartbeat", t.Unix())
			c.Writer.Flush()
		}
	}
}

func (h *UserHandler) PendingAlerts(c *gin.Context) {
	userID := c.Param("userID")
	if !h.requireUser(c, userID) {
		return
	}

	alerts, err := h.reminders.PendingAlerts(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, pendingResponse{
		UserID: userID,
		Alerts: alerts,
		Count:  len(alerts),
	})
}

func (h *UserHandler) AdherenceHistory(c *gin.Context) {
	userID := c.Param("userID")
	if !h.requireUser(c, userID) {
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}

	records, err := h.intakes.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, historyResponse{
		UserID:  userID,
		Records: records,
		Count:   len(records),
	})
}

func (h *UserHandler) SetNotificationPermission(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userID")
	if !h.requireUser(c, userID) {
		return
	}

	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.permissions.Set(ctx, userID, *req.Allowed); err != nil {
		respondDomainError(c, err)
		return
	}
	h.reminders.ForgetPermission(userID)

	slog.InfoContext(ctx, "notification permission updated",
		slog.String("user_id", userID),
		slog.Bool("allowed", *req.Allowed),
	)

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "allowed": *req.Allowed})
}

// requireUser allows only the authenticated owner of userID through.
func (h *UserHandler) requireUser(c *gin.Context, userID string) bool {
	current, ok := h.auth.CurrentUser(c.Request.Context())
	if !ok {
		respondDomainError(c, domain.ErrUnauthenticated)
		return false
	}
	if current != userID {
		respondError(c, http.StatusForbidden, "forbidden", "cannot access another user's data")
		return false
	}
	return true
}
