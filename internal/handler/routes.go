package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API. fireAuth guards the fire webhook called by
// the external scheduler and may be nil.
func RegisterRoutes(v1 *gin.RouterGroup, medications *MedicationHandler, responses *ResponseHandler, users *UserHandler, fireAuth gin.HandlerFunc) {
	v1.PUT("/medications/:id/alerts", medications.ScheduleAlerts)
	v1.DELETE("/medications/:id/alerts", medications.CancelAlerts)
	v1.GET("/medications/:id/alerts", medications.ListAlerts)
	v1.DELETE("/medications/:id", medications.DeleteMedication)
	v1.POST("/medications/:id/intakes", medications.RecordIntake)

	v1.POST("/responses", responses.HandleResponse)
	v1.POST("/alarm-actions", responses.HandleAlarmAction)
	if fireAuth != nil {
		v1.POST("/alerts/fire", fireAuth, responses.HandleFire)
	} else {
		v1.POST("/alerts/fire", responses.HandleFire)
	}

	v1.GET("/users/:userID/prompts", users.StreamPrompts)
	v1.GET("/users/:userID/alerts/pending", users.PendingAlerts)
	v1.GET("/users/:userID/adherence", users.AdherenceHistory)
	v1.PUT("/users/:userID/notification-permission", users.SetNotificationPermission)
}
