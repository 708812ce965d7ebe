package taskqueue

import "time"

// NotificationTask is the push request handed to the notification worker.
type NotificationTask struct {
	InstanceID string    `json:"-"`
	ScheduleAt time.Time `json:"-"`

	UserID       string `json:"user_id"`
	MedicationID string `json:"medication_id"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	ClockTime    string `json:"clock_time"`
	TaskType     string `json:"task_type"`
	Snoozed      bool   `json:"snoozed,omitempty"`
	ResponseID   string `json:"response_id"` // echoed back as instance_id on /responses
}

type TaskResponse struct {
	Name         string    `json:"name"`
	ScheduleTime time.Time `json:"schedule_time"`
	CreateTime   time.Time `json:"create_time"`
}

type PrimindTaskRequest struct {
	Task PrimindTask `json:"task"`
}

type PrimindTask struct {
	Name         string             `json:"name,omitempty"`
	HTTPRequest  PrimindHTTPRequest `json:"httpRequest"`
	ScheduleTime string             `json:"scheduleTime,omitempty"`
}

type PrimindHTTPRequest struct {
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

type PrimindTaskResponse struct {
	Name         string `json:"name"`
	ScheduleTime string `json:"scheduleTime"`
	CreateTime   string `json:"createTime"`
}
