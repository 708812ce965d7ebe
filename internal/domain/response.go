package domain

import "strings"

// Action is the action identifier carried by an inbound response.
type Action string

const (
	ActionNone        Action = "none"
	ActionAcknowledge Action = "acknowledge"
	ActionSnooze      Action = "snooze"
)

// ParseAction normalizes an action identifier sent by a client. The
// full-screen alarm screen sends "tomar"/"adiar"; anything unrecognized is
// treated as the alert itself having been opened.
func ParseAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "acknowledge", "take", "taken", "tomar":
		return ActionAcknowledge
	case "snooze", "later", "adiar":
		return ActionSnooze
	default:
		return ActionNone
	}
}

func (a Action) String() string {
	return string(a)
}

// ResponseEvent is an inbound alert delivery or user response. It is consumed
// immediately and never persisted.
type ResponseEvent struct {
	Action     Action
	InstanceID string
	Payload    Payload
}

// Outcome is the terminal state reached by routing one ResponseEvent.
type Outcome string

const (
	OutcomeDelivered    Outcome = "delivered"
	OutcomeAcknowledged Outcome = "acknowledged"
	OutcomeSnoozed      Outcome = "snoozed"
	OutcomePresented    Outcome = "presented"
	OutcomeDismissed    Outcome = "dismissed"
)

func (o Outcome) String() string {
	return string(o)
}

type BatchItem struct {
	MedicationID string `json:"medication_id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	ClockTime    string `json:"clock_time"`
}

// ModalBatch groups the medications due at one clock time into a single prompt.
type ModalBatch struct {
	UserID    string      `json:"user_id"`
	ClockTime string      `json:"clock_time"`
	Items     []BatchItem `json:"items"`
}

func (b *ModalBatch) Size() int {
	return len(b.Items)
}
