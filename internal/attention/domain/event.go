package domain

import "time"

// EventType names a lifecycle transition published for other services
type EventType string

const (
	EventSent         EventType = "attention.sent"
	EventAcknowledged EventType = "attention.acknowledged"
	EventCancelled    EventType = "attention.cancelled"
	EventExpired      EventType = "attention.expired"
)

// EventTypeFor maps a request status to the event announcing it
func EventTypeFor(status RequestStatus) EventType {
	switch status {
	case StatusAcknowledged:
		return EventAcknowledged
	case StatusCancelled:
		return EventCancelled
	case StatusExpired:
		return EventExpired
	default:
		return EventSent
	}
}

// LifecycleEvent is the record published after each state change
type LifecycleEvent struct {
	Type       EventType     `json:"type"`
	RequestID  string        `json:"request_id"`
	FamilyID   string        `json:"family_id"`
	SenderUID  string        `json:"sender_uid"`
	TargetUID  string        `json:"target_uid"`
	Intensity  Intensity     `json:"intensity"`
	Status     RequestStatus `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewLifecycleEvent builds the event for the request's current status
func NewLifecycleEvent(r *AttentionRequest, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		Type:       EventTypeFor(r.Status),
		RequestID:  r.ID,
		FamilyID:   r.FamilyID,
		SenderUID:  r.SenderUID,
		TargetUID:  r.TargetUID,
		Intensity:  r.Intensity,
		Status:     r.Status,
		OccurredAt: at,
	}
}
