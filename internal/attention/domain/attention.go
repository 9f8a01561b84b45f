package domain

import "time"

// Intensity is the severity tier of an attention request
type Intensity string

const (
	IntensityNormal Intensity = "normal"
	IntensityLoud   Intensity = "loud"
)

// Valid reports whether the intensity is one of the known tiers
func (i Intensity) Valid() bool {
	return i == IntensityNormal || i == IntensityLoud
}

// RequestStatus represents the lifecycle state of a request
type RequestStatus string

const (
	StatusSent         RequestStatus = "SENT"
	StatusAcknowledged RequestStatus = "ACKNOWLEDGED"
	StatusCancelled    RequestStatus = "CANCELLED"
	StatusExpired      RequestStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed
func (s RequestStatus) Terminal() bool {
	return s != StatusSent
}

// AllowedDurations lists the only lifetimes a request may have, in seconds
var AllowedDurations = []int{15, 30, 60}

// ValidDuration reports whether sec is one of AllowedDurations
func ValidDuration(sec int) bool {
	for _, d := range AllowedDurations {
		if d == sec {
			return true
		}
	}
	return false
}

// MaxMessageLength bounds the optional free-text message
const MaxMessageLength = 200

// AttentionRequest is a single "come here now" alert from one member to another.
// At most one SENT request exists per (FamilyID, TargetUID).
type AttentionRequest struct {
	ID          string        `json:"id" gorm:"primaryKey"`
	FamilyID    string        `json:"family_id" gorm:"not null;index;uniqueIndex:idx_attention_open_target,where:status = 'SENT'"`
	SenderUID   string        `json:"sender_uid" gorm:"not null;index"`
	TargetUID   string        `json:"target_uid" gorm:"not null;uniqueIndex:idx_attention_open_target,where:status = 'SENT'"`
	Intensity   Intensity     `json:"intensity" gorm:"not null"`
	DurationSec int           `json:"duration_sec" gorm:"not null"`
	Message     *string       `json:"message,omitempty"`
	Status      RequestStatus `json:"status" gorm:"not null;index"`
	CreatedAt   time.Time     `json:"created_at"`
	AckAt       *time.Time    `json:"ack_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	ExpiredAt   *time.Time    `json:"expired_at,omitempty"`
	ExpiresAt   time.Time     `json:"expires_at" gorm:"not null;index"`
}

// Duration returns the request lifetime
func (r *AttentionRequest) Duration() time.Duration {
	return time.Duration(r.DurationSec) * time.Second
}
