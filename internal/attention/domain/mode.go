package domain

import "time"

// AttentionMode is a member's standing consent for receiving attention requests.
// A member without a stored row is treated as DefaultMode.
type AttentionMode struct {
	FamilyID  string    `json:"family_id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	Enabled   bool      `json:"enabled" gorm:"not null"`
	AllowLoud bool      `json:"allow_loud" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultMode returns the opt-out mode used for members who never set one
func DefaultMode(familyID, userID string) AttentionMode {
	return AttentionMode{FamilyID: familyID, UserID: userID}
}
