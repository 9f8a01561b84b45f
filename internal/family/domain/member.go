package domain

import "time"

// Role is a member's role inside a family
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// FamilyMember links a user to a family. Membership itself is managed by the
// family service; this backend only reads it.
type FamilyMember struct {
	FamilyID  string    `json:"family_id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"primaryKey;index"`
	Role      Role      `json:"role" gorm:"not null;default:child"`
	CreatedAt time.Time `json:"created_at"`
}
