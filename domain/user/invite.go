package user

import "time"

// InviteCode is a single-use, role-scoped registration gate.
type InviteCode struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Code      string    `gorm:"uniqueIndex;not null;type:text"`
	Role      Role      `gorm:"not null;type:text"`
	Email     string    `gorm:"index;not null;type:text"`
	IsUsed    bool      `gorm:"not null;default:false"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for the InviteCode entity.
func (InviteCode) TableName() string {
	return "invite_codes"
}

// Expired reports whether the invite has passed its expiry at now.
func (i *InviteCode) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
