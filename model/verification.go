package model

import "time"

// VerificationCode is a short-lived numeric code mailed to a registering user.
// A code is consumed (deleted) on successful verification and never reused.
type VerificationCode struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"size:255;index;not null"`
	Code      string    `json:"-" gorm:"size:6;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName keeps the legacy collection name.
func (VerificationCode) TableName() string {
	return "verification_codes"
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *VerificationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
