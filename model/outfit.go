package model

import "time"

// VoteKind is one of the two counters on an outfit.
type VoteKind string

const (
	VoteFire VoteKind = "fire"
	VoteNope VoteKind = "nope"
)

// Valid reports whether k is a member of the fixed vote-kind set.
func (k VoteKind) Valid() bool {
	return k == VoteFire || k == VoteNope
}

// Outfit is an uploaded fit photo. Vote counters only ever grow, and only via
// the store's atomic increment; outfits are never deleted.
type Outfit struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"userId" gorm:"index;not null"`
	Username  string    `json:"username" gorm:"size:100"` // denormalized for feed rendering
	ImageURL  string    `json:"imageUrl" gorm:"size:512;not null"`
	FireVotes int64     `json:"fireVotes" gorm:"not null;default:0"`
	NopeVotes int64     `json:"nopeVotes" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName keeps the legacy collection name.
func (Outfit) TableName() string {
	return "outfits"
}
