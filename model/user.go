package model

import "time"

// Provider names an external identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// User is the canonical user record. Legacy documents carried the avatar under
// two field names (avatar and photoURL); the repository merges them into
// AvatarURL on read and keeps both columns in sync on write, so nothing past
// the store boundary ever sees the split.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"displayName"`
	Bio           string    `json:"bio,omitempty"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	PasswordHash  string    `json:"-"` // set only for local-credential accounts
	GoogleID      string    `json:"-"`
	GitHubID      string    `json:"-"`
	IsNewUser     bool      `json:"isNewUser"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProviderID returns the stored identifier for the given provider,
// or "" when the account is not linked to it.
func (u *User) ProviderID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderGitHub:
		return u.GitHubID
	}
	return ""
}

// SetProviderID records a provider identifier on the in-memory record.
func (u *User) SetProviderID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = id
	case ProviderGitHub:
		u.GitHubID = id
	}
}
