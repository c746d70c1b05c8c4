// Package provider wraps the OAuth2 identity providers behind a small
// request/response abstraction: a login attempt either yields a Profile or an
// error carrying the reason, decoupled from any provider library's calling
// convention.
package provider

import (
	"context"
	"net/url"

	"ratemyfit/model"
)

// Profile is what a provider shares about an authenticated user: the stable
// provider-assigned identifier plus denormalized profile fields.
type Profile struct {
	Provider    model.Provider
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Client is one configured identity provider.
type Client interface {
	// Name returns the provider this client talks to.
	Name() model.Provider
	// AuthURL builds the provider's consent-screen URL for the given
	// anti-CSRF state value.
	AuthURL(state string) string
	// Exchange trades the callback code for the user's Profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// FallbackAvatarURL builds a generated-initials avatar for profiles without
// a photo, so every account renders with something.
func FallbackAvatarURL(name string) string {
	if name == "" {
		name = "U"
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=FF4D4D&color=fff&size=200"
}
