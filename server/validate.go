package server

import (
	"regexp"
	"strings"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// validateUsername applies the profile rules: 3-20 characters, letters,
// numbers and underscores only. Returns a user-facing message or "".
func validateUsername(username string) string {
	if !usernameRe.MatchString(username) {
		if len(username) < 3 || len(username) > 20 {
			return "Username must be between 3 and 20 characters"
		}
		return "Username can only contain letters, numbers, and underscores"
	}
	return ""
}

// validateDisplayName requires a 1-30 character display name.
func validateDisplayName(name string) string {
	if name == "" || len(name) > 30 {
		return "Display name is required"
	}
	return ""
}

// validateBio caps the optional bio at 500 characters.
func validateBio(bio string) string {
	if len(bio) > 500 {
		return "Bio must be less than 500 characters"
	}
	return ""
}

// validateEmail is a sanity check, not full address validation; the
// verification code proves deliverability.
func validateEmail(email string) string {
	if len(email) < 3 || len(email) > 255 || !strings.Contains(email, "@") {
		return "A valid email address is required"
	}
	return ""
}

// validatePassword enforces the minimum password length.
func validatePassword(password string) string {
	if len(password) < 8 {
		return "Password must be at least 8 characters"
	}
	return ""
}
