package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantOK   bool
	}{
		{"simple", "alice", true},
		{"with digits and underscore", "alice_99", true},
		{"minimum length", "abc", true},
		{"maximum length", "a2345678901234567890", true},
		{"too short", "ab", false},
		{"too long", "a23456789012345678901", false},
		{"spaces", "alice smith", false},
		{"punctuation", "alice!", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateUsername(tt.username)
			if tt.wantOK {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.Empty(t, validateEmail("alice@example.com"))
	assert.NotEmpty(t, validateEmail("not-an-email"))
	assert.NotEmpty(t, validateEmail(""))
}

func TestValidatePassword(t *testing.T) {
	assert.Empty(t, validatePassword("longenough"))
	assert.NotEmpty(t, validatePassword("short"))
}

func TestValidateDisplayName(t *testing.T) {
	assert.Empty(t, validateDisplayName("Alice"))
	assert.NotEmpty(t, validateDisplayName(""))
	assert.NotEmpty(t, validateDisplayName("123456789012345678901234567890x"))
}

func TestValidateBio(t *testing.T) {
	assert.Empty(t, validateBio(""))
	assert.Empty(t, validateBio(strings.Repeat("a", 500)))
	assert.NotEmpty(t, validateBio(strings.Repeat("a", 501)))
}
