package account

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"ratemyfit/core/auth"
	"ratemyfit/logger"
	"ratemyfit/model"
	"ratemyfit/repository"
)

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// OAuth-only accounts without a password hash. Callers surface one
	// generic message for all three.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified is returned on login before the code is confirmed.
	ErrEmailNotVerified = errors.New("email address not verified")
	// ErrUsernameTaken is returned when a chosen username exists on another record.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is returned on registration with a known email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNoEmail is returned when a provider profile carries no email address.
	ErrNoEmail = errors.New("identity provider returned no email address")
)

// ProfileEvent is a successful authentication at an identity provider:
// the provider-assigned identifier plus the profile fields it shared.
type ProfileEvent struct {
	Provider    model.Provider
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Resolver maps authentication events to exactly one user record, applying a
// deterministic precedence so the same human always lands on the same record
// regardless of login method: provider-ID match, then email match (account
// linking), then creation.
type Resolver struct {
	users repository.UserRepository
}

// NewResolver creates a Resolver over the given user repository.
func NewResolver(users repository.UserRepository) *Resolver {
	return &Resolver{users: users}
}

// ResolveProvider resolves an identity-provider callback to a user record,
// creating or linking records as needed.
func (r *Resolver) ResolveProvider(ctx context.Context, ev ProfileEvent) (*model.User, error) {
	if ev.ProviderID == "" {
		return nil, fmt.Errorf("provider event without provider ID")
	}

	// 1. The provider ID is the strongest signal: a returning user.
	user, err := r.users.GetUserByProvider(ctx, ev.Provider, ev.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("lookup by provider ID: %w", err)
	}
	if user != nil {
		return r.refreshAvatar(ctx, user, ev.AvatarURL)
	}

	if ev.Email == "" {
		// Without an email there is nothing to link or create against.
		return nil, ErrNoEmail
	}
	// Providers report emails in whatever case the user typed at signup;
	// stored emails are always lower case.
	email := strings.ToLower(ev.Email)

	// 2. Email match: link the provider ID onto the existing record rather
	// than creating a duplicate account for the same human.
	user, err = r.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if user != nil {
		if err := r.users.LinkProvider(ctx, user.ID, ev.Provider, ev.ProviderID); err != nil {
			return nil, fmt.Errorf("link provider: %w", err)
		}
		user.SetProviderID(ev.Provider, ev.ProviderID)
		logger.Info("linked provider to existing account",
			logger.String("provider", string(ev.Provider)),
			logger.Int64("userId", user.ID))
		return r.refreshAvatar(ctx, user, ev.AvatarURL)
	}

	// 3. First login: create the record in the restricted new-user state.
	// The generated username carries a random suffix instead of a collision
	// check here; a real collision surfaces at profile completion, where the
	// user picks a name anyway.
	user = &model.User{
		Email:       email,
		Username:    generateUsername(email),
		DisplayName: ev.DisplayName,
		AvatarURL:   ev.AvatarURL,
		IsNewUser:   true,
	}
	user.SetProviderID(ev.Provider, ev.ProviderID)
	if _, err := r.users.CreateUser(ctx, user); err != nil {
		// A concurrent first login from another device may have inserted the
		// same email between our check and this write.
		return nil, fmt.Errorf("create user from %s profile: %w", ev.Provider, err)
	}
	logger.Info("created user from provider profile",
		logger.String("provider", string(ev.Provider)),
		logger.Int64("userId", user.ID))
	return user, nil
}

// ResolveCredentials resolves a local email+password check — the degenerate
// case of the provider flow using only the email branch.
func (r *Resolver) ResolveCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := r.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	return user, nil
}

// Register creates a local-credential account. The username is chosen
// explicitly, so the record never enters the new-user state; the email
// stays unverified until the code is confirmed.
func (r *Resolver) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	existing, err := r.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	existing, err = r.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup by username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:         email,
		Username:      username,
		DisplayName:   username,
		PasswordHash:  hash,
		IsNewUser:     false,
		EmailVerified: false,
	}
	if _, err := r.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			// Lost the race against a concurrent registration.
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// FinalizeUsername exits the new-user state: the submitted username is
// rejected when it exists on a different record, otherwise it is persisted
// and isNewUser flips to false permanently.
func (r *Resolver) FinalizeUsername(ctx context.Context, user *model.User, username, displayName string) (*model.User, error) {
	taken, err := r.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup by username: %w", err)
	}
	if taken != nil && taken.ID != user.ID {
		return nil, ErrUsernameTaken
	}

	if displayName == "" {
		displayName = username
	}
	if err := r.users.FinalizeUsername(ctx, user.ID, username, displayName); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	updated := *user
	updated.Username = username
	updated.DisplayName = displayName
	updated.IsNewUser = false
	return &updated, nil
}

// refreshAvatar overwrites the stored avatar with the most recent login's
// provider photo. An event without a photo leaves the stored value untouched.
func (r *Resolver) refreshAvatar(ctx context.Context, user *model.User, avatarURL string) (*model.User, error) {
	if avatarURL == "" || avatarURL == user.AvatarURL {
		return user, nil
	}
	if err := r.users.UpdateAvatar(ctx, user.ID, avatarURL); err != nil {
		// The login itself succeeded; a stale avatar is not worth failing it.
		logger.Warn("failed to refresh avatar", logger.Int64("userId", user.ID), logger.ErrorField(err))
		return user, nil
	}
	user.AvatarURL = avatarURL
	return user, nil
}

// generateUsername derives a username from the email local part plus a random
// numeric suffix, e.g. "alice@example.com" → "alice4821".
func generateUsername(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}
	return fmt.Sprintf("%s%d", base, 1000+rand.Intn(9000))
}
