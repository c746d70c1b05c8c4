package server

import (
	"errors"
	"net/http"
	"strings"

	"ratemyfit/core/account"
	"ratemyfit/core/provider"
	"ratemyfit/logger"
	"ratemyfit/repository"
)

// ProfilePage renders the profile editor with the user's own uploads.
func (h *Handler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	data := h.page(r)

	outfits, err := h.outfits.ListByUser(r.Context(), user.ID)
	if err != nil {
		logger.Error("failed to list user outfits", logger.Int64("userId", user.ID), logger.ErrorField(err))
	} else {
		data.Data["Outfits"] = outfits
	}
	h.views.Render(w, http.StatusOK, "profile.html", data)
}

// UpdateProfile handles the profile edit form.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	username := strings.TrimSpace(r.FormValue("username"))
	displayName := strings.TrimSpace(r.FormValue("displayName"))
	bio := strings.TrimSpace(r.FormValue("bio"))

	if msg := validateUsername(username); msg != "" {
		redirectMsg(w, r, "/profile", "error", msg)
		return
	}
	if msg := validateDisplayName(displayName); msg != "" {
		redirectMsg(w, r, "/profile", "error", msg)
		return
	}
	if msg := validateBio(bio); msg != "" {
		redirectMsg(w, r, "/profile", "error", msg)
		return
	}

	if username != user.Username {
		taken, err := h.users.GetUserByUsername(r.Context(), username)
		if err != nil {
			logger.Error("username lookup failed", logger.ErrorField(err))
			redirectMsg(w, r, "/profile", "error", "Something went wrong, please try again")
			return
		}
		if taken != nil && taken.ID != user.ID {
			redirectMsg(w, r, "/profile", "error", "Username already taken")
			return
		}
	}

	if err := h.users.UpdateProfile(r.Context(), user.ID, username, displayName, bio); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			redirectMsg(w, r, "/profile", "error", "Username already taken")
			return
		}
		logger.Error("failed to update profile", logger.Int64("userId", user.ID), logger.ErrorField(err))
		redirectMsg(w, r, "/profile", "error", "Something went wrong, please try again")
		return
	}

	updated := *user
	updated.Username = username
	updated.DisplayName = displayName
	updated.Bio = bio
	if err := h.sessions.Update(r.Context(), currentSessionID(r.Context()), &updated); err != nil {
		logger.Error("failed to update session snapshot", logger.Int64("userId", user.ID), logger.ErrorField(err))
	}
	redirectMsg(w, r, "/profile", "msg", "Profile updated")
}

// CompleteProfilePage renders the username-picker shown to accounts still in
// the new-user state. The generated placeholder pre-fills the form.
func (h *Handler) CompleteProfilePage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if !user.IsNewUser {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.views.Render(w, http.StatusOK, "complete-profile.html", h.page(r))
}

// CompleteProfile finalizes the username and lifts the new-user restriction.
func (h *Handler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if !user.IsNewUser {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	displayName := strings.TrimSpace(r.FormValue("displayName"))
	if msg := validateUsername(username); msg != "" {
		redirectMsg(w, r, "/complete-profile", "error", msg)
		return
	}

	updated, err := h.resolver.FinalizeUsername(r.Context(), user, username, displayName)
	if err != nil {
		if errors.Is(err, account.ErrUsernameTaken) {
			redirectMsg(w, r, "/complete-profile", "error", "Username already taken")
			return
		}
		logger.Error("failed to finalize username", logger.Int64("userId", user.ID), logger.ErrorField(err))
		redirectMsg(w, r, "/complete-profile", "error", "Something went wrong, please try again")
		return
	}

	if err := h.sessions.Update(r.Context(), currentSessionID(r.Context()), updated); err != nil {
		logger.Error("failed to update session snapshot", logger.Int64("userId", user.ID), logger.ErrorField(err))
	}
	logger.Info("profile completed", logger.Int64("userId", updated.ID), logger.String("username", updated.Username))
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// UpdateMyAvatar regenerates the account avatar. Accounts whose provider
// photo went stale or blank fall back to a generated-initials image.
func (h *Handler) UpdateMyAvatar(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	avatarURL := provider.FallbackAvatarURL(user.DisplayName)
	if err := h.users.UpdateAvatar(r.Context(), user.ID, avatarURL); err != nil {
		logger.Error("failed to update avatar", logger.Int64("userId", user.ID), logger.ErrorField(err))
		redirectMsg(w, r, "/profile", "error", "Something went wrong, please try again")
		return
	}

	updated := *user
	updated.AvatarURL = avatarURL
	if err := h.sessions.Update(r.Context(), currentSessionID(r.Context()), &updated); err != nil {
		logger.Error("failed to update session snapshot", logger.Int64("userId", user.ID), logger.ErrorField(err))
	}
	redirectMsg(w, r, "/profile", "msg", "Avatar updated")
}
