package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"ratemyfit/core/account"
	"ratemyfit/logger"
	"ratemyfit/model"
)

// OAuthRedirect sends the browser to the provider's consent screen with a
// signed state value.
func (h *Handler) OAuthRedirect(w http.ResponseWriter, r *http.Request) {
	client, ok := h.providers[model.Provider(mux.Vars(r)["provider"])]
	if !ok {
		h.NotFound(w, r)
		return
	}

	state, err := h.states.Issue(client.Name())
	if err != nil {
		logger.Error("failed to sign oauth state", logger.ErrorField(err))
		redirectMsg(w, r, "/login", "error", "Something went wrong, please try again")
		return
	}
	http.Redirect(w, r, client.AuthURL(state), http.StatusFound)
}

// OAuthCallback handles the provider's redirect back: verify state, exchange
// the code for a profile, resolve it to a user record and start a session.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	name := model.Provider(mux.Vars(r)["provider"])
	client, ok := h.providers[name]
	if !ok {
		h.NotFound(w, r)
		return
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		// The user cancelled on the consent screen.
		redirectMsg(w, r, "/login", "error", "Login cancelled")
		return
	}

	issuedFor, err := h.states.Verify(r.URL.Query().Get("state"))
	if err != nil || issuedFor != name {
		logger.Warn("oauth state rejected", logger.String("provider", string(name)), logger.ErrorField(err))
		redirectMsg(w, r, "/login", "error", "Login attempt expired, please try again")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		redirectMsg(w, r, "/login", "error", "Login attempt expired, please try again")
		return
	}

	profile, err := client.Exchange(r.Context(), code)
	if err != nil {
		logger.Error("oauth exchange failed", logger.String("provider", string(name)), logger.ErrorField(err))
		redirectMsg(w, r, "/login", "error", "Could not complete login, please try again")
		return
	}

	user, err := h.resolver.ResolveProvider(r.Context(), account.ProfileEvent{
		Provider:    profile.Provider,
		ProviderID:  profile.ProviderID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, account.ErrNoEmail) {
			redirectMsg(w, r, "/login", "error", "Your account did not share an email address")
			return
		}
		logger.Error("failed to resolve provider login", logger.String("provider", string(name)), logger.ErrorField(err))
		redirectMsg(w, r, "/login", "error", "Could not complete login, please try again")
		return
	}

	if err := h.sessions.Create(r.Context(), w, user); err != nil {
		logger.Error("failed to create session", logger.Int64("userId", user.ID), logger.ErrorField(err))
		redirectMsg(w, r, "/login", "error", "Could not complete login, please try again")
		return
	}

	if user.IsNewUser {
		http.Redirect(w, r, "/complete-profile", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}
