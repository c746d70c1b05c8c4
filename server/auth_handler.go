package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"ratemyfit/core/account"
	"ratemyfit/logger"
)

// LoginPage renders the login form. Already-authenticated users go straight
// to the dashboard.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if currentUser(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.views.Render(w, http.StatusOK, "login.html", h.page(r))
}

// Login handles the local-credential login form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	password := r.FormValue("password")
	if email == "" || password == "" {
		redirectMsg(w, r, "/login", "error", "Email and password are required")
		return
	}

	user, err := h.resolver.ResolveCredentials(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailNotVerified):
			http.Redirect(w, r,
				"/verify?email="+url.QueryEscape(email)+"&error="+url.QueryEscape("Please verify your email before logging in"),
				http.StatusSeeOther)
		case errors.Is(err, account.ErrInvalidCredentials):
			redirectMsg(w, r, "/login", "error", "Invalid email or password")
		default:
			logger.Error("login failed", logger.ErrorField(err))
			redirectMsg(w, r, "/login", "error", "Something went wrong, please try again")
		}
		return
	}

	if err := h.sessions.Create(r.Context(), w, user); err != nil {
		logger.Error("failed to create session", logger.Int64("userId", user.ID), logger.ErrorField(err))
		redirectMsg(w, r, "/login", "error", "Something went wrong, please try again")
		return
	}
	logger.Info("user logged in", logger.Int64("userId", user.ID))
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// RegisterPage renders the registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if currentUser(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.views.Render(w, http.StatusOK, "register.html", h.page(r))
}

// Register handles the registration form: validate, create the account
// unverified, mail a verification code.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if msg := validateEmail(email); msg != "" {
		redirectMsg(w, r, "/register", "error", msg)
		return
	}
	if msg := validateUsername(username); msg != "" {
		redirectMsg(w, r, "/register", "error", msg)
		return
	}
	if msg := validatePassword(password); msg != "" {
		redirectMsg(w, r, "/register", "error", msg)
		return
	}

	user, err := h.resolver.Register(r.Context(), email, username, password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			redirectMsg(w, r, "/register", "error", "Email already registered")
		case errors.Is(err, account.ErrUsernameTaken):
			redirectMsg(w, r, "/register", "error", "Username already taken")
		default:
			logger.Error("registration failed", logger.ErrorField(err))
			redirectMsg(w, r, "/register", "error", "Something went wrong, please try again")
		}
		return
	}

	if err := h.verifier.Issue(r.Context(), user.Email); err != nil {
		logger.Error("failed to issue verification code", logger.Int64("userId", user.ID), logger.ErrorField(err))
	}
	http.Redirect(w, r,
		"/verify?email="+url.QueryEscape(user.Email)+"&msg="+url.QueryEscape("Check your inbox for a verification code"),
		http.StatusSeeOther)
}

// VerifyPage renders the code-entry form. The email rides along in the query
// string so the form can post it back.
func (h *Handler) VerifyPage(w http.ResponseWriter, r *http.Request) {
	data := h.page(r)
	data.Data["Email"] = r.URL.Query().Get("email")
	h.views.Render(w, http.StatusOK, "verify.html", data)
}

// Verify handles code submission.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	code := strings.TrimSpace(r.FormValue("code"))
	if email == "" || code == "" {
		redirectMsg(w, r, "/verify", "error", "Email and code are required")
		return
	}

	if err := h.verifier.Confirm(r.Context(), email, code); err != nil {
		var msg string
		switch {
		case errors.Is(err, account.ErrCodeExpired):
			msg = "That code has expired, request a new one"
		case errors.Is(err, account.ErrCodeInvalid):
			msg = "Invalid verification code"
		default:
			logger.Error("verification failed", logger.ErrorField(err))
			msg = "Something went wrong, please try again"
		}
		http.Redirect(w, r,
			"/verify?email="+url.QueryEscape(email)+"&error="+url.QueryEscape(msg),
			http.StatusSeeOther)
		return
	}
	redirectMsg(w, r, "/login", "msg", "Email verified, you can log in now")
}

// ResendVerification mails a fresh code. Unknown or already-verified emails
// get the same response, so the endpoint does not leak which addresses exist.
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("email")))
	if email == "" {
		redirectMsg(w, r, "/login", "error", "Email is required")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		logger.Error("resend lookup failed", logger.ErrorField(err))
	} else if user != nil && !user.EmailVerified {
		if err := h.verifier.Issue(r.Context(), email); err != nil {
			logger.Error("failed to reissue verification code", logger.ErrorField(err))
		}
	}
	http.Redirect(w, r,
		"/verify?email="+url.QueryEscape(email)+"&msg="+url.QueryEscape("If that account needs verification, a new code is on its way"),
		http.StatusSeeOther)
}

// Logout destroys the session and returns to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		logger.Warn("failed to destroy session record", logger.ErrorField(err))
	}
	redirectMsg(w, r, "/login", "msg", "Logged out")
}
