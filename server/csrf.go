package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"ratemyfit/logger"
)

const (
	csrfCookieName = "rmf_csrf"
	csrfField      = "_csrf"
)

// csrfMiddleware implements double-submit CSRF protection: a random token in
// an HTTP-only cookie must be echoed back in the _csrf field of every
// state-changing form. Multipart posts are verified by the upload handler
// after parsing, so the body size cap stays in force there.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(csrfCookieName); err == nil {
			token = cookie.Value
		}
		if token == "" {
			token = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.cfg.IsProduction(),
				SameSite: http.SameSiteLaxMode,
			})
		}
		r = r.WithContext(withCSRFToken(r.Context(), token))

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			next.ServeHTTP(w, r)
			return
		}
		if !validCSRF(r.PostFormValue(csrfField), token) {
			logger.Warn("csrf token mismatch",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path))
			http.Error(w, "Invalid form token, go back and try again", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkCSRF verifies the form token for handlers that parse their own body.
func (h *Handler) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	if validCSRF(r.FormValue(csrfField), csrfToken(r.Context())) {
		return true
	}
	logger.Warn("csrf token mismatch", logger.String("path", r.URL.Path))
	http.Error(w, "Invalid form token, go back and try again", http.StatusForbidden)
	return false
}

func validCSRF(submitted, token string) bool {
	return token != "" && submitted != "" &&
		subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) == 1
}
