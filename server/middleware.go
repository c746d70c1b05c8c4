package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"ratemyfit/logger"
	"ratemyfit/session"
)

// sessionMiddleware restores the session identity into the request context
// and slides the expiry window. Downstream handlers read the user from the
// context only; this is the single place session state enters a request.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, sid, err := h.sessions.Current(r.Context(), r)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				logger.Error("failed to restore session", logger.ErrorField(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		h.sessions.Touch(r.Context(), w, sid)
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), user, sid)))
	})
}

// requireAuth redirects anonymous requests to the login page. While the
// account is in the new-user state, every page except profile completion
// redirects there.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r.Context())
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		if user.IsNewUser && r.URL.Path != "/complete-profile" {
			http.Redirect(w, r, "/complete-profile", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// recoverMiddleware is the catch-all for panicking handlers: log, render the
// generic failure page, keep the process alive.
func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic in request handler",
					logger.String("path", r.URL.Path),
					logger.Any("panic", rec))
				h.views.Render(w, http.StatusInternalServerError, "500.html", &pageData{})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeaders sets the response hardening headers on every request.
func (h *Handler) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "SAMEORIGIN")
		hdr.Set("Referrer-Policy", "no-referrer")
		hdr.Set("X-Download-Options", "noopen")
		if h.cfg.IsProduction() {
			hdr.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// requestLimiter is the slice of the rate limiter the middleware needs.
type requestLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// rateLimit caps requests per client IP for the named route group. Exceeding
// the cap gets a 429 with a human-readable message.
func (h *Handler) rateLimit(name string, limit int, window time.Duration, message string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.limiter.Allow(r.Context(), name+":"+clientIP(r), limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", logger.ErrorField(err))
		}
		if !ok {
			logger.Warn("rate limit exceeded",
				logger.String("group", name),
				logger.String("ip", clientIP(r)))
			http.Error(w, message, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// clientIP returns the caller's address, honoring the proxy header the way
// the production deployment sits behind one.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// logMiddleware logs each request at debug level.
func (h *Handler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
