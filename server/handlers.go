package server

import (
	"context"
	"net/http"
	"net/url"

	"ratemyfit/cache"
	"ratemyfit/config"
	"ratemyfit/core/account"
	"ratemyfit/core/provider"
	"ratemyfit/model"
	"ratemyfit/repository"
	"ratemyfit/session"
	"ratemyfit/storage"
)

// Handler carries the wired dependencies for all page and API handlers.
type Handler struct {
	cfg       *config.Config
	users     repository.UserRepository
	outfits   repository.OutfitRepository
	resolver  *account.Resolver
	verifier  *account.Verifier
	sessions  *session.Manager
	providers map[model.Provider]provider.Client
	states    *provider.StateSigner
	uploads   storage.UploadStore
	trending  *cache.TrendingCache
	limiter   requestLimiter
	views     *Renderer
}

// NewHandler creates a Handler.
func NewHandler(
	cfg *config.Config,
	users repository.UserRepository,
	outfits repository.OutfitRepository,
	resolver *account.Resolver,
	verifier *account.Verifier,
	sessions *session.Manager,
	providers map[model.Provider]provider.Client,
	states *provider.StateSigner,
	uploads storage.UploadStore,
	trending *cache.TrendingCache,
	limiter requestLimiter,
	views *Renderer,
) *Handler {
	return &Handler{
		cfg:       cfg,
		users:     users,
		outfits:   outfits,
		resolver:  resolver,
		verifier:  verifier,
		sessions:  sessions,
		providers: providers,
		states:    states,
		uploads:   uploads,
		trending:  trending,
		limiter:   limiter,
		views:     views,
	}
}

// pageData is the common payload handed to every template.
type pageData struct {
	User    *model.User
	Message string
	Error   string
	CSRF    string
	Data    map[string]interface{}
}

func (h *Handler) page(r *http.Request) *pageData {
	return &pageData{
		User:    currentUser(r.Context()),
		Message: r.URL.Query().Get("msg"),
		Error:   r.URL.Query().Get("error"),
		CSRF:    csrfToken(r.Context()),
		Data:    map[string]interface{}{},
	}
}

// redirectMsg redirects to path with a user-facing message in the query
// string, the way every non-exceptional flow reports its outcome.
func redirectMsg(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	http.Redirect(w, r, path+"?"+key+"="+url.QueryEscape(msg), http.StatusSeeOther)
}

// ctxKey is the private type for request-context values.
type ctxKey int

const (
	userKey ctxKey = iota
	sessionIDKey
	csrfKey
)

// withIdentity returns a context carrying the resolved session identity.
func withIdentity(ctx context.Context, user *model.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// currentUser returns the resolved user for this request, or nil when
// anonymous. Handlers read identity from here only, never from globals.
func currentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// currentSessionID returns the session ID for this request, or "".
func currentSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// withCSRFToken returns a context carrying the request's form token.
func withCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfKey, token)
}

// csrfToken returns the form token for this request, or "".
func csrfToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey).(string)
	return token
}
