package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"ratemyfit/cache"
	"ratemyfit/logger"
	"ratemyfit/model"
	"ratemyfit/repository"
)

// maxUploadSize caps outfit images at 10MB.
const maxUploadSize = 10 << 20

// allowedImageTypes maps accepted file extensions to their MIME types. Both
// the extension and the declared content type must match.
var allowedImageTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Home routes the bare domain: logged-in users land on the dashboard,
// everyone else on the login page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if currentUser(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Dashboard renders the upload form plus the user's own fits.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	data := h.page(r)

	outfits, err := h.outfits.ListByUser(r.Context(), user.ID)
	if err != nil {
		logger.Error("failed to list outfits", logger.Int64("userId", user.ID), logger.ErrorField(err))
	} else {
		data.Data["Outfits"] = outfits
	}
	h.views.Render(w, http.StatusOK, "dashboard.html", data)
}

// Upload handles the outfit image form. The file rides in the "fitImage"
// multipart field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		redirectMsg(w, r, "/dashboard", "error", "Image too large, 10MB max")
		return
	}
	// Multipart bodies skip the middleware check so the size cap above
	// applies before anything is parsed.
	if !h.checkCSRF(w, r) {
		return
	}

	file, header, err := r.FormFile("fitImage")
	if err != nil {
		redirectMsg(w, r, "/dashboard", "error", "Please choose an image to upload")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	wantType, ok := allowedImageTypes[ext]
	if !ok || header.Header.Get("Content-Type") != wantType {
		redirectMsg(w, r, "/dashboard", "error", "Only jpeg, jpg, png and gif images are allowed")
		return
	}

	name := fmt.Sprintf("fitImage-%d%s", time.Now().UnixMilli(), ext)
	url, err := h.uploads.Save(r.Context(), name, file, header.Size, wantType)
	if err != nil {
		logger.Error("failed to store upload", logger.Int64("userId", user.ID), logger.ErrorField(err))
		redirectMsg(w, r, "/dashboard", "error", "Something went wrong, please try again")
		return
	}

	outfit := &model.Outfit{
		UserID:   user.ID,
		Username: user.Username,
		ImageURL: url,
	}
	if err := h.outfits.CreateOutfit(r.Context(), outfit); err != nil {
		logger.Error("failed to create outfit", logger.Int64("userId", user.ID), logger.ErrorField(err))
		redirectMsg(w, r, "/dashboard", "error", "Something went wrong, please try again")
		return
	}

	h.trending.Invalidate(r.Context())
	logger.Info("outfit uploaded", logger.Int64("userId", user.ID), logger.Int64("outfitId", outfit.ID))
	redirectMsg(w, r, "/dashboard", "msg", "Fit posted")
}

// Trending renders the feed ordered by fire votes, served from the cache
// when it is warm.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	data := h.page(r)

	outfits, err := h.trending.Get(r.Context())
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn("trending cache read failed", logger.ErrorField(err))
		}
		outfits, err = h.outfits.ListTrending(r.Context(), 10)
		if err != nil {
			logger.Error("failed to load trending feed", logger.ErrorField(err))
			h.views.Render(w, http.StatusInternalServerError, "500.html", data)
			return
		}
		if err := h.trending.Set(r.Context(), outfits); err != nil {
			logger.Warn("trending cache write failed", logger.ErrorField(err))
		}
	}

	data.Data["Outfits"] = outfits
	h.views.Render(w, http.StatusOK, "trending.html", data)
}

// Vote records a fire or nope on an outfit and returns to the trending page
// with a confirmation.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	outfitID, err := strconv.ParseInt(r.FormValue("outfitId"), 10, 64)
	if err != nil {
		redirectMsg(w, r, "/trending", "error", "Invalid vote")
		return
	}
	kind := model.VoteKind(r.FormValue("voteType"))
	if !kind.Valid() {
		redirectMsg(w, r, "/trending", "error", "Invalid vote")
		return
	}

	if err := h.outfits.IncrementVote(r.Context(), outfitID, kind); err != nil {
		if errors.Is(err, repository.ErrOutfitNotFound) {
			redirectMsg(w, r, "/trending", "error", "That fit is gone")
			return
		}
		logger.Error("failed to record vote", logger.Int64("outfitId", outfitID), logger.ErrorField(err))
		redirectMsg(w, r, "/trending", "error", "Something went wrong, please try again")
		return
	}

	h.trending.Invalidate(r.Context())
	redirectMsg(w, r, "/trending", "msg", "Vote recorded!")
}

// ServeUpload streams a stored outfit image, from disk or MinIO depending on
// the configured backend.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]

	rc, contentType, err := h.uploads.Open(r.Context(), name)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		logger.Warn("failed to stream upload", logger.String("file", name), logger.ErrorField(err))
	}
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusNotFound, "404.html", h.page(r))
}
