package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/viveo-rs/viveo-backend/internal/catalog"
	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/reviews"
)

// CelebrityHandler serves the public catalog endpoints.
type CelebrityHandler struct {
	catalog *catalog.Repository
	reviews *reviews.Repository
	logger  *slog.Logger
}

func NewCelebrityHandler(cat *catalog.Repository, rev *reviews.Repository, logger *slog.Logger) *CelebrityHandler {
	return &CelebrityHandler{catalog: cat, reviews: rev, logger: logger}
}

func (h *CelebrityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := catalog.CelebrityFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}

	list, err := h.catalog.ListCelebrities(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list celebrities", "error", err)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

type celebrityDetail struct {
	domain.Celebrity
	VideoTypes []domain.VideoType `json:"video_types"`
}

func (h *CelebrityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	celebrity, err := h.catalog.CelebrityBySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get celebrity", "error", err, "slug", slug)
		writeInternal(w)
		return
	}
	if celebrity == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "celebrity not found")
		return
	}

	videoTypes, err := h.catalog.VideoTypesFor(r.Context(), celebrity.ID)
	if err != nil {
		h.logger.Error("failed to list video types", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	writeData(w, http.StatusOK, celebrityDetail{Celebrity: *celebrity, VideoTypes: videoTypes})
}

func (h *CelebrityHandler) HandleReviews(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	celebrity, err := h.catalog.CelebrityBySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get celebrity", "error", err, "slug", slug)
		writeInternal(w)
		return
	}
	if celebrity == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "celebrity not found")
		return
	}

	list, err := h.reviews.ListForCelebrity(r.Context(), celebrity.ID)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}
