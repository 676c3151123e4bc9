package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/viveo-rs/viveo-backend/internal/catalog"
	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/lifecycle"
	"github.com/viveo-rs/viveo-backend/internal/orders"
	"github.com/viveo-rs/viveo-backend/internal/storage"
)

const videoBucket = "videos"

const maxVideoUploadBytes = 200 << 20

// DashboardHandler serves the seller-side endpoints. Every route first
// resolves the caller's celebrity profile; accounts without one read as
// not found.
type DashboardHandler struct {
	catalog *catalog.Repository
	video   *orders.VideoOrderRepository
	merch   *orders.MerchOrderRepository
	digital *orders.DigitalOrderRepository
	manager *lifecycle.Manager
	storage *storage.Client
	logger  *slog.Logger
}

func NewDashboardHandler(cat *catalog.Repository, video *orders.VideoOrderRepository, merch *orders.MerchOrderRepository,
	digital *orders.DigitalOrderRepository, manager *lifecycle.Manager, store *storage.Client, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		catalog: cat,
		video:   video,
		merch:   merch,
		digital: digital,
		manager: manager,
		storage: store,
		logger:  logger,
	}
}

// celebrity resolves the authenticated user's seller profile, writing
// the response itself when there is none.
func (h *DashboardHandler) celebrity(w http.ResponseWriter, r *http.Request) (*domain.Celebrity, bool) {
	user, _ := UserFrom(r.Context())

	celebrity, err := h.catalog.CelebrityForProfile(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to resolve celebrity profile", "error", err, "profile_id", user.ID)
		writeInternal(w)
		return nil, false
	}
	if celebrity == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "celebrity profile not found")
		return nil, false
	}
	return celebrity, true
}

// statusFilter validates an optional ?status= query against the kind's
// state set.
func statusFilter(w http.ResponseWriter, r *http.Request, kind domain.OrderKind) (domain.Status, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return "", true
	}
	status := domain.Status(raw)
	if !domain.KnownStatus(kind, status) {
		writeError(w, http.StatusBadRequest, CodeValidation, fmt.Sprintf("unknown status %q", raw))
		return "", false
	}
	return status, true
}

func (h *DashboardHandler) HandleRequests(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	status, ok := statusFilter(w, r, domain.KindVideo)
	if !ok {
		return
	}

	list, err := h.video.ListForCelebrity(r.Context(), celebrity.ID, status)
	if err != nil {
		h.logger.Error("failed to list requests", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

type transitionRequest struct {
	Status         domain.Status `json:"status"`
	TrackingNumber *string       `json:"tracking_number,omitempty"`
}

type transitionResponse struct {
	ID             string        `json:"id"`
	Status         domain.Status `json:"status"`
	DownloadToken  string        `json:"download_token,omitempty"`
	TokenExpiresAt *time.Time    `json:"download_token_expires_at,omitempty"`
}

func (h *DashboardHandler) transition(w http.ResponseWriter, r *http.Request, kind domain.OrderKind) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "status is required")
		return
	}

	result, err := h.manager.Transition(r.Context(), lifecycle.Request{
		Kind:           kind,
		OrderID:        id,
		SellerID:       celebrity.ID,
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		writeTransitionError(w, h.logger, err, id)
		return
	}

	h.logger.Info("order transitioned", "order_id", result.ID, "kind", kind, "status", result.Status)
	writeData(w, http.StatusOK, transitionResponse{
		ID:             result.ID,
		Status:         result.Status,
		DownloadToken:  result.DownloadToken,
		TokenExpiresAt: result.TokenExpiresAt,
	})
}

func (h *DashboardHandler) HandleRequestTransition(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.KindVideo)
}

func (h *DashboardHandler) HandleMerchTransition(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.KindMerch)
}

func (h *DashboardHandler) HandleDigitalTransition(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.KindDigital)
}

type videoUploadResponse struct {
	VideoPath string `json:"video_path"`
}

// HandleVideoUpload stores the fulfillment video for a request owned by
// the caller, under {celebrity}/{order}/{random}{ext}.
func (h *DashboardHandler) HandleVideoUpload(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	if err := r.ParseMultipartForm(maxVideoUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "video file is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxVideoUploadBytes))
	if err != nil {
		h.logger.Error("failed to read upload", "error", err, "order_id", id)
		writeInternal(w)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	path := fmt.Sprintf("%s/%s/%s%s", celebrity.ID, id, uuid.NewString(), filepath.Ext(header.Filename))
	if err := h.storage.Upload(r.Context(), videoBucket, path, data, contentType); err != nil {
		h.logger.Error("failed to upload video", "error", err, "order_id", id)
		writeInternal(w)
		return
	}

	if err := h.video.SetVideoPath(r.Context(), id, celebrity.ID, path); err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			// The order is not this seller's; remove the orphaned object.
			if delErr := h.storage.Delete(r.Context(), videoBucket, path); delErr != nil {
				h.logger.Error("failed to delete orphaned upload", "error", delErr, "path", path)
			}
			writeError(w, http.StatusNotFound, CodeNotFound, "order not found")
			return
		}
		h.logger.Error("failed to record video path", "error", err, "order_id", id)
		writeInternal(w)
		return
	}

	h.logger.Info("video uploaded", "order_id", id, "path", path, "size", len(data))
	writeData(w, http.StatusOK, videoUploadResponse{VideoPath: path})
}

func (h *DashboardHandler) HandleMerchOrders(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	status, ok := statusFilter(w, r, domain.KindMerch)
	if !ok {
		return
	}

	list, err := h.merch.ListForCelebrity(r.Context(), celebrity.ID, status)
	if err != nil {
		h.logger.Error("failed to list merch orders", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

func (h *DashboardHandler) HandleDigitalOrders(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	status, ok := statusFilter(w, r, domain.KindDigital)
	if !ok {
		return
	}

	list, err := h.digital.ListForCelebrity(r.Context(), celebrity.ID, status)
	if err != nil {
		h.logger.Error("failed to list digital orders", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

type earningsResponse struct {
	Total  int64              `json:"total"`
	ByKind []catalog.Earnings `json:"by_kind"`
}

func (h *DashboardHandler) HandleEarnings(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}

	byKind, err := h.catalog.EarningsFor(r.Context(), celebrity.ID)
	if err != nil {
		h.logger.Error("failed to aggregate earnings", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	total := lo.SumBy(byKind, func(e catalog.Earnings) int64 { return e.Total })

	writeData(w, http.StatusOK, earningsResponse{Total: total, ByKind: byKind})
}

type profileUpdateRequest struct {
	Name              *string `json:"name"`
	Bio               *string `json:"bio"`
	Price             *int64  `json:"price"`
	ResponseTimeHours *int    `json:"response_time_hours"`
	AcceptingRequests *bool   `json:"accepting_requests"`
}

func (h *DashboardHandler) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "name cannot be empty")
		return
	}
	if req.Price != nil && *req.Price < 0 {
		writeError(w, http.StatusBadRequest, CodeValidation, "price cannot be negative")
		return
	}
	if req.ResponseTimeHours != nil && *req.ResponseTimeHours < 1 {
		writeError(w, http.StatusBadRequest, CodeValidation, "response_time_hours must be at least 1")
		return
	}

	update := catalog.ProfileUpdate{
		Name:              req.Name,
		Bio:               req.Bio,
		Price:             req.Price,
		ResponseTimeHours: req.ResponseTimeHours,
		AcceptingRequests: req.AcceptingRequests,
	}
	if err := h.catalog.UpdateProfile(r.Context(), celebrity.ID, update); err != nil {
		h.logger.Error("failed to update profile", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	user, _ := UserFrom(r.Context())
	updated, err := h.catalog.CelebrityForProfile(r.Context(), user.ID)
	if err != nil || updated == nil {
		h.logger.Error("failed to reload profile", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	h.logger.Info("profile updated", "celebrity_id", celebrity.ID)
	writeData(w, http.StatusOK, updated)
}
