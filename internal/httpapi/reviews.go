package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/viveo-rs/viveo-backend/internal/catalog"
	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/notification"
	"github.com/viveo-rs/viveo-backend/internal/reviews"
)

// ReviewHandler accepts reviews for completed video orders.
type ReviewHandler struct {
	repo      *reviews.Repository
	catalog   *catalog.Repository
	publisher *notification.Publisher
	logger    *slog.Logger
}

func NewReviewHandler(repo *reviews.Repository, cat *catalog.Repository, publisher *notification.Publisher, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{repo: repo, catalog: cat, publisher: publisher, logger: logger}
}

type createReviewRequest struct {
	OrderID string `json:"order_id"`
	Rating  int    `json:"rating"`
	Text    string `json:"text"`
}

func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "order_id is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, CodeValidation, "rating must be between 1 and 5")
		return
	}

	order, err := h.repo.OrderForReview(r.Context(), req.OrderID)
	if err != nil {
		h.logger.Error("failed to load order for review", "error", err, "order_id", req.OrderID)
		writeInternal(w)
		return
	}
	if order == nil || order.BuyerID != user.ID {
		writeError(w, http.StatusNotFound, CodeNotFound, "order not found")
		return
	}
	if order.Status != domain.StatusCompleted {
		writeError(w, http.StatusBadRequest, CodeValidation, "only completed orders can be reviewed")
		return
	}

	exists, err := h.repo.ExistsForOrder(r.Context(), order.ID)
	if err != nil {
		h.logger.Error("failed to check existing review", "error", err, "order_id", order.ID)
		writeInternal(w)
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, CodeValidation, "order already has a review")
		return
	}

	review := &domain.Review{
		OrderID:     order.ID,
		AuthorID:    user.ID,
		CelebrityID: order.CelebrityID,
		Rating:      req.Rating,
		Text:        req.Text,
	}
	if err := h.repo.Create(r.Context(), review); err != nil {
		h.logger.Error("failed to create review", "error", err, "order_id", order.ID)
		writeInternal(w)
		return
	}

	if err := h.repo.RefreshCelebrityRating(r.Context(), order.CelebrityID); err != nil {
		h.logger.Error("failed to refresh celebrity rating", "error", err, "celebrity_id", order.CelebrityID)
	}

	if starName, sellerEmail, err := h.catalog.SellerContact(r.Context(), order.CelebrityID); err == nil {
		authorName, err := h.repo.AuthorName(r.Context(), user.ID)
		if err != nil {
			h.logger.Error("failed to load author name", "error", err, "author_id", user.ID)
		}
		_ = h.publisher.Publish(r.Context(), domain.NotificationEvent{
			Kind:      domain.NotifyNewReview,
			To:        sellerEmail,
			OrderID:   order.ID,
			BuyerName: authorName,
			StarName:  starName,
			Rating:    review.Rating,
			Timestamp: time.Now().UTC(),
		})
	} else {
		h.logger.Error("failed to load seller contact", "error", err, "celebrity_id", order.CelebrityID)
	}

	h.logger.Info("review created", "review_id", review.ID, "order_id", order.ID, "rating", review.Rating)
	writeData(w, http.StatusCreated, review)
}
