package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/viveo-rs/viveo-backend/internal/catalog"
	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/notification"
	"github.com/viveo-rs/viveo-backend/internal/orders"
)

// VideoOrderHandler serves the fan-facing video request endpoints.
type VideoOrderHandler struct {
	repo      *orders.VideoOrderRepository
	catalog   *catalog.Repository
	publisher *notification.Publisher
	logger    *slog.Logger
}

func NewVideoOrderHandler(repo *orders.VideoOrderRepository, cat *catalog.Repository, publisher *notification.Publisher, logger *slog.Logger) *VideoOrderHandler {
	return &VideoOrderHandler{repo: repo, catalog: cat, publisher: publisher, logger: logger}
}

type createVideoOrderRequest struct {
	CelebritySlug string `json:"celebrity_slug"`
	VideoTypeID   string `json:"video_type_id"`
	BuyerName     string `json:"buyer_name"`
	BuyerEmail    string `json:"buyer_email"`
	RecipientName string `json:"recipient_name"`
	Instructions  string `json:"instructions"`
}

func (req *createVideoOrderRequest) validate() string {
	switch {
	case req.CelebritySlug == "":
		return "celebrity_slug is required"
	case req.VideoTypeID == "":
		return "video_type_id is required"
	case req.BuyerName == "":
		return "buyer_name is required"
	case req.BuyerEmail == "":
		return "buyer_email is required"
	case req.RecipientName == "":
		return "recipient_name is required"
	}
	return ""
}

func (h *VideoOrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req createVideoOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidation, msg)
		return
	}

	celebrity, err := h.catalog.CelebrityForVideoOrder(r.Context(), req.CelebritySlug)
	if err != nil {
		h.logger.Error("failed to load celebrity", "error", err, "slug", req.CelebritySlug)
		writeInternal(w)
		return
	}
	if celebrity == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "celebrity not found")
		return
	}
	if !celebrity.AcceptingRequests {
		writeError(w, http.StatusBadRequest, CodeValidation, "celebrity is not accepting requests")
		return
	}

	videoType, err := h.catalog.VideoType(r.Context(), req.VideoTypeID, celebrity.ID)
	if err != nil {
		h.logger.Error("failed to load video type", "error", err, "video_type_id", req.VideoTypeID)
		writeInternal(w)
		return
	}
	if videoType == nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "video type does not belong to this celebrity")
		return
	}

	order := &domain.VideoOrder{
		BuyerID:       user.ID,
		CelebrityID:   celebrity.ID,
		VideoTypeID:   videoType.ID,
		BuyerName:     req.BuyerName,
		BuyerEmail:    req.BuyerEmail,
		RecipientName: req.RecipientName,
		Instructions:  req.Instructions,
		Price:         celebrity.Price,
		Deadline:      time.Now().UTC().Add(time.Duration(celebrity.ResponseTimeHours) * time.Hour),
	}
	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create video order", "error", err)
		writeInternal(w)
		return
	}

	_ = h.publisher.Publish(r.Context(), domain.NotificationEvent{
		Kind:        domain.NotifyNewVideoRequest,
		To:          celebrity.SellerEmail,
		OrderID:     order.ID,
		BuyerName:   order.BuyerName,
		StarName:    celebrity.Name,
		ProductName: videoType.Title,
		Timestamp:   time.Now().UTC(),
	})

	h.logger.Info("video order created", "order_id", order.ID, "celebrity_id", celebrity.ID)
	writeData(w, http.StatusCreated, order)
}

func (h *VideoOrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	list, err := h.repo.ListByBuyer(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list video orders", "error", err, "buyer_id", user.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

func (h *VideoOrderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	id := r.PathValue("id")

	order, err := h.repo.GetForBuyer(r.Context(), id, user.ID)
	if err != nil {
		h.logger.Error("failed to get video order", "error", err, "order_id", id)
		writeInternal(w)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "order not found")
		return
	}

	writeData(w, http.StatusOK, order)
}
