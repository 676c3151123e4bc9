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
	"github.com/viveo-rs/viveo-backend/internal/storage"
)

const digitalBucket = "digital-products"

// signedURLTTL bounds how long a served download link stays valid; the
// token itself outlives it and can mint fresh links until it expires.
const signedURLTTL = time.Hour

// DigitalOrderHandler serves the fan-facing digital purchase endpoints
// and the token-gated download.
type DigitalOrderHandler struct {
	repo      *orders.DigitalOrderRepository
	catalog   *catalog.Repository
	storage   *storage.Client
	publisher *notification.Publisher
	logger    *slog.Logger
}

func NewDigitalOrderHandler(repo *orders.DigitalOrderRepository, cat *catalog.Repository, store *storage.Client, publisher *notification.Publisher, logger *slog.Logger) *DigitalOrderHandler {
	return &DigitalOrderHandler{repo: repo, catalog: cat, storage: store, publisher: publisher, logger: logger}
}

type createDigitalOrderRequest struct {
	ProductID  string `json:"product_id"`
	BuyerName  string `json:"buyer_name"`
	BuyerEmail string `json:"buyer_email"`
	BuyerPhone string `json:"buyer_phone"`
}

func (req *createDigitalOrderRequest) validate() string {
	switch {
	case req.ProductID == "":
		return "product_id is required"
	case req.BuyerName == "":
		return "buyer_name is required"
	case req.BuyerEmail == "":
		return "buyer_email is required"
	}
	return ""
}

func (h *DigitalOrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req createDigitalOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidation, msg)
		return
	}

	product, err := h.catalog.DigitalProductForPurchase(r.Context(), req.ProductID)
	if err != nil {
		h.logger.Error("failed to load digital product", "error", err, "product_id", req.ProductID)
		writeInternal(w)
		return
	}
	if product == nil || !product.IsActive {
		writeError(w, http.StatusNotFound, CodeNotFound, "product not found")
		return
	}

	order := &domain.DigitalOrder{
		BuyerID:     user.ID,
		CelebrityID: product.CelebrityID,
		ProductID:   product.ID,
		Price:       product.Price,
		BuyerName:   req.BuyerName,
		BuyerEmail:  req.BuyerEmail,
		BuyerPhone:  req.BuyerPhone,
	}
	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create digital order", "error", err)
		writeInternal(w)
		return
	}

	_ = h.publisher.Publish(r.Context(), domain.NotificationEvent{
		Kind:        domain.NotifyNewDigitalOrder,
		To:          product.SellerEmail,
		OrderID:     order.ID,
		BuyerName:   order.BuyerName,
		StarName:    product.StarName,
		ProductName: product.Name,
		TotalPrice:  order.Price,
		Timestamp:   time.Now().UTC(),
	})

	h.logger.Info("digital order created", "order_id", order.ID, "product_id", product.ID)
	writeData(w, http.StatusCreated, order)
}

func (h *DigitalOrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	list, err := h.repo.ListByBuyer(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list digital orders", "error", err, "buyer_id", user.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

func (h *DigitalOrderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	id := r.PathValue("id")

	order, err := h.repo.GetForBuyer(r.Context(), id, user.ID)
	if err != nil {
		h.logger.Error("failed to get digital order", "error", err, "order_id", id)
		writeInternal(w)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "order not found")
		return
	}

	writeData(w, http.StatusOK, order)
}

type downloadResponse struct {
	FileName    string    `json:"file_name"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HandleDownload serves a completed order's file through a short-lived
// signed storage URL. The download token is the only credential; there
// is no auth on this route.
func (h *DigitalOrderHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "token is required")
		return
	}

	download, err := h.repo.GetDownload(r.Context(), id, token)
	if err != nil {
		h.logger.Error("failed to resolve download", "error", err, "order_id", id)
		writeInternal(w)
		return
	}
	if download == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "download not found")
		return
	}
	if time.Now().After(download.TokenExpiresAt) {
		writeError(w, http.StatusGone, CodeTokenExpired, "download link has expired")
		return
	}

	url, err := h.storage.SignedURL(r.Context(), digitalBucket, download.FilePath, signedURLTTL)
	if err != nil {
		h.logger.Error("failed to sign download url", "error", err, "order_id", id)
		writeInternal(w)
		return
	}

	if err := h.repo.IncrementDownloadCounts(r.Context(), download.OrderID, download.ProductID); err != nil {
		h.logger.Error("failed to bump download counters", "error", err, "order_id", id)
	}

	h.logger.Info("download served", "order_id", id, "product_id", download.ProductID)
	writeData(w, http.StatusOK, downloadResponse{
		FileName:    download.FileName,
		DownloadURL: url,
		ExpiresAt:   time.Now().UTC().Add(signedURLTTL),
	})
}
