package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/viveo-rs/viveo-backend/internal/catalog"
	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/inventory"
	"github.com/viveo-rs/viveo-backend/internal/notification"
	"github.com/viveo-rs/viveo-backend/internal/orders"
)

// MerchOrderHandler serves the fan-facing merch purchase endpoints. Stock
// is reserved through the inventory store before the order row exists;
// a failed insert releases the reservation.
type MerchOrderHandler struct {
	repo      *orders.MerchOrderRepository
	catalog   *catalog.Repository
	inventory inventory.Store
	publisher *notification.Publisher
	logger    *slog.Logger
}

func NewMerchOrderHandler(repo *orders.MerchOrderRepository, cat *catalog.Repository, inv inventory.Store, publisher *notification.Publisher, logger *slog.Logger) *MerchOrderHandler {
	return &MerchOrderHandler{repo: repo, catalog: cat, inventory: inv, publisher: publisher, logger: logger}
}

type createMerchOrderRequest struct {
	ProductID       string `json:"product_id"`
	VariantID       string `json:"variant_id"`
	Quantity        int    `json:"quantity"`
	BuyerName       string `json:"buyer_name"`
	BuyerEmail      string `json:"buyer_email"`
	BuyerPhone      string `json:"buyer_phone"`
	ShippingName    string `json:"shipping_name"`
	ShippingAddress string `json:"shipping_address"`
	ShippingCity    string `json:"shipping_city"`
	ShippingPostal  string `json:"shipping_postal"`
	ShippingNote    string `json:"shipping_note"`
}

func (req *createMerchOrderRequest) validate() string {
	switch {
	case req.ProductID == "":
		return "product_id is required"
	case req.Quantity < 1:
		return "quantity must be at least 1"
	case req.BuyerName == "":
		return "buyer_name is required"
	case req.BuyerEmail == "":
		return "buyer_email is required"
	case req.ShippingName == "":
		return "shipping_name is required"
	case req.ShippingAddress == "":
		return "shipping_address is required"
	case req.ShippingCity == "":
		return "shipping_city is required"
	case req.ShippingPostal == "":
		return "shipping_postal is required"
	}
	return ""
}

func (h *MerchOrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req createMerchOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidation, msg)
		return
	}

	product, err := h.catalog.ProductForPurchase(r.Context(), req.ProductID)
	if err != nil {
		h.logger.Error("failed to load product", "error", err, "product_id", req.ProductID)
		writeInternal(w)
		return
	}
	if product == nil || !product.IsActive {
		writeError(w, http.StatusNotFound, CodeNotFound, "product not found")
		return
	}

	unitPrice := product.Price
	var variantID *string
	var variantName string
	if req.VariantID != "" {
		variant, err := h.catalog.Variant(r.Context(), req.VariantID, product.ID)
		if err != nil {
			h.logger.Error("failed to load variant", "error", err, "variant_id", req.VariantID)
			writeInternal(w)
			return
		}
		if variant == nil {
			writeError(w, http.StatusBadRequest, CodeValidation, "variant does not belong to this product")
			return
		}
		if variant.PriceOverride != nil {
			unitPrice = *variant.PriceOverride
		}
		variantID = &variant.ID
		variantName = variant.Name

		if err := h.inventory.Reserve(r.Context(), variant.ID, req.Quantity); err != nil {
			var stockErr *inventory.StockError
			switch {
			case errors.As(err, &stockErr):
				writeError(w, http.StatusBadRequest, CodeOutOfStock, stockErr.Error())
			case errors.Is(err, inventory.ErrVariantNotFound):
				writeError(w, http.StatusBadRequest, CodeValidation, "variant no longer exists")
			default:
				h.logger.Error("failed to reserve stock", "error", err, "variant_id", variant.ID)
				writeInternal(w)
			}
			return
		}
	}

	order := &domain.MerchOrder{
		BuyerID:         user.ID,
		CelebrityID:     product.CelebrityID,
		ProductID:       product.ID,
		VariantID:       variantID,
		Quantity:        req.Quantity,
		UnitPrice:       unitPrice,
		TotalPrice:      unitPrice * int64(req.Quantity),
		BuyerName:       req.BuyerName,
		BuyerEmail:      req.BuyerEmail,
		BuyerPhone:      req.BuyerPhone,
		ShippingName:    req.ShippingName,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingPostal:  req.ShippingPostal,
		ShippingNote:    req.ShippingNote,
	}
	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create merch order", "error", err)
		if variantID != nil {
			if relErr := h.inventory.Release(r.Context(), *variantID, req.Quantity); relErr != nil {
				h.logger.Error("failed to release reserved stock", "error", relErr, "variant_id", *variantID)
			}
		}
		writeInternal(w)
		return
	}

	_ = h.publisher.Publish(r.Context(), domain.NotificationEvent{
		Kind:        domain.NotifyNewMerchOrder,
		To:          product.SellerEmail,
		OrderID:     order.ID,
		BuyerName:   order.BuyerName,
		StarName:    product.StarName,
		ProductName: product.Name,
		VariantName: variantName,
		Quantity:    order.Quantity,
		TotalPrice:  order.TotalPrice,
		Timestamp:   time.Now().UTC(),
	})

	h.logger.Info("merch order created", "order_id", order.ID, "product_id", product.ID, "quantity", order.Quantity)
	writeData(w, http.StatusCreated, order)
}

func (h *MerchOrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	list, err := h.repo.ListByBuyer(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list merch orders", "error", err, "buyer_id", user.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

func (h *MerchOrderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	id := r.PathValue("id")

	order, err := h.repo.GetForBuyer(r.Context(), id, user.ID)
	if err != nil {
		h.logger.Error("failed to get merch order", "error", err, "order_id", id)
		writeInternal(w)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "order not found")
		return
	}

	writeData(w, http.StatusOK, order)
}
