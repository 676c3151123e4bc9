package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/viveo-rs/viveo-backend/internal/catalog"
	"github.com/viveo-rs/viveo-backend/internal/domain"
)

const maxDigitalUploadBytes = 100 << 20

func (h *DashboardHandler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}

	list, err := h.catalog.ListProductsForCelebrity(r.Context(), celebrity.ID)
	if err != nil {
		h.logger.Error("failed to list products", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

type createVariantRequest struct {
	Name          string `json:"name"`
	PriceOverride *int64 `json:"price_override"`
	Stock         int    `json:"stock"`
}

func (v createVariantRequest) validate() string {
	switch {
	case v.Name == "":
		return "variant name is required"
	case v.PriceOverride != nil && *v.PriceOverride <= 0:
		return "variant price_override must be positive"
	case v.Stock < 0:
		return "variant stock cannot be negative"
	}
	return ""
}

type createProductRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Price       int64                  `json:"price"`
	Variants    []createVariantRequest `json:"variants"`
}

func (p createProductRequest) validate() string {
	switch {
	case p.Name == "":
		return "name is required"
	case p.Price <= 0:
		return "price must be positive"
	}
	for _, v := range p.Variants {
		if msg := v.validate(); msg != "" {
			return msg
		}
	}
	return ""
}

func (h *DashboardHandler) HandleProductCreate(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidation, msg)
		return
	}

	product := &domain.Product{
		CelebrityID: celebrity.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if err := h.catalog.CreateProduct(r.Context(), product); err != nil {
		h.logger.Error("failed to create product", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	for _, v := range req.Variants {
		variant := &domain.ProductVariant{
			ProductID:     product.ID,
			Name:          v.Name,
			PriceOverride: v.PriceOverride,
			Stock:         v.Stock,
		}
		if err := h.catalog.AddVariant(r.Context(), variant); err != nil {
			h.logger.Error("failed to add variant", "error", err, "product_id", product.ID)
			writeInternal(w)
			return
		}
	}

	created, err := h.catalog.ProductForCelebrity(r.Context(), product.ID, celebrity.ID)
	if err != nil || created == nil {
		h.logger.Error("failed to reload product", "error", err, "product_id", product.ID)
		writeInternal(w)
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "celebrity_id", celebrity.ID)
	writeData(w, http.StatusCreated, created)
}

func (h *DashboardHandler) HandleProductGet(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.ProductForCelebrity(r.Context(), r.PathValue("id"), celebrity.ID)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "product not found")
		return
	}

	writeData(w, http.StatusOK, product)
}

type productUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	IsActive    *bool   `json:"is_active"`
}

func (h *DashboardHandler) HandleProductUpdate(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var req productUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "name cannot be empty")
		return
	}
	if req.Price != nil && *req.Price <= 0 {
		writeError(w, http.StatusBadRequest, CodeValidation, "price must be positive")
		return
	}

	update := catalog.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive,
	}
	if err := h.catalog.UpdateProduct(r.Context(), id, celebrity.ID, update); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "product not found")
			return
		}
		h.logger.Error("failed to update product", "error", err, "product_id", id)
		writeInternal(w)
		return
	}

	updated, err := h.catalog.ProductForCelebrity(r.Context(), id, celebrity.ID)
	if err != nil || updated == nil {
		h.logger.Error("failed to reload product", "error", err, "product_id", id)
		writeInternal(w)
		return
	}

	writeData(w, http.StatusOK, updated)
}

// ownedProduct loads a product after confirming the caller owns it,
// writing the 404 itself otherwise.
func (h *DashboardHandler) ownedProduct(w http.ResponseWriter, r *http.Request, celebrityID string) (*catalog.ProductDetail, bool) {
	product, err := h.catalog.ProductForCelebrity(r.Context(), r.PathValue("id"), celebrityID)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "celebrity_id", celebrityID)
		writeInternal(w)
		return nil, false
	}
	if product == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "product not found")
		return nil, false
	}
	return product, true
}

func (h *DashboardHandler) HandleVariantAdd(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	product, ok := h.ownedProduct(w, r, celebrity.ID)
	if !ok {
		return
	}

	var req createVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidation, msg)
		return
	}

	variant := &domain.ProductVariant{
		ProductID:     product.ID,
		Name:          req.Name,
		PriceOverride: req.PriceOverride,
		Stock:         req.Stock,
	}
	if err := h.catalog.AddVariant(r.Context(), variant); err != nil {
		h.logger.Error("failed to add variant", "error", err, "product_id", product.ID)
		writeInternal(w)
		return
	}

	h.logger.Info("variant added", "variant_id", variant.ID, "product_id", product.ID, "stock", variant.Stock)
	writeData(w, http.StatusCreated, variant)
}

type variantUpdateRequest struct {
	Name          *string `json:"name"`
	PriceOverride *int64  `json:"price_override"`
	Stock         *int    `json:"stock"`
}

func (h *DashboardHandler) HandleVariantUpdate(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	product, ok := h.ownedProduct(w, r, celebrity.ID)
	if !ok {
		return
	}

	var req variantUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "variant name cannot be empty")
		return
	}
	if req.Stock != nil && *req.Stock < 0 {
		writeError(w, http.StatusBadRequest, CodeValidation, "variant stock cannot be negative")
		return
	}

	update := catalog.VariantUpdate{
		Name:          req.Name,
		PriceOverride: req.PriceOverride,
		Stock:         req.Stock,
	}
	variant, err := h.catalog.UpdateVariant(r.Context(), r.PathValue("vid"), product.ID, update)
	if err != nil {
		h.logger.Error("failed to update variant", "error", err, "product_id", product.ID)
		writeInternal(w)
		return
	}
	if variant == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "variant not found")
		return
	}

	h.logger.Info("variant updated", "variant_id", variant.ID, "product_id", product.ID, "stock", variant.Stock)
	writeData(w, http.StatusOK, variant)
}

func (h *DashboardHandler) HandleVariantDelete(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	product, ok := h.ownedProduct(w, r, celebrity.ID)
	if !ok {
		return
	}

	vid := r.PathValue("vid")
	if err := h.catalog.DeleteVariant(r.Context(), vid, product.ID); err != nil {
		switch {
		case errors.Is(err, catalog.ErrVariantHasOrders):
			writeError(w, http.StatusBadRequest, CodeValidation, "cannot delete a variant with existing orders")
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, CodeNotFound, "variant not found")
		default:
			h.logger.Error("failed to delete variant", "error", err, "variant_id", vid)
			writeInternal(w)
		}
		return
	}

	h.logger.Info("variant deleted", "variant_id", vid, "product_id", product.ID)
	writeData(w, http.StatusOK, map[string]string{"id": vid})
}

func (h *DashboardHandler) HandleDigitalProducts(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}

	list, err := h.catalog.ListDigitalProductsForCelebrity(r.Context(), celebrity.ID)
	if err != nil {
		h.logger.Error("failed to list digital products", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

type createDigitalProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

func (h *DashboardHandler) HandleDigitalProductCreate(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}

	var req createDigitalProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "name is required")
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, CodeValidation, "price must be positive")
		return
	}

	product := &domain.DigitalProduct{
		CelebrityID: celebrity.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if err := h.catalog.CreateDigitalProduct(r.Context(), product); err != nil {
		h.logger.Error("failed to create digital product", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	h.logger.Info("digital product created", "product_id", product.ID, "celebrity_id", celebrity.ID)
	writeData(w, http.StatusCreated, product)
}

// HandleDigitalFileUpload attaches the deliverable to a digital product.
// A previous file is removed from storage first; the product stays off
// the store until a file exists.
func (h *DashboardHandler) HandleDigitalFileUpload(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	product, err := h.catalog.DigitalProductForCelebrity(r.Context(), id, celebrity.ID)
	if err != nil {
		h.logger.Error("failed to get digital product", "error", err, "product_id", id)
		writeInternal(w)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "digital product not found")
		return
	}

	if err := r.ParseMultipartForm(maxDigitalUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxDigitalUploadBytes))
	if err != nil {
		h.logger.Error("failed to read upload", "error", err, "product_id", id)
		writeInternal(w)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if product.FilePath != "" {
		if err := h.storage.Delete(r.Context(), digitalBucket, product.FilePath); err != nil {
			h.logger.Error("failed to delete previous file", "error", err, "path", product.FilePath)
		}
	}

	ext := filepath.Ext(header.Filename)
	path := fmt.Sprintf("%s/%s/%s%s", celebrity.ID, id, uuid.NewString(), ext)
	if err := h.storage.Upload(r.Context(), digitalBucket, path, data, contentType); err != nil {
		h.logger.Error("failed to upload file", "error", err, "product_id", id)
		writeInternal(w)
		return
	}

	f := catalog.DigitalFile{
		Path: path,
		Name: header.Filename,
		Type: strings.ToUpper(strings.TrimPrefix(ext, ".")),
		Size: int64(len(data)),
	}
	if err := h.catalog.SetDigitalFile(r.Context(), id, celebrity.ID, f); err != nil {
		h.logger.Error("failed to record file", "error", err, "product_id", id)
		writeInternal(w)
		return
	}

	h.logger.Info("digital file uploaded", "product_id", id, "path", path, "size", f.Size)
	writeData(w, http.StatusOK, map[string]any{
		"file_name": f.Name,
		"file_type": f.Type,
		"file_size": f.Size,
	})
}

type availabilitySlotRequest struct {
	DayOfWeek   int  `json:"day_of_week"`
	Available   bool `json:"available"`
	MaxRequests int  `json:"max_requests"`
}

func (h *DashboardHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}

	slots, err := h.catalog.AvailabilityFor(r.Context(), celebrity.ID)
	if err != nil {
		h.logger.Error("failed to load availability", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	writeData(w, http.StatusOK, slots)
}

func (h *DashboardHandler) HandleAvailabilityUpdate(w http.ResponseWriter, r *http.Request) {
	celebrity, ok := h.celebrity(w, r)
	if !ok {
		return
	}

	var req []availabilitySlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	updates := make([]catalog.SlotUpdate, 0, len(req))
	for _, s := range req {
		if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
			writeError(w, http.StatusBadRequest, CodeValidation, fmt.Sprintf("day_of_week %d is out of range", s.DayOfWeek))
			return
		}
		if s.MaxRequests < 0 || s.MaxRequests > 20 {
			writeError(w, http.StatusBadRequest, CodeValidation, "max_requests must be between 0 and 20")
			return
		}
		updates = append(updates, catalog.SlotUpdate{
			DayOfWeek:   s.DayOfWeek,
			Available:   s.Available,
			MaxRequests: s.MaxRequests,
		})
	}

	if err := h.catalog.UpsertAvailability(r.Context(), celebrity.ID, updates); err != nil {
		h.logger.Error("failed to update availability", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	slots, err := h.catalog.AvailabilityFor(r.Context(), celebrity.ID)
	if err != nil {
		h.logger.Error("failed to reload availability", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	h.logger.Info("availability updated", "celebrity_id", celebrity.ID, "slots", len(req))
	writeData(w, http.StatusOK, slots)
}
