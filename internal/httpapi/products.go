package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/viveo-rs/viveo-backend/internal/catalog"
)

// ProductHandler serves the public merch and digital product store.
type ProductHandler struct {
	catalog *catalog.Repository
	logger  *slog.Logger
}

func NewProductHandler(cat *catalog.Repository, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: cat, logger: logger}
}

func productFilter(r *http.Request) catalog.ProductFilter {
	return catalog.ProductFilter{
		Search:        r.URL.Query().Get("search"),
		CelebritySlug: r.URL.Query().Get("celebrity"),
	}
}

func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListProducts(r.Context(), productFilter(r))
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	product, err := h.catalog.ProductBySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "slug", slug)
		writeInternal(w)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "product not found")
		return
	}

	writeData(w, http.StatusOK, product)
}

// HandleCelebrityProducts lists one star's active merch for their public
// page.
func (h *ProductHandler) HandleCelebrityProducts(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.catalog.ListProducts(r.Context(), catalog.ProductFilter{CelebritySlug: slug})
	if err != nil {
		h.logger.Error("failed to list celebrity products", "error", err, "celebrity_id", celebrity.ID)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

func (h *ProductHandler) HandleDigitalList(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListDigitalProducts(r.Context(), productFilter(r))
	if err != nil {
		h.logger.Error("failed to list digital products", "error", err)
		writeInternal(w)
		return
	}

	writeDataMeta(w, http.StatusOK, list, listMeta{Total: len(list)})
}

func (h *ProductHandler) HandleDigitalGet(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	product, err := h.catalog.DigitalProductBySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get digital product", "error", err, "slug", slug)
		writeInternal(w)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "digital product not found")
		return
	}

	writeData(w, http.StatusOK, product)
}
