package transport

import (
	"net/http"
	"strconv"

	"inventory-api/internal/domain"
	"inventory-api/internal/middleware"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public routes
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List returns one page of the catalog. A missing or malformed page
// parameter selects the first page.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	result, err := h.catalog.List(r.Context(), page, r.URL.Query().Get("q"))
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Get returns a full product record
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create stores a product owned by the caller
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.ProductInput
	if err := middleware.DecodeJSON(r, &in); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	product, err := h.catalog.Create(r.Context(), middleware.IdentityFrom(r.Context()), in)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update applies a partial update. Fields outside the allow-list, such as id
// and ownerId, are ignored.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.ProductInput
	if err := middleware.DecodeJSON(r, &in); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	product, err := h.catalog.Update(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, struct{}{})
}
