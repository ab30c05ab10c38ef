package transport

import (
	"net/http"

	"inventory-api/internal/middleware"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// InsightHandler serves the read-only catalog aggregates
type InsightHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(catalog service.CatalogService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers the aggregate routes
func (h *InsightHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/manufacturers", h.distinct(service.FieldManufacturer))
	r.Get("/api/models", h.distinct(service.FieldModel))
	r.Get("/api/types", h.distinct(service.FieldType))
	r.Get("/api/colors", h.distinct(service.FieldColor))
	r.Get("/api/summary", h.Summary)
	r.Get("/api/chart", h.Chart)
}

func (h *InsightHandler) distinct(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := h.catalog.DistinctValues(r.Context(), field)
		if err != nil {
			middleware.RespondWithAppError(w, r, h.logger, err)
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, values)
	}
}

// Summary returns catalog-wide totals
func (h *InsightHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.catalog.Summary(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// Chart aggregates products along the dimension named by the type parameter
func (h *InsightHandler) Chart(w http.ResponseWriter, r *http.Request) {
	points, err := h.catalog.Aggregate(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, points)
}
