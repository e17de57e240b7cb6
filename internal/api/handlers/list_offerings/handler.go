package list_offerings

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// OfferingResponse HTTP response model
type OfferingResponse struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Description          string   `json:"description,omitempty"`
	DurationMinutes      int      `json:"durationMinutes"`
	MinimumNoticeMinutes int      `json:"minimumNoticeMinutes"`
	Price                *float64 `json:"price,omitempty"`
	Currency             *string  `json:"currency,omitempty"`
}

// OfferingListResponse список услуг
type OfferingListResponse struct {
	Offerings []OfferingResponse `json:"offerings"`
}

type Handler struct {
	catalog OfferingCatalog
	logger  Logger
}

func NewHandler(catalog OfferingCatalog, logger Logger) *Handler {
	return &Handler{
		catalog: catalog,
		logger:  logger,
	}
}

// Handle GET /api/v1/offerings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	items := h.catalog.List()

	resp := OfferingListResponse{Offerings: make([]OfferingResponse, 0, len(items))}
	for _, o := range items {
		resp.Offerings = append(resp.Offerings, fromDomain(o))
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

func fromDomain(o domain.ServiceOffering) OfferingResponse {
	return OfferingResponse{
		ID:                   o.ID,
		Title:                o.Title,
		Description:          o.Description,
		DurationMinutes:      o.DurationMinutes,
		MinimumNoticeMinutes: o.MinimumNoticeMinutes,
		Price:                o.Price,
		Currency:             o.Currency,
	}
}
