package check_slot

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

const (
	msgInvalidDate      = "invalid date, expected YYYY-MM-DD"
	msgInvalidTime      = "invalid time, expected HH:MM"
	msgOfferingNotFound = "service offering not found"
)

type Handler struct {
	service  BookingService
	location *time.Location
	logger   Logger
}

func NewHandler(service BookingService, location *time.Location, logger Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		service:  service,
		location: location,
		logger:   logger,
	}
}

// Handle GET /api/v1/bookings/check-slot?date=&time=&serviceOfferingId=&resourceId=
// Идентификация клиента необязательна (OptionalAuth)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	date, err := time.ParseInLocation(domain.DateFormat, query.Get("date"), h.location)
	if err != nil {
		h.logger.Warn("GET /bookings/check-slot - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	email, _ := middleware.GetCustomerEmail(r.Context())

	status, err := h.service.CheckSlot(r.Context(), &models.CheckSlotRequest{
		Date:              date,
		Time:              query.Get("time"),
		ServiceOfferingID: query.Get("serviceOfferingId"),
		ResourceID:        query.Get("resourceId"),
		CustomerEmail:     email,
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /bookings/check-slot - Invalid time: %v", err)
			handlers.RespondBadRequest(w, msgInvalidTime)

		case errors.Is(err, bookings.ErrOfferingNotFound):
			h.logger.Warn("GET /bookings/check-slot - Offering not found: %s", query.Get("serviceOfferingId"))
			handlers.RespondNotFound(w, msgOfferingNotFound)

		default:
			h.logger.Error("GET /bookings/check-slot - Failed to check slot: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, status)
}
