package lookup_customer_bookings

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
	msgMissingCustomer = "missing customer identity"
	msgInvalidDate     = "invalid date, expected YYYY-MM-DD"
	msgInvalidTime     = "invalid time, expected HH:MM"
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

// Handle GET /api/v1/customers/me/bookings/lookup?date=YYYY-MM-DD&time=HH:MM
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetCustomerEmail(r.Context())
	if !ok {
		h.logger.Warn("GET /customers/me/bookings/lookup - Missing customer email")
		handlers.RespondUnauthorized(w, msgMissingCustomer)
		return
	}

	query := r.URL.Query()
	date, err := time.ParseInLocation(domain.DateFormat, query.Get("date"), h.location)
	if err != nil {
		h.logger.Warn("GET /customers/me/bookings/lookup - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	req := &models.FindCustomerBookingsRequest{CustomerEmail: email, Date: date}
	if t := query.Get("time"); t != "" {
		req.Time = &t
	}

	list, err := h.service.FindCustomerBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /customers/me/bookings/lookup - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidTime)

		default:
			h.logger.Error("GET /customers/me/bookings/lookup - Failed: customer=%s, error=%v", email, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /customers/me/bookings/lookup - %d matches for customer=%s on %s",
		len(list.Bookings), email, date.Format(domain.DateFormat))
	handlers.RespondJSON(w, http.StatusOK, list)
}
