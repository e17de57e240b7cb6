package get_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailability "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_availability"
)

const (
	msgInvalidDate       = "invalid date, expected YYYY-MM-DD"
	msgMissingOffering   = "serviceOfferingId is required"
	msgOfferingNotFound  = "service offering not found"
	msgInvalidParameters = "invalid request parameters"
)

type Handler struct {
	useCase  GetAvailabilityUseCase
	location *time.Location
	logger   Logger
}

// NewHandler location - часовой пояс бизнеса, в нем трактуется параметр date
func NewHandler(useCase GetAvailabilityUseCase, location *time.Location, logger Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		useCase:  useCase,
		location: location,
		logger:   logger,
	}
}

// Handle GET /api/v1/availability?date=YYYY-MM-DD&serviceOfferingId=&resourceId=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	date, err := time.ParseInLocation(domain.DateFormat, query.Get("date"), h.location)
	if err != nil {
		h.logger.Warn("GET /availability - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	offeringID := query.Get("serviceOfferingId")
	if offeringID == "" {
		h.logger.Warn("GET /availability - Missing serviceOfferingId")
		handlers.RespondBadRequest(w, msgMissingOffering)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailability.Request{
		Date:              date,
		ServiceOfferingID: offeringID,
		ResourceID:        query.Get("resourceId"),
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrOfferingNotFound):
			h.logger.Warn("GET /availability - Offering not found: %s", offeringID)
			handlers.RespondNotFound(w, msgOfferingNotFound)

		case errors.Is(err, getAvailability.ErrInvalidInput):
			h.logger.Warn("GET /availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParameters)

		default:
			h.logger.Error("GET /availability - Failed to get availability: date=%s, error=%v",
				date.Format(domain.DateFormat), err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability - %d slots for date=%s, offering=%s",
		len(result.Slots), date.Format(domain.DateFormat), offeringID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
