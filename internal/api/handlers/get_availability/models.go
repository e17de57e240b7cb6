package get_availability

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailability "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_availability"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date              string                `json:"date"`
	ResourceID        string                `json:"resourceId"`
	ServiceOfferingID string                `json:"serviceOfferingId"`
	DurationMinutes   int                   `json:"durationMinutes"`
	Slots             []SlotResponse        `json:"slots"`
	BusinessHours     BusinessHoursResponse `json:"businessHours"`
	ExternalChecked   bool                  `json:"externalChecked"`
}

// SlotResponse слот сетки
type SlotResponse struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// BusinessHoursResponse рабочие часы
type BusinessHoursResponse struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	out := &AvailabilityResponse{
		Date:              resp.Date.Format(domain.DateFormat),
		ResourceID:        resp.ResourceID,
		ServiceOfferingID: resp.Offering.ID,
		DurationMinutes:   resp.Offering.DurationMinutes,
		Slots:             make([]SlotResponse, 0, len(resp.Slots)),
		BusinessHours: BusinessHoursResponse{
			Start:    resp.BusinessHours.Start,
			End:      resp.BusinessHours.End,
			Timezone: resp.BusinessHours.Timezone,
		},
		ExternalChecked: resp.ExternalChecked,
	}

	for _, s := range resp.Slots {
		out.Slots = append(out.Slots, SlotResponse{
			Start:     s.Start.Format(time.RFC3339),
			End:       s.End.Format(time.RFC3339),
			Available: s.Available,
			Reason:    s.Reason,
		})
	}

	return out
}
