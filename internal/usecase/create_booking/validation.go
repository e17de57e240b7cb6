package create_booking

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"

	"github.com/m04kA/SMC-AppointmentService/internal/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest проверяет поля запроса, не зависящие от услуги и времени
func validateRequest(req *Request) *RejectionError {
	if req == nil {
		return validationError("Request is empty")
	}

	email := strings.TrimSpace(req.Customer.Email)
	if email == "" {
		return validationError("Customer email is required")
	}
	if len(email) > domain.MaxEmailLength {
		return validationError("Customer email is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationError("Customer email is invalid")
	}

	name := strings.TrimSpace(req.Customer.Name)
	if name == "" {
		return validationError("Customer name is required")
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		return validationError(fmt.Sprintf("Customer name must be at most %d characters", domain.MaxNameLength))
	}

	if req.ServiceOfferingID == "" {
		return validationError("Service offering is required")
	}

	if req.Start.IsZero() {
		return validationError("Start time is required")
	}

	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return validationError(fmt.Sprintf("Notes must be at most %d characters", domain.MaxNotesLength))
	}

	if req.ServiceAddress != nil && utf8.RuneCountInString(*req.ServiceAddress) > domain.MaxAddressLength {
		return validationError(fmt.Sprintf("Address must be at most %d characters", domain.MaxAddressLength))
	}

	return nil
}

// normalizePhone приводит телефон к E.164. Пустой телефон допустим
func normalizePhone(phone *string) (*string, *RejectionError) {
	if phone == nil || strings.TrimSpace(*phone) == "" {
		return nil, nil
	}

	parsed, err := phonenumbers.Parse(strings.TrimSpace(*phone), domain.DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return nil, validationError("Customer phone is invalid")
	}

	formatted := phonenumbers.Format(parsed, phonenumbers.E164)
	return &formatted, nil
}

// validateSlot проверяет интервал относительно услуги и рабочего времени
func validateSlot(cal SlotCalendar, req *Request, offering *domain.ServiceOffering, slot domain.TimeSlot) *RejectionError {
	if req.End != nil && !req.End.Equal(slot.End) {
		return validationError(fmt.Sprintf("End time must be %d minutes after start", offering.DurationMinutes))
	}

	err := cal.ValidateStart(slot, offering)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, calendar.ErrNotInFuture):
		return validationError("Start time must be in the future")
	case errors.Is(err, calendar.ErrMinimumNotice):
		return validationError(fmt.Sprintf("This service must be booked at least %d minutes in advance", offering.MinimumNoticeMinutes))
	case errors.Is(err, calendar.ErrNonWorkingDay):
		return validationError("Bookings are not available on this day")
	case errors.Is(err, calendar.ErrOutsideBusinessHours):
		hours := cal.Hours()
		return validationError(fmt.Sprintf("Bookings must fit between %s and %s", hours.Start, hours.End))
	default:
		return validationError(err.Error())
	}
}
