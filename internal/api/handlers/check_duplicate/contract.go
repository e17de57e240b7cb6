package check_duplicate

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

type BookingService interface {
	CheckDuplicate(ctx context.Context, email string, start, end time.Time) (*models.DuplicateCheckResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
