package create_booking

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на создание бронирования
type Request struct {
	Customer          domain.CustomerIdentity
	ServiceOfferingID string
	Start             time.Time
	End               *time.Time // Если указан, должен совпадать со Start + длительность услуги
	ResourceID        string     // Пустой - ресурс по умолчанию
	ServiceAddress    *string
	Notes             *string
}

// Response модель ответа с созданным бронированием.
// SinkForwarded=false при сохраненной записи - частичный успех, заявку догонит reconcile
type Response struct {
	Record        *domain.BookingRecord
	Offering      domain.ServiceOffering
	ExternalJobID *string
	SinkForwarded bool
	SinkError     *string
}
