package get_availability

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Причины недоступности слота
const (
	ReasonBooked   = "booked"
	ReasonExternal = "external"
)

// Request модель запроса доступности
type Request struct {
	Date              time.Time // Календарный день в часовом поясе бизнеса
	ServiceOfferingID string
	ResourceID        string // Пустой - ресурс по умолчанию
}

// Response модель ответа со слотами дня
type Response struct {
	Date            time.Time
	ResourceID      string
	Offering        domain.ServiceOffering
	Slots           []Slot
	BusinessHours   BusinessHours
	ExternalChecked bool // false - внешний источник не настроен или недоступен
}

// Slot слот с флагом доступности
type Slot struct {
	Start     time.Time
	End       time.Time
	Available bool
	Reason    string
}

// BusinessHours рабочие часы для контракта доступности
type BusinessHours struct {
	Start    string
	End      string
	Timezone string
}
