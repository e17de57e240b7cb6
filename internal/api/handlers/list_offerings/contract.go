package list_offerings

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

type OfferingCatalog interface {
	List() []domain.ServiceOffering
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
