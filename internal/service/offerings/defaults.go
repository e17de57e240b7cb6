package offerings

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

// Defaults каталог, который используется, если в конфиге нет [[offerings]]
func Defaults() []domain.ServiceOffering {
	return []domain.ServiceOffering{
		{
			ID:                   "basic-plumbing",
			Title:                "Basic Plumbing Service",
			Description:          "Standard plumbing repair and maintenance",
			DurationMinutes:      60,
			MinimumNoticeMinutes: 120,
			Price:                ptr.Ptr(100.0),
			Currency:             ptr.Ptr("USD"),
		},
		{
			ID:                   "emergency-plumbing",
			Title:                "Emergency Plumbing",
			Description:          "Urgent plumbing issues requiring immediate attention",
			DurationMinutes:      120,
			MinimumNoticeMinutes: 30,
			Price:                ptr.Ptr(200.0),
			Currency:             ptr.Ptr("USD"),
		},
	}
}
