package conflicts

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// Result ответ ConflictDetector
type Result struct {
	IsBooked          bool
	ConflictingRecord *domain.BookingRecord
}

// DuplicateResult ответ DuplicateGuard
type DuplicateResult struct {
	IsDuplicate       bool
	ConflictingRecord *domain.BookingRecord
}
