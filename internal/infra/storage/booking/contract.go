package booking

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor
type TxExecutor = dbmetrics.TxExecutor

// TimeProvider источник текущего времени для created_at/updated_at/cancelled_at
type TimeProvider interface {
	Now() time.Time
}
