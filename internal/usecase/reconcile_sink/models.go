package reconcile_sink

// Result итог одного прохода
type Result struct {
	Attempted int       `json:"attempted"`
	Forwarded int       `json:"forwarded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"` // запись уже передает другой процесс
	Failures  []Failure `json:"failures,omitempty"`
}

// Failure бронирование, которое снова не удалось передать
type Failure struct {
	BookingID string `json:"bookingId"`
	Error     string `json:"error"`
}
