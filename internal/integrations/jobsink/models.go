package jobsink

import "time"

// Customer контакт клиента в заявке
type Customer struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// JobRequest заявка на выезд, отправляемая после подтверждения бронирования
type JobRequest struct {
	Reference    string    `json:"reference"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Customer     Customer  `json:"customer"`
	ServiceID    string    `json:"service_id"`
	TechnicianID string    `json:"technician_id,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	Location     *string   `json:"location,omitempty"`
	Status       string    `json:"status"`
}

// JobResponse подтверждение создания заявки
type JobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

// Job задача из листинга job sink. Время задается либо start_time/end_time,
// либо due_date + due_time (+ duration_minutes)
type Job struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	DueDate         string `json:"due_date"`
	DueTime         string `json:"due_time"`
	TechnicianID    string `json:"technician_id"`
	DurationMinutes int    `json:"duration_minutes"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
}

type jobsEnvelope struct {
	Jobs []Job `json:"jobs"`
}
