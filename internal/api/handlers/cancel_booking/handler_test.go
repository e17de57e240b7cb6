package cancel_booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type fakeService struct {
	gotID, gotEmail string
	err             error
}

func (f *fakeService) Cancel(_ context.Context, id string, email string) error {
	f.gotID, f.gotEmail = id, email
	return f.err
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		err    error
		status int
	}{
		{name: "cancelled", email: "alice@example.com", status: http.StatusOK},
		{name: "no identity", email: "", status: http.StatusUnauthorized},
		{name: "not found", email: "alice@example.com", err: bookings.ErrBookingNotFound, status: http.StatusNotFound},
		{name: "someone else's", email: "bob@example.com", err: bookings.ErrAccessDenied, status: http.StatusForbidden},
		{name: "already cancelled", email: "alice@example.com", err: bookings.ErrCannotCancel, status: http.StatusConflict},
		{name: "store error", email: "alice@example.com", err: bookings.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			r := mux.NewRouter()
			protected := r.PathPrefix("/api/v1").Subrouter()
			protected.Use(middleware.Auth)
			protected.HandleFunc("/bookings/{bookingId}/cancel", NewHandler(svc, logger.NewNop()).Handle).Methods(http.MethodPatch)

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/b-7/cancel", nil)
			if tt.email != "" {
				req.Header.Set(middleware.CustomerEmailHeader, tt.email)
			}
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.email != "" {
				assert.Equal(t, "b-7", svc.gotID)
				assert.Equal(t, tt.email, svc.gotEmail)
			}
		})
	}
}
