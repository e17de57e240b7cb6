package get_availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailability "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type fakeUseCase struct {
	got  *getAvailability.Request
	resp *getAvailability.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *getAvailability.Request) (*getAvailability.Response, error) {
	f.got = req
	return f.resp, f.err
}

func TestHandle_OK(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	day := time.Date(2026, 10, 20, 0, 0, 0, 0, paris)
	slotStart := time.Date(2026, 10, 20, 11, 0, 0, 0, paris)
	uc := &fakeUseCase{resp: &getAvailability.Response{
		Date:       day,
		ResourceID: domain.DefaultResourceID,
		Offering:   domain.ServiceOffering{ID: "basic-plumbing", DurationMinutes: 90},
		Slots: []getAvailability.Slot{
			{Start: slotStart, End: slotStart.Add(90 * time.Minute), Available: true},
			{Start: slotStart.Add(90 * time.Minute), End: slotStart.Add(180 * time.Minute), Reason: getAvailability.ReasonBooked},
		},
		BusinessHours: getAvailability.BusinessHours{Start: "08:00", End: "17:00", Timezone: "Europe/Paris"},
	}}

	h := NewHandler(uc, paris, logger.NewNop())
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/availability?date=2026-10-20&serviceOfferingId=basic-plumbing", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, uc.got)
	assert.Equal(t, paris, uc.got.Date.Location())
	assert.Equal(t, "basic-plumbing", uc.got.ServiceOfferingID)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-10-20", resp.Date)
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "2026-10-20T11:00:00+02:00", resp.Slots[0].Start)
	assert.True(t, resp.Slots[0].Available)
	assert.False(t, resp.Slots[1].Available)
	assert.Equal(t, "booked", resp.Slots[1].Reason)
	assert.Equal(t, "Europe/Paris", resp.BusinessHours.Timezone)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{name: "bad date", query: "date=20-10-2026&serviceOfferingId=x", status: http.StatusBadRequest},
		{name: "missing offering", query: "date=2026-10-20", status: http.StatusBadRequest},
		{name: "unknown offering", query: "date=2026-10-20&serviceOfferingId=x", err: getAvailability.ErrOfferingNotFound, status: http.StatusNotFound},
		{name: "internal", query: "date=2026-10-20&serviceOfferingId=x", err: fmt.Errorf("%w: boom", getAvailability.ErrInternal), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeUseCase{err: tt.err}, time.UTC, logger.NewNop())
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/availability?"+tt.query, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
