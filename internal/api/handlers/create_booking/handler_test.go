package create_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fakeUseCase struct {
	got  *createBooking.Request
	resp *createBooking.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	f.got = req
	return f.resp, f.err
}

var start = time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

func record() *domain.BookingRecord {
	return &domain.BookingRecord{
		ID:                "b-1",
		ResourceID:        domain.DefaultResourceID,
		Date:              time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		TimeOfDay:         types.MustTimeString("10:00"),
		StartAt:           start,
		EndAt:             start.Add(time.Hour),
		ServiceOfferingID: "basic-plumbing",
		CustomerName:      "Alice",
		CustomerEmail:     "alice@example.com",
		Status:            domain.StatusConfirmed,
		SinkStatus:        domain.SinkForwarded,
	}
}

const validBody = `{
	"customerEmail": "alice@example.com",
	"customerName": "Alice",
	"serviceOfferingId": "basic-plumbing",
	"start": "2026-10-20T10:00:00Z",
	"end": "2026-10-20T11:00:00Z",
	"address": "1 rue de Rivoli"
}`

func do(t *testing.T, uc *fakeUseCase, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	h := NewHandler(uc, logger.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Handle(rec, req)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestHandle_Created(t *testing.T) {
	jobID := "job-42"
	uc := &fakeUseCase{resp: &createBooking.Response{
		Record:        record(),
		Offering:      domain.ServiceOffering{ID: "basic-plumbing", Title: "Basic plumbing"},
		ExternalJobID: &jobID,
		SinkForwarded: true,
	}}

	rec, payload := do(t, uc, validBody)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "SUCCESS", payload["status"])
	assert.Equal(t, "b-1", payload["id"])
	assert.Equal(t, "job-42", payload["externalJobId"])
	assert.Equal(t, true, payload["sinkForwarded"])

	booking, ok := payload["booking"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "confirmed", booking["status"])
	assert.Equal(t, "10:00", booking["time"])

	require.NotNil(t, uc.got)
	assert.Equal(t, "alice@example.com", uc.got.Customer.Email)
	assert.True(t, uc.got.Start.Equal(start))
	require.NotNil(t, uc.got.End)
	assert.True(t, uc.got.End.Equal(start.Add(time.Hour)))
	require.NotNil(t, uc.got.ServiceAddress)
	assert.Equal(t, "1 rue de Rivoli", *uc.got.ServiceAddress)
}

func TestHandle_DegradedSinkStillCreated(t *testing.T) {
	reason := "job sink timeout"
	uc := &fakeUseCase{resp: &createBooking.Response{Record: record(), SinkError: &reason}}

	rec, payload := do(t, uc, validBody)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, false, payload["sinkForwarded"])
	assert.Equal(t, reason, payload["sinkError"])
	assert.NotContains(t, payload, "externalJobId")
}

func TestHandle_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed json", body: `{"customerEmail":`, code: "BAD_REQUEST"},
		{name: "unknown field", body: `{"userId": 1}`, code: "BAD_REQUEST"},
		{name: "bad start", body: `{"customerEmail":"a@b.c","start":"tomorrow"}`, code: createBooking.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUseCase{}
			rec, payload := do(t, uc, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "ERROR", payload["status"])
			assert.Equal(t, tt.code, payload["code"])
			assert.Nil(t, uc.got)
		})
	}
}

func TestHandle_Rejections(t *testing.T) {
	own := record()
	other := &domain.BookingRecord{
		ResourceID:   domain.DefaultResourceID,
		Date:         own.Date,
		TimeOfDay:    own.TimeOfDay,
		StartAt:      own.StartAt,
		EndAt:        own.EndAt,
		CustomerName: "Bob",
	}

	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		checkBody func(t *testing.T, conflict map[string]interface{})
	}{
		{
			name:   "slot unavailable shows owner name only",
			err:    &createBooking.RejectionError{Code: createBooking.CodeSlotUnavailable, Message: "taken", ConflictingRecord: other},
			status: http.StatusConflict,
			code:   createBooking.CodeSlotUnavailable,
			checkBody: func(t *testing.T, conflict map[string]interface{}) {
				assert.Equal(t, "Bob", conflict["customerName"])
				assert.NotContains(t, conflict, "customerEmail")
				assert.NotContains(t, conflict, "id")
			},
		},
		{
			name:   "duplicate shows own record",
			err:    &createBooking.RejectionError{Code: createBooking.CodeDuplicateBooking, Message: "dup", ConflictingRecord: own},
			status: http.StatusConflict,
			code:   createBooking.CodeDuplicateBooking,
			checkBody: func(t *testing.T, conflict map[string]interface{}) {
				assert.Equal(t, "b-1", conflict["id"])
				assert.Equal(t, "alice@example.com", conflict["customerEmail"])
			},
		},
		{
			name:   "validation",
			err:    &createBooking.RejectionError{Code: createBooking.CodeValidation, Message: "Start time must be in the future"},
			status: http.StatusBadRequest,
			code:   createBooking.CodeValidation,
		},
		{
			name:   "store unavailable",
			err:    fmt.Errorf("%w: connection refused", createBooking.ErrStoreUnavailable),
			status: http.StatusServiceUnavailable,
			code:   "SERVICE_UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, payload := do(t, &fakeUseCase{err: tt.err}, validBody)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "ERROR", payload["status"])
			assert.Equal(t, tt.code, payload["code"])

			if tt.checkBody == nil {
				assert.NotContains(t, payload, "conflictingRecord")
				return
			}
			conflict, ok := payload["conflictingRecord"].(map[string]interface{})
			require.True(t, ok)
			tt.checkBody(t, conflict)
		})
	}
}
