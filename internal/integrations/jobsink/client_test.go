package jobsink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

func newClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:  srv.URL + "/",
		Token:    "secret",
		Timeout:  timeout,
		Location: time.UTC,
	}, logger.NewNop())
}

func testRecord() *domain.BookingRecord {
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	return &domain.BookingRecord{
		ID:                "b-1",
		ResourceID:        "tech-1",
		StartAt:           start,
		EndAt:             start.Add(time.Hour),
		ServiceOfferingID: "basic-plumbing",
		CustomerName:      "Alice",
		CustomerEmail:     "alice@example.com",
		ServiceAddress:    ptr.Ptr("1 rue de Rivoli"),
	}
}

func TestClient_SubmitJob(t *testing.T) {
	var got JobRequest
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bookings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"job-42","status":"confirmed"}`))
	}, time.Second)

	id, err := c.SubmitJob(context.Background(), testRecord())

	require.NoError(t, err)
	assert.Equal(t, "job-42", id)
	assert.Equal(t, "b-1", got.Reference)
	assert.Equal(t, "alice@example.com", got.Customer.Email)
	assert.Equal(t, "tech-1", got.TechnicianID)
	require.NotNil(t, got.Location)
	assert.Equal(t, "1 rue de Rivoli", *got.Location)
}

func TestClient_SubmitJob_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", wantErr: ErrUnavailable},
		{name: "rejected", status: http.StatusUnprocessableEntity, body: `{"message":"bad slot"}`, wantErr: ErrRejected},
		{name: "no id", status: http.StatusOK, body: `{}`, wantErr: ErrInvalidResponse},
		{name: "garbage", status: http.StatusOK, body: `not json`, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			_, err := c.SubmitJob(context.Background(), testRecord())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_SubmitJob_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := c.SubmitJob(context.Background(), testRecord())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_ListBusy(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs.json", r.URL.Path)
		assert.Equal(t, "20/10/2026", r.URL.Query().Get("filter[due_date_range]"))
		assert.Equal(t, "tech-1", r.URL.Query().Get("filter[technician_id]"))

		_, _ = w.Write([]byte(`{"jobs":[
			{"id":"1","start_time":"2026-10-20T09:00:00Z","end_time":"2026-10-20T10:30:00Z","technician_id":"tech-1"},
			{"id":"2","due_date":"2026-10-20","due_time":"13:00:00","duration_minutes":60},
			{"id":"3","due_date":"2026-10-20","due_time":"15:00"},
			{"id":"4","due_date":"2026-10-20","due_time":"08:00","technician_id":"tech-2"},
			{"id":"5","status":"waiting"}
		]}`))
	}, time.Second)

	busy, err := c.ListBusy(context.Background(), time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), "tech-1")
	require.NoError(t, err)
	require.Len(t, busy, 3)

	assert.Equal(t, time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC), busy[0].Start.UTC())
	assert.Equal(t, time.Date(2026, 10, 20, 10, 30, 0, 0, time.UTC), busy[0].End.UTC())
	assert.Equal(t, time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC), busy[1].End)
	assert.Equal(t, 120, busy[2].DurationMinutes(), "default job duration")
}

func TestClient_ListBusy_ArrayPayloadDefaultResource(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("filter[technician_id]"))
		_, _ = w.Write([]byte(`[{"id":"1","due_date":"20/10/2026","due_time":"10:00","technician_id":"anyone"}]`))
	}, time.Second)

	busy, err := c.ListBusy(context.Background(), time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), domain.DefaultResourceID)
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, domain.DefaultResourceID, busy[0].ResourceID)
}
