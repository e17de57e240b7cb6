package reconcile_sink

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/bookingfile"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type movingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// lostClaimRepo хранилище, в котором запись успевает захватить другой процесс
// между выборкой и захватом
type lostClaimRepo struct {
	*bookingfile.Store
	taken string
}

func (r lostClaimRepo) ClaimForward(ctx context.Context, id string, lease time.Duration) (bool, error) {
	if id == r.taken {
		return false, nil
	}
	return r.Store.ClaimForward(ctx, id, lease)
}

type fakeSink struct {
	mu      sync.Mutex
	failFor map[string]bool
	calls   int
}

func (s *fakeSink) SubmitJob(_ context.Context, record *domain.BookingRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failFor[record.ID] {
		return "", errors.New("jobsink client: service unavailable: status 503")
	}
	return "job-" + record.ID, nil
}

func (s *fakeSink) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *countingMetrics) IncSinkForward(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

var day = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *bookingfile.Store {
	t.Helper()
	store, err := bookingfile.Open(filepath.Join(t.TempDir(), "bookings.json"), fixedClock{now: day})
	require.NoError(t, err)
	return store
}

func seed(t *testing.T, store *bookingfile.Store, email string, hour int) *domain.BookingRecord {
	t.Helper()
	start := day.Add(time.Duration(hour) * time.Hour)
	r, err := store.Create(context.Background(), &domain.BookingRecord{
		ResourceID:        domain.DefaultResourceID,
		Date:              day,
		TimeOfDay:         types.NewTimeString(start),
		StartAt:           start,
		EndAt:             start.Add(time.Hour),
		ServiceOfferingID: "basic-plumbing",
		CustomerName:      "Name of " + email,
		CustomerEmail:     email,
	})
	require.NoError(t, err)
	return r
}

func TestExecute_ForwardsPendingAndFailed(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	pending := seed(t, store, "alice@example.com", 9)
	failed := seed(t, store, "bob@example.com", 11)
	require.NoError(t, store.MarkForwardFailed(ctx, failed.ID, "timeout"))
	done := seed(t, store, "carol@example.com", 13)
	require.NoError(t, store.MarkForwarded(ctx, done.ID, "job-existing"))
	cancelled := seed(t, store, "dave@example.com", 15)
	ok, err := store.Cancel(ctx, cancelled.ID, "dave@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	sink := &fakeSink{}
	metrics := &countingMetrics{outcomes: map[string]int{}}
	uc := NewUseCase(store, sink, nil, metrics, time.Second, logger.NewNop())

	result, err := uc.Execute(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.Forwarded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, metrics.outcomes[sinkOK])

	for _, id := range []string{pending.ID, failed.ID} {
		r, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.SinkForwarded, r.SinkStatus)
		require.NotNil(t, r.ExternalJobID)
		assert.Equal(t, "job-"+id, *r.ExternalJobID)
		assert.Nil(t, r.SinkError)
	}

	again, err := uc.Execute(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, again.Attempted)
}

func TestExecute_PartialFailure(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	good := seed(t, store, "alice@example.com", 9)
	bad := seed(t, store, "bob@example.com", 11)

	sink := &fakeSink{failFor: map[string]bool{bad.ID: true}}
	uc := NewUseCase(store, sink, nil, nil, time.Second, logger.NewNop())

	result, err := uc.Execute(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Forwarded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, bad.ID, result.Failures[0].BookingID)
	assert.Contains(t, result.Failures[0].Error, "503")

	r, err := store.GetByID(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SinkFailed, r.SinkStatus)
	assert.Equal(t, domain.StatusConfirmed, r.Status)

	r, err = store.GetByID(ctx, good.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SinkForwarded, r.SinkStatus)
}

func TestExecute_BatchLimit(t *testing.T) {
	store := newStore(t)
	for hour := 8; hour < 13; hour++ {
		seed(t, store, "customer@example.com", hour)
	}

	uc := NewUseCase(store, &fakeSink{}, nil, nil, time.Second, logger.NewNop())

	result, err := uc.Execute(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempted)

	_, err = uc.Execute(context.Background(), domain.MaxReconcileBatchSize+1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecute_SkipsRecordHeldByAnotherForward(t *testing.T) {
	ctx := context.Background()
	clock := &movingClock{now: day}
	store, err := bookingfile.Open(filepath.Join(t.TempDir(), "bookings.json"), clock)
	require.NoError(t, err)

	record := seed(t, store, "alice@example.com", 9)
	// Inline-передача из create_booking держит запись
	claimed, err := store.ClaimForward(ctx, record.ID, domain.ForwardLease(time.Second))
	require.NoError(t, err)
	require.True(t, claimed)

	sink := &fakeSink{}
	uc := NewUseCase(store, sink, nil, nil, time.Second, logger.NewNop())

	result, err := uc.Execute(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)
	assert.Zero(t, sink.Calls())

	// Попытка так и не завершилась: после lease запись снова доступна
	clock.Advance(domain.ForwardLease(time.Second) + time.Second)

	result, err = uc.Execute(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Forwarded)
	assert.Equal(t, 1, sink.Calls())

	r, err := store.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SinkForwarded, r.SinkStatus)
}

func TestExecute_LostClaimIsSkipped(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	taken := seed(t, store, "alice@example.com", 9)
	free := seed(t, store, "bob@example.com", 11)

	sink := &fakeSink{}
	uc := NewUseCase(lostClaimRepo{Store: store, taken: taken.ID}, sink, nil, nil, time.Second, logger.NewNop())

	result, err := uc.Execute(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Forwarded)
	assert.Equal(t, 1, sink.Calls())

	r, err := store.GetByID(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SinkForwarded, r.SinkStatus)
}

func TestExecute_NoSink(t *testing.T) {
	uc := NewUseCase(newStore(t), nil, nil, nil, time.Second, logger.NewNop())

	_, err := uc.Execute(context.Background(), 10)
	assert.ErrorIs(t, err, ErrSinkDisabled)
}

func TestWorker_RunsUntilCancelled(t *testing.T) {
	store := newStore(t)
	record := seed(t, store, "alice@example.com", 9)
	sink := &fakeSink{}

	uc := NewUseCase(store, sink, nil, nil, time.Second, logger.NewNop())
	worker := NewWorker(uc, 10*time.Millisecond, 10, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool {
		r, err := store.GetByID(context.Background(), record.ID)
		return err == nil && r.SinkStatus == domain.SinkForwarded
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 1, sink.Calls())
}
