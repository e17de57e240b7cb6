package booking

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db, fixedClock{now: testNow}), mock
}

func newRecord() *domain.BookingRecord {
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	return &domain.BookingRecord{
		ResourceID:        "tech-1",
		Date:              time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		TimeOfDay:         types.MustTimeString("10:00"),
		StartAt:           start,
		EndAt:             start.Add(time.Hour),
		ServiceOfferingID: "basic-plumbing",
		CustomerName:      "Alice",
		CustomerEmail:     "Alice@Example.com",
		CustomerPhone:     ptr.Ptr("+33612345678"),
	}
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows(bookingColumns)
}

func addRow(rows *sqlmock.Rows, id, email string, start time.Time, status domain.BookingStatus) *sqlmock.Rows {
	return rows.AddRow(
		id,
		"tech-1",
		time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		start.Format("15:04:05"),
		start,
		start.Add(time.Hour),
		"basic-plumbing",
		"Alice",
		email,
		nil,
		"1 rue de Rivoli",
		nil,
		nil,
		string(domain.SinkPending),
		nil,
		string(status),
		nil,
		testNow,
		testNow,
	)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newRepo(t)

	args := make([]driver.Value, 14)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(testNow, testNow))

	input := newRecord()
	created, err := repo.Create(context.Background(), input)

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StatusConfirmed, created.Status)
	assert.Equal(t, domain.SinkPending, created.SinkStatus)
	assert.Equal(t, testNow, created.CreatedAt)
	assert.Empty(t, input.ID, "input record must not be mutated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_ConstraintViolations(t *testing.T) {
	tests := []struct {
		name    string
		pqErr   *pq.Error
		wantErr error
	}{
		{
			name:    "resource overlap",
			pqErr:   &pq.Error{Code: pqExclusionViolation, Constraint: constraintResourceOverlap},
			wantErr: ErrSlotNotAvailable,
		},
		{
			name:    "customer overlap",
			pqErr:   &pq.Error{Code: pqExclusionViolation, Constraint: constraintCustomerOverlap},
			wantErr: ErrDuplicateBooking,
		},
		{
			name:    "connection failure",
			pqErr:   &pq.Error{Code: "08006"},
			wantErr: ErrStoreUnavailable,
		},
		{
			name:    "other error",
			pqErr:   &pq.Error{Code: "22001"},
			wantErr: ErrExecQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)

			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).WillReturnError(tt.pqErr)

			created, err := repo.Create(context.Background(), newRecord())

			assert.Nil(t, created)
			assert.ErrorIs(t, err, tt.wantErr)

			var pqErr *pq.Error
			assert.ErrorAs(t, err, &pqErr, "driver error must stay in the chain")
		})
	}
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := newRepo(t)
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, resource_id")).
		WithArgs("b-1").
		WillReturnRows(addRow(bookingRows(), "b-1", "alice@example.com", start, domain.StatusConfirmed))

	record, err := repo.GetByID(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Equal(t, "b-1", record.ID)
	assert.Equal(t, "10:00", record.TimeOfDay.String())
	assert.True(t, record.StartAt.Equal(start))
	assert.Nil(t, record.CustomerPhone)
	require.NotNil(t, record.ServiceAddress)
	assert.Equal(t, "1 rue de Rivoli", *record.ServiceAddress)
	assert.Nil(t, record.CancelledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, resource_id")).
		WithArgs("missing").
		WillReturnRows(bookingRows())

	record, err := repo.GetByID(context.Background(), "missing")

	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestRepository_FindByResourceInRange(t *testing.T) {
	repo, mock := newRepo(t)
	from := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	rows := bookingRows()
	addRow(rows, "b-1", "alice@example.com", from.Add(10*time.Hour), domain.StatusConfirmed)
	addRow(rows, "b-2", "bob@example.com", from.Add(12*time.Hour), domain.StatusConfirmed)

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE .*resource_id = \$1.*status = \$2.*start_at < \$3.*end_at > \$4 ORDER BY start_at ASC`).
		WithArgs("tech-1", domain.StatusConfirmed, to, from).
		WillReturnRows(rows)

	records, err := repo.FindByResourceInRange(context.Background(), "tech-1", from, to)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b-1", records[0].ID)
	assert.Equal(t, "b-2", records[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByCustomerEmailAndDate_FoldsCase(t *testing.T) {
	repo, mock := newRepo(t)
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	tod := types.MustTimeString("10:00")

	mock.ExpectQuery(`lower\(customer_email\) = \$1`).
		WithArgs("alice@example.com", "2026-10-20", domain.StatusConfirmed, "10:00").
		WillReturnRows(addRow(bookingRows(), "b-1", "ALICE@example.com", date.Add(10*time.Hour), domain.StatusConfirmed))

	records, err := repo.FindByCustomerEmailAndDate(context.Background(), " Alice@Example.COM ", date, &tod)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Cancel(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "owner cancels", affected: 1, want: true},
		{name: "not owner or already cancelled", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1, cancelled_at = $2, updated_at = $3")).
				WithArgs(domain.StatusCancelled, testNow, testNow, "b-1", domain.StatusConfirmed, "alice@example.com").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.Cancel(context.Background(), "b-1", "ALICE@example.com")

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_MarkForwarded(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET sink_status = $1, external_job_id = $2, sink_error = $3, updated_at = $4 WHERE id = $5")).
		WithArgs(domain.SinkForwarded, "job-42", nil, testNow, "b-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkForwarded(context.Background(), "b-1", "job-42"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkForwardFailed_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET sink_status = $1, sink_error = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkForwardFailed(context.Background(), "missing", "timeout")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestRepository_FindPendingForward(t *testing.T) {
	repo, mock := newRepo(t)
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	lease := 20 * time.Second

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND (sink_status IN ($2,$3) OR (sink_status = $4 AND updated_at < $5)) ORDER BY created_at ASC LIMIT 50")).
		WithArgs(domain.StatusConfirmed, "pending", "failed", domain.SinkForwarding, testNow.Add(-lease)).
		WillReturnRows(addRow(bookingRows(), "b-1", "alice@example.com", start, domain.StatusConfirmed))

	records, err := repo.FindPendingForward(context.Background(), lease, 50)

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ClaimForward(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "claimed", affected: 1, want: true},
		{name: "held by another forward", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			lease := 20 * time.Second

			mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET sink_status = $1, updated_at = $2 WHERE id = $3 AND status = $4 AND (sink_status IN ($5,$6) OR (sink_status = $7 AND updated_at < $8))")).
				WithArgs(domain.SinkForwarding, testNow, "b-1", domain.StatusConfirmed, "pending", "failed", domain.SinkForwarding, testNow.Add(-lease)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.ClaimForward(context.Background(), "b-1", lease)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
