package booking

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const (
	tableBookings = "bookings"

	// Имена EXCLUDE-ограничений из migrations/001_init.up.sql
	constraintResourceOverlap = "bookings_no_resource_overlap"
	constraintCustomerOverlap = "bookings_no_customer_overlap"

	pqExclusionViolation = "23P01"
	pqUniqueViolation    = "23505"
	pqConnectionClass    = "08"
)

var bookingColumns = []string{
	"id",
	"resource_id",
	"booking_date",
	"time_of_day",
	"start_at",
	"end_at",
	"service_offering_id",
	"customer_name",
	"customer_email",
	"customer_phone",
	"service_address",
	"notes",
	"external_job_id",
	"sink_status",
	"sink_error",
	"status",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository PostgreSQL-хранилище бронирований
// Пересечения интервалов (по ресурсу и по email клиента) запрещены EXCLUDE-ограничениями,
// поэтому проверка и вставка не могут разойтись даже при параллельных запросах
type Repository struct {
	db    DBExecutor
	clock TimeProvider
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor, clock TimeProvider) *Repository {
	return &Repository{db: db, clock: clock}
}

// Create сохраняет новое подтвержденное бронирование
// Если в контексте передана активная транзакция, использует её.
// Нарушение ограничения по ресурсу возвращает ErrSlotNotAvailable, по клиенту - ErrDuplicateBooking
func (r *Repository) Create(ctx context.Context, record *domain.BookingRecord) (*domain.BookingRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	created := record.Clone()
	created.ID = uuid.NewString()
	created.Status = domain.StatusConfirmed
	created.SinkStatus = domain.SinkPending
	created.SinkError = nil
	created.CancelledAt = nil

	query, args, err := psqlbuilder.Insert(tableBookings).
		Columns(
			"id",
			"resource_id",
			"booking_date",
			"time_of_day",
			"start_at",
			"end_at",
			"service_offering_id",
			"customer_name",
			"customer_email",
			"customer_phone",
			"service_address",
			"notes",
			"sink_status",
			"status",
		).
		Values(
			created.ID,
			created.ResourceID,
			created.Date.Format(domain.DateFormat),
			created.TimeOfDay,
			created.StartAt,
			created.EndAt,
			created.ServiceOfferingID,
			created.CustomerName,
			created.CustomerEmail,
			created.CustomerPhone,
			created.ServiceAddress,
			created.Notes,
			created.SinkStatus,
			created.Status,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, classify(err, "Create - execute insert")
	}

	return created, nil
}

// GetByID получает бронирование по ID (в любом статусе)
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.BookingRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	record, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, classifyScan(err, "GetByID - scan booking")
	}

	return record, nil
}

// FindByResourceAndDate возвращает подтвержденные бронирования ресурса на календарный день
func (r *Repository) FindByResourceAndDate(ctx context.Context, resourceID string, date time.Time) ([]*domain.BookingRecord, error) {
	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Eq{
			"resource_id":  resourceID,
			"booking_date": date.Format(domain.DateFormat),
			"status":       domain.StatusConfirmed,
		}).
		OrderBy("start_at ASC")

	return r.query(ctx, builder, "FindByResourceAndDate")
}

// FindByResourceInRange возвращает подтвержденные бронирования ресурса, пересекающие [from, to)
func (r *Repository) FindByResourceInRange(ctx context.Context, resourceID string, from, to time.Time) ([]*domain.BookingRecord, error) {
	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Eq{"resource_id": resourceID, "status": domain.StatusConfirmed}).
		Where(squirrel.Lt{"start_at": to}).
		Where(squirrel.Gt{"end_at": from}).
		OrderBy("start_at ASC")

	return r.query(ctx, builder, "FindByResourceInRange")
}

// FindByCustomerEmailAndDate возвращает подтвержденные бронирования клиента на день
// timeOfDay != nil дополнительно фильтрует по точному времени начала
func (r *Repository) FindByCustomerEmailAndDate(
	ctx context.Context,
	email string,
	date time.Time,
	timeOfDay *types.TimeString,
) ([]*domain.BookingRecord, error) {
	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Expr("lower(customer_email) = ?", domain.NormalizeEmail(email))).
		Where(squirrel.Eq{
			"booking_date": date.Format(domain.DateFormat),
			"status":       domain.StatusConfirmed,
		}).
		OrderBy("start_at ASC")

	if timeOfDay != nil {
		builder = builder.Where(squirrel.Eq{"time_of_day": *timeOfDay})
	}

	return r.query(ctx, builder, "FindByCustomerEmailAndDate")
}

// FindByCustomerEmailInRange возвращает подтвержденные бронирования клиента, пересекающие [from, to)
func (r *Repository) FindByCustomerEmailInRange(ctx context.Context, email string, from, to time.Time) ([]*domain.BookingRecord, error) {
	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Expr("lower(customer_email) = ?", domain.NormalizeEmail(email))).
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		Where(squirrel.Lt{"start_at": to}).
		Where(squirrel.Gt{"end_at": from}).
		OrderBy("start_at ASC")

	return r.query(ctx, builder, "FindByCustomerEmailInRange")
}

// FindByCustomerEmail возвращает всю историю клиента, включая отмененные
func (r *Repository) FindByCustomerEmail(ctx context.Context, email string) ([]*domain.BookingRecord, error) {
	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Expr("lower(customer_email) = ?", domain.NormalizeEmail(email))).
		OrderBy("start_at ASC")

	return r.query(ctx, builder, "FindByCustomerEmail")
}

// FindPendingForward возвращает подтвержденные бронирования, еще не переданные в job sink.
// Записи, захваченные для передачи менее lease назад, пропускаются
func (r *Repository) FindPendingForward(ctx context.Context, lease time.Duration, limit int) ([]*domain.BookingRecord, error) {
	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		Where(claimableSink(r.clock.Now().Add(-lease))).
		OrderBy("created_at ASC").
		Limit(uint64(limit))

	return r.query(ctx, builder, "FindPendingForward")
}

// ClaimForward условным UPDATE переводит запись в forwarding.
// Из конкурирующих вызовов строку обновит только один, остальные получат false
func (r *Repository) ClaimForward(ctx context.Context, id string, lease time.Duration) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	now := r.clock.Now()

	query, args, err := psqlbuilder.Update(tableBookings).
		Set("sink_status", domain.SinkForwarding).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": domain.StatusConfirmed}).
		Where(claimableSink(now.Add(-lease))).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: ClaimForward - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, classify(err, "ClaimForward - execute update")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: ClaimForward - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

// claimableSink условие "не передано и не захвачено после staleBefore"
func claimableSink(staleBefore time.Time) squirrel.Or {
	return squirrel.Or{
		squirrel.Eq{"sink_status": []string{string(domain.SinkPending), string(domain.SinkFailed)}},
		squirrel.And{
			squirrel.Eq{"sink_status": domain.SinkForwarding},
			squirrel.Lt{"updated_at": staleBefore},
		},
	}
}

// Cancel переводит бронирование в cancelled, только если запрос пришел от владельца
// Возвращает false, если записи нет, она чужая или уже отменена
func (r *Repository) Cancel(ctx context.Context, id string, requestingEmail string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	now := r.clock.Now()

	query, args, err := psqlbuilder.Update(tableBookings).
		Set("status", domain.StatusCancelled).
		Set("cancelled_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": domain.StatusConfirmed}).
		Where(squirrel.Expr("lower(customer_email) = ?", domain.NormalizeEmail(requestingEmail))).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, classify(err, "Cancel - execute update")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Cancel - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

// MarkForwarded фиксирует успешную передачу в job sink
func (r *Repository) MarkForwarded(ctx context.Context, id string, externalJobID string) error {
	return r.updateSink(ctx, "MarkForwarded", id, psqlbuilder.Update(tableBookings).
		Set("sink_status", domain.SinkForwarded).
		Set("external_job_id", externalJobID).
		Set("sink_error", nil))
}

// MarkForwardFailed фиксирует неудачную передачу в job sink
func (r *Repository) MarkForwardFailed(ctx context.Context, id string, reason string) error {
	return r.updateSink(ctx, "MarkForwardFailed", id, psqlbuilder.Update(tableBookings).
		Set("sink_status", domain.SinkFailed).
		Set("sink_error", reason))
}

func (r *Repository) updateSink(ctx context.Context, op string, id string, builder squirrel.UpdateBuilder) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.
		Set("updated_at", r.clock.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err, op+" - execute update")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

func (r *Repository) query(ctx context.Context, builder squirrel.SelectBuilder, op string) ([]*domain.BookingRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, op+" - execute query")
	}
	defer rows.Close()

	records := make([]*domain.BookingRecord, 0)
	for rows.Next() {
		record, err := scanBooking(rows)
		if err != nil {
			return nil, classifyScan(err, op+" - scan row")
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %w", ErrScanRow, op, err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.BookingRecord, error) {
	var record domain.BookingRecord
	var customerPhone, serviceAddress, notes, externalJobID, sinkError sql.NullString
	var cancelledAt sql.NullTime

	err := row.Scan(
		&record.ID,
		&record.ResourceID,
		&record.Date,
		&record.TimeOfDay,
		&record.StartAt,
		&record.EndAt,
		&record.ServiceOfferingID,
		&record.CustomerName,
		&record.CustomerEmail,
		&customerPhone,
		&serviceAddress,
		&notes,
		&externalJobID,
		&record.SinkStatus,
		&sinkError,
		&record.Status,
		&cancelledAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.CustomerPhone = nullString(customerPhone)
	record.ServiceAddress = nullString(serviceAddress)
	record.Notes = nullString(notes)
	record.ExternalJobID = nullString(externalJobID)
	record.SinkError = nullString(sinkError)
	if cancelledAt.Valid {
		t := cancelledAt.Time
		record.CancelledAt = &t
	}

	return &record, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// classify оборачивает ошибку драйвера, сохраняя исходную в цепочке:
// txmanager по ней решает, повторять ли сериализуемую транзакцию
func classify(err error, step string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqExclusionViolation || pqErr.Code == pqUniqueViolation:
			switch pqErr.Constraint {
			case constraintResourceOverlap:
				return fmt.Errorf("%w: %s: %w", ErrSlotNotAvailable, step, err)
			case constraintCustomerOverlap:
				return fmt.Errorf("%w: %s: %w", ErrDuplicateBooking, step, err)
			}
		case string(pqErr.Code.Class()) == pqConnectionClass:
			return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, step, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrExecQuery, step, err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, step, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrExecQuery, step, err)
}

func classifyScan(err error, step string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) || errors.Is(err, driver.ErrBadConn) {
		return classify(err, step)
	}
	return fmt.Errorf("%w: %s: %w", ErrScanRow, step, err)
}
