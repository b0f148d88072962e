package subscriptions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

var instanceColumns = []string{
	"si.id",
	"si.tenant_id",
	"si.customer_id",
	"si.plan_id",
	"si.status",
	"sp.service_ids",
	"si.started_at",
	"si.current_period_start",
	"si.current_period_end",
	"si.failed_at",
	"si.updated_at",
}

var usageColumns = []string{
	"id",
	"subscription_instance_id",
	"service_id",
	"period_start",
	"period_end",
	"sessions_used",
	"booking_ids",
}

// Repository репозиторий подписок клиента и учета их использования
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория подписок
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListByCustomer возвращает подписки клиента вместе с покрываемыми услугами плана
func (r *Repository) ListByCustomer(ctx context.Context, tenantID, customerID int64) ([]domain.SubscriptionInstance, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(instanceColumns...).
		From("subscription_instances si").
		Join("subscription_plans sp ON sp.id = si.plan_id").
		Where(squirrel.Eq{"si.tenant_id": tenantID, "si.customer_id": customerID}).
		OrderBy("si.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	instances := make([]domain.SubscriptionInstance, 0)
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByCustomer - scan row: %v", ErrScanRow, err)
		}
		instances = append(instances, *instance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - rows error: %v", ErrScanRow, err)
	}

	return instances, nil
}

// GetInstance возвращает подписку арендатора
// Внутри транзакции строка подписки блокируется (FOR UPDATE OF si)
func (r *Repository) GetInstance(ctx context.Context, tenantID, instanceID int64) (*domain.SubscriptionInstance, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(instanceColumns...).
		From("subscription_instances si").
		Join("subscription_plans sp ON sp.id = si.plan_id").
		Where(squirrel.Eq{"si.id": instanceID, "si.tenant_id": tenantID})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE OF si")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetInstance - build select query: %v", ErrBuildQuery, err)
	}

	instance, err := scanInstance(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetInstance - scan instance: %v", ErrScanRow, err)
	}

	return instance, nil
}

// GetOrCreateUsage возвращает запись использования услуги за период, создавая пустую при отсутствии.
// Внутри транзакции запись блокируется (FOR UPDATE)
func (r *Repository) GetOrCreateUsage(ctx context.Context, instanceID, serviceID int64, period domain.TimeRange) (*domain.SubscriptionUsage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertQuery, insertArgs, err := psqlbuilder.Insert("subscription_usage").
		Columns("subscription_instance_id", "service_id", "period_start", "period_end").
		Values(instanceID, serviceID, period.Start, period.End).
		Suffix("ON CONFLICT (subscription_instance_id, service_id, period_start) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOrCreateUsage - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return nil, fmt.Errorf("%w: GetOrCreateUsage - execute insert: %v", ErrExecQuery, err)
	}

	selectBuilder := psqlbuilder.Select(usageColumns...).
		From("subscription_usage").
		Where(squirrel.Eq{
			"subscription_instance_id": instanceID,
			"service_id":               serviceID,
			"period_start":             period.Start,
		})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOrCreateUsage - build select query: %v", ErrBuildQuery, err)
	}

	usage, err := scanUsage(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrUsageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetOrCreateUsage - scan usage: %v", ErrScanRow, err)
	}

	return usage, nil
}

// FindUsageByBooking возвращает запись использования, в которой учтено бронирование
// Внутри транзакции запись блокируется (FOR UPDATE)
func (r *Repository) FindUsageByBooking(ctx context.Context, instanceID, bookingID int64) (*domain.SubscriptionUsage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(usageColumns...).
		From("subscription_usage").
		Where(squirrel.Eq{"subscription_instance_id": instanceID}).
		Where(squirrel.Expr("? = ANY(booking_ids)", bookingID)).
		Limit(1)
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindUsageByBooking - build select query: %v", ErrBuildQuery, err)
	}

	usage, err := scanUsage(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrUsageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindUsageByBooking - scan usage: %v", ErrScanRow, err)
	}

	return usage, nil
}

// UpdateUsage сохраняет счетчик и список бронирований записи использования
func (r *Repository) UpdateUsage(ctx context.Context, usage *domain.SubscriptionUsage) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	bookingIDs := usage.BookingIDs
	if bookingIDs == nil {
		bookingIDs = []int64{}
	}

	query, args, err := psqlbuilder.Update("subscription_usage").
		Set("sessions_used", usage.SessionsUsed).
		Set("booking_ids", pq.Int64Array(bookingIDs)).
		Where(squirrel.Eq{"id": usage.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateUsage - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateUsage - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateUsage - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrUsageNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInstance(row rowScanner) (*domain.SubscriptionInstance, error) {
	var instance domain.SubscriptionInstance
	var serviceIDs pq.Int64Array
	if err := row.Scan(
		&instance.ID,
		&instance.TenantID,
		&instance.CustomerID,
		&instance.PlanID,
		&instance.Status,
		&serviceIDs,
		&instance.StartedAt,
		&instance.CurrentPeriodStart,
		&instance.CurrentPeriodEnd,
		&instance.FailedAt,
		&instance.UpdatedAt,
	); err != nil {
		return nil, err
	}
	instance.CoveredServiceIDs = []int64(serviceIDs)
	return &instance, nil
}

func scanUsage(row rowScanner) (*domain.SubscriptionUsage, error) {
	var usage domain.SubscriptionUsage
	var bookingIDs pq.Int64Array
	if err := row.Scan(
		&usage.ID,
		&usage.SubscriptionInstanceID,
		&usage.ServiceID,
		&usage.PeriodStart,
		&usage.PeriodEnd,
		&usage.SessionsUsed,
		&bookingIDs,
	); err != nil {
		return nil, err
	}
	usage.BookingIDs = []int64(bookingIDs)
	return &usage, nil
}
