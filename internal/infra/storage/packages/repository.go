package packages

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
	"id",
	"tenant_id",
	"customer_id",
	"package_id",
	"status",
	"payment_status",
	"sessions_used",
	"sessions_total",
	"purchased_at",
	"updated_at",
}

// Repository репозиторий пакетов клиента
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория пакетов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListByCustomer возвращает все пакеты клиента от старых к новым
func (r *Repository) ListByCustomer(ctx context.Context, tenantID, customerID int64) ([]domain.PackageInstance, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(instanceColumns...).
		From("package_instances").
		Where(squirrel.Eq{"tenant_id": tenantID, "customer_id": customerID}).
		OrderBy("purchased_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	instances := make([]domain.PackageInstance, 0)
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

// GetInstance возвращает экземпляр пакета арендатора
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetInstance(ctx context.Context, tenantID, instanceID int64) (*domain.PackageInstance, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(instanceColumns...).
		From("package_instances").
		Where(squirrel.Eq{"id": instanceID, "tenant_id": tenantID})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetInstance - build select query: %v", ErrBuildQuery, err)
	}

	instance, err := scanInstance(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetInstance - scan instance: %v", ErrScanRow, err)
	}

	return instance, nil
}

// GetServiceUsage возвращает счетчик использования услуги в пакете
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetServiceUsage(ctx context.Context, instanceID, serviceID int64) (*domain.PackageServiceUsage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "package_instance_id", "service_id", "sessions_used", "sessions_total", "booking_ids").
		From("package_service_usage").
		Where(squirrel.Eq{"package_instance_id": instanceID, "service_id": serviceID})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetServiceUsage - build select query: %v", ErrBuildQuery, err)
	}

	var usage domain.PackageServiceUsage
	var bookingIDs pq.Int64Array
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&usage.ID,
		&usage.PackageInstanceID,
		&usage.ServiceID,
		&usage.SessionsUsed,
		&usage.SessionsTotal,
		&bookingIDs,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUsageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetServiceUsage - scan usage: %v", ErrScanRow, err)
	}
	usage.BookingIDs = []int64(bookingIDs)

	return &usage, nil
}

// UpdateInstanceUsage сохраняет агрегированный счетчик и статус пакета
func (r *Repository) UpdateInstanceUsage(ctx context.Context, instance *domain.PackageInstance) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("package_instances").
		Set("sessions_used", instance.SessionsUsed).
		Set("status", instance.Status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": instance.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateInstanceUsage - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateInstanceUsage - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateInstanceUsage - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrPackageNotFound
	}

	return nil
}

// UpdateServiceUsage сохраняет счетчик использования услуги и список списавших сессию бронирований
func (r *Repository) UpdateServiceUsage(ctx context.Context, usage *domain.PackageServiceUsage) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	bookingIDs := usage.BookingIDs
	if bookingIDs == nil {
		bookingIDs = []int64{}
	}

	query, args, err := psqlbuilder.Update("package_service_usage").
		Set("sessions_used", usage.SessionsUsed).
		Set("booking_ids", pq.Int64Array(bookingIDs)).
		Where(squirrel.Eq{"id": usage.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateServiceUsage - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateServiceUsage - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateServiceUsage - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrUsageNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInstance(row rowScanner) (*domain.PackageInstance, error) {
	var instance domain.PackageInstance
	if err := row.Scan(
		&instance.ID,
		&instance.TenantID,
		&instance.CustomerID,
		&instance.PackageID,
		&instance.Status,
		&instance.PaymentStatus,
		&instance.SessionsUsed,
		&instance.SessionsTotal,
		&instance.PurchasedAt,
		&instance.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &instance, nil
}
