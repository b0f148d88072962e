package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

// Repository репозиторий каталога: услуги, сотрудники, рабочие часы и блокировки.
// Каталог ведется внешними инструментами, движок только читает его
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория каталога
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetService возвращает активную услугу арендатора
func (r *Repository) GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "tenant_id", "name", "duration_minutes", "price", "active").
		From("services").
		Where(squirrel.Eq{"id": serviceID, "tenant_id": tenantID, "active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - build select query: %v", ErrBuildQuery, err)
	}

	var service domain.Service
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&service.ID,
		&service.TenantID,
		&service.Name,
		&service.DurationMinutes,
		&service.Price,
		&service.Active,
	)
	if err == sql.ErrNoRows {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - scan service: %v", ErrScanRow, err)
	}

	return &service, nil
}

// ListActiveServices возвращает активные услуги арендатора, упорядоченные по ID
func (r *Repository) ListActiveServices(ctx context.Context, tenantID int64) ([]domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "tenant_id", "name", "duration_minutes", "price", "active").
		From("services").
		Where(squirrel.Eq{"tenant_id": tenantID, "active": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveServices - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveServices - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	services := make([]domain.Service, 0)
	for rows.Next() {
		var service domain.Service
		if err := rows.Scan(
			&service.ID,
			&service.TenantID,
			&service.Name,
			&service.DurationMinutes,
			&service.Price,
			&service.Active,
		); err != nil {
			return nil, fmt.Errorf("%w: ListActiveServices - scan row: %v", ErrScanRow, err)
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActiveServices - rows error: %v", ErrScanRow, err)
	}

	return services, nil
}

// GetStaff возвращает сотрудника арендатора независимо от активности
func (r *Repository) GetStaff(ctx context.Context, tenantID, staffID int64) (*domain.StaffMember, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "tenant_id", "name", "active", "service_ids").
		From("staff").
		Where(squirrel.Eq{"id": staffID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetStaff - build select query: %v", ErrBuildQuery, err)
	}

	staff, err := scanStaff(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetStaff - scan staff: %v", ErrScanRow, err)
	}

	return staff, nil
}

// ListActiveStaff возвращает активных сотрудников арендатора, упорядоченных по ID
func (r *Repository) ListActiveStaff(ctx context.Context, tenantID int64) ([]domain.StaffMember, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "tenant_id", "name", "active", "service_ids").
		From("staff").
		Where(squirrel.Eq{"tenant_id": tenantID, "active": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveStaff - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveStaff - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	staff := make([]domain.StaffMember, 0)
	for rows.Next() {
		member, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListActiveStaff - scan row: %v", ErrScanRow, err)
		}
		staff = append(staff, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActiveStaff - rows error: %v", ErrScanRow, err)
	}

	return staff, nil
}

// ListWorkingHours возвращает активные рабочие часы сотрудников на день недели
func (r *Repository) ListWorkingHours(ctx context.Context, staffIDs []int64, weekday time.Weekday) ([]domain.WorkingHoursEntry, error) {
	if len(staffIDs) == 0 {
		return []domain.WorkingHoursEntry{}, nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"staff_id",
		"weekday",
		"start_time",
		"end_time",
		"break_start",
		"break_end",
		"active",
	).
		From("working_hours").
		Where(squirrel.Eq{"staff_id": staffIDs, "weekday": int(weekday), "active": true}).
		OrderBy("staff_id ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListWorkingHours - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListWorkingHours - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]domain.WorkingHoursEntry, 0)
	for rows.Next() {
		var entry domain.WorkingHoursEntry
		var day int
		if err := rows.Scan(
			&entry.ID,
			&entry.StaffID,
			&day,
			&entry.StartTime,
			&entry.EndTime,
			&entry.BreakStart,
			&entry.BreakEnd,
			&entry.Active,
		); err != nil {
			return nil, fmt.Errorf("%w: ListWorkingHours - scan row: %v", ErrScanRow, err)
		}
		entry.Weekday = time.Weekday(day)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListWorkingHours - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}

// ListBlackouts возвращает блокировки арендатора, пересекающиеся с [from, to).
// Включает как блокировки сотрудников, так и общие (staff_id IS NULL)
func (r *Repository) ListBlackouts(ctx context.Context, tenantID int64, from, to time.Time) ([]domain.BlackoutPeriod, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "tenant_id", "staff_id", "starts_at", "ends_at", "reason").
		From("blackout_periods").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Lt{"starts_at": to}).
		Where(squirrel.Gt{"ends_at": from}).
		OrderBy("starts_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlackouts - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlackouts - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	blackouts := make([]domain.BlackoutPeriod, 0)
	for rows.Next() {
		var blackout domain.BlackoutPeriod
		if err := rows.Scan(
			&blackout.ID,
			&blackout.TenantID,
			&blackout.StaffID,
			&blackout.StartsAt,
			&blackout.EndsAt,
			&blackout.Reason,
		); err != nil {
			return nil, fmt.Errorf("%w: ListBlackouts - scan row: %v", ErrScanRow, err)
		}
		blackouts = append(blackouts, blackout)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListBlackouts - rows error: %v", ErrScanRow, err)
	}

	return blackouts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStaff(row rowScanner) (*domain.StaffMember, error) {
	var staff domain.StaffMember
	var serviceIDs pq.Int64Array
	if err := row.Scan(
		&staff.ID,
		&staff.TenantID,
		&staff.Name,
		&staff.Active,
		&serviceIDs,
	); err != nil {
		return nil, err
	}
	staff.ServiceIDs = []int64(serviceIDs)
	return &staff, nil
}
