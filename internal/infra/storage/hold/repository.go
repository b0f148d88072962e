package hold

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

var holdColumns = []string{
	"id",
	"tenant_id",
	"staff_id",
	"service_id",
	"conversation_key",
	"starts_at",
	"ends_at",
	"expires_at",
	"status",
	"booking_id",
	"created_at",
}

// Repository репозиторий удержаний слотов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория удержаний
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новое удержание
func (r *Repository) Create(ctx context.Context, hold *domain.ReservationHold) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservation_holds").
		Columns(
			"id",
			"tenant_id",
			"staff_id",
			"service_id",
			"conversation_key",
			"starts_at",
			"ends_at",
			"expires_at",
			"status",
		).
		Values(
			hold.ID,
			hold.TenantID,
			hold.StaffID,
			hold.ServiceID,
			hold.ConversationKey,
			hold.StartsAt,
			hold.EndsAt,
			hold.ExpiresAt,
			hold.Status,
		).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&hold.CreatedAt); err != nil {
		return fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetByID возвращает удержание по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReservationHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(holdColumns...).
		From("reservation_holds").
		Where(squirrel.Eq{"id": id})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	hold, err := scanHold(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan hold: %v", ErrScanRow, err)
	}

	return hold, nil
}

// ListActive возвращает удержания сотрудников, активные в момент now и пересекающиеся с [from, to)
func (r *Repository) ListActive(ctx context.Context, tenantID int64, staffIDs []int64, from, to, now time.Time) ([]domain.ReservationHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(holdColumns...).
		From("reservation_holds").
		Where(squirrel.Eq{"tenant_id": tenantID, "staff_id": staffIDs, "status": domain.HoldActive}).
		Where(squirrel.Gt{"expires_at": now}).
		Where(squirrel.Lt{"starts_at": to}).
		Where(squirrel.Gt{"ends_at": from}).
		OrderBy("starts_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	holds := make([]domain.ReservationHold, 0)
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListActive - scan row: %v", ErrScanRow, err)
		}
		holds = append(holds, *hold)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActive - rows error: %v", ErrScanRow, err)
	}

	return holds, nil
}

// Transition переводит удержание из статуса from в статус to.
// Если удержания нет или оно уже не в статусе from, возвращает ErrHoldNotFound
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, from, to domain.HoldStatus, bookingID *int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("reservation_holds").
		Set("status", to).
		Where(squirrel.Eq{"id": id, "status": from})
	if bookingID != nil {
		updateBuilder = updateBuilder.Set("booking_id", *bookingID)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: Transition - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Transition - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Transition - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrHoldNotFound
	}

	return nil
}

// ReleaseByConversation переводит все активные удержания диалога в expired
func (r *Repository) ReleaseByConversation(ctx context.Context, conversationKey string) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservation_holds").
		Set("status", domain.HoldExpired).
		Where(squirrel.Eq{"conversation_key": conversationKey, "status": domain.HoldActive}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByConversation - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByConversation - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByConversation - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHold(row rowScanner) (*domain.ReservationHold, error) {
	var hold domain.ReservationHold
	if err := row.Scan(
		&hold.ID,
		&hold.TenantID,
		&hold.StaffID,
		&hold.ServiceID,
		&hold.ConversationKey,
		&hold.StartsAt,
		&hold.EndsAt,
		&hold.ExpiresAt,
		&hold.Status,
		&hold.BookingID,
		&hold.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &hold, nil
}
