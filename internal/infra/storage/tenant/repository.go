package tenant

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

var tenantColumns = []string{
	"id",
	"slug",
	"name",
	"timezone",
	"active",
	"slot_duration_minutes",
	"buffer_minutes",
	"extra_slot_minutes",
	"subscription_grace_hours",
	"online_payment_enabled",
	"created_at",
	"updated_at",
}

// Repository репозиторий арендаторов и их конфигурации бронирования
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория арендаторов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает активного арендатора по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id, "active": true})
}

// GetBySlug получает активного арендатора по slug
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return r.getOne(ctx, "GetBySlug", squirrel.Eq{"slug": slug, "active": true})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Eq) (*domain.Tenant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(tenantColumns...).
		From("tenants").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	var tenant domain.Tenant
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&tenant.ID,
		&tenant.Slug,
		&tenant.Name,
		&tenant.Timezone,
		&tenant.Active,
		&tenant.Config.SlotDurationMinutes,
		&tenant.Config.BufferMinutes,
		&tenant.Config.ExtraSlotMinutes,
		&tenant.Config.SubscriptionGraceHours,
		&tenant.Config.OnlinePaymentEnabled,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan tenant: %v", ErrScanRow, op, err)
	}

	tenant.Config = tenant.Config.WithDefaults()
	tenant.CreatedAt = createdAt.Time
	tenant.UpdatedAt = updatedAt.Time

	return &tenant, nil
}
