package customer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

// Repository репозиторий клиентов арендатора
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория клиентов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// FindByPhone ищет клиента по нормализованному телефону
func (r *Repository) FindByPhone(ctx context.Context, tenantID int64, phone string) (*domain.Customer, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "tenant_id", "name", "phone", "email", "created_at", "updated_at").
		From("customers").
		Where(squirrel.Eq{"tenant_id": tenantID, "phone": phone}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByPhone - build select query: %v", ErrBuildQuery, err)
	}

	var customer domain.Customer
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&customer.ID,
		&customer.TenantID,
		&customer.Name,
		&customer.Phone,
		&customer.Email,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindByPhone - scan customer: %v", ErrScanRow, err)
	}

	return &customer, nil
}

// Upsert создает клиента или обновляет имя и email существующего с тем же телефоном.
// Пустой email не затирает сохраненный
func (r *Repository) Upsert(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("customers").
		Columns("tenant_id", "name", "phone", "email").
		Values(customer.TenantID, customer.Name, customer.Phone, customer.Email).
		Suffix("ON CONFLICT (tenant_id, phone) DO UPDATE SET " +
			"name = EXCLUDED.name, " +
			"email = COALESCE(EXCLUDED.email, customers.email), " +
			"updated_at = NOW() " +
			"RETURNING id, email, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&customer.ID,
		&customer.Email,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}

	return customer, nil
}
