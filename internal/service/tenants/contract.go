package tenants

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// TenantRepository чтение арендаторов
type TenantRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
}
