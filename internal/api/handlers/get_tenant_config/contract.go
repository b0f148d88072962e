package get_tenant_config

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type TenantResolver interface {
	Resolve(ctx context.Context, ref string) (*domain.Tenant, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
