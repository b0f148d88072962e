package get_available_slots

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
)

// TenantResolver поиск арендатора по ID или slug
type TenantResolver interface {
	Resolve(ctx context.Context, ref string) (*domain.Tenant, error)
}

// SlotFinder расчет свободных слотов
type SlotFinder interface {
	GetSlots(ctx context.Context, q availability.Query) (*availability.Result, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
