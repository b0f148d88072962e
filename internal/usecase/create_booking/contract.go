package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/benefits"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservation"
)

// TenantResolver поиск арендатора по ID или slug
type TenantResolver interface {
	Resolve(ctx context.Context, ref string) (*domain.Tenant, error)
}

// CatalogRepository интерфейс чтения каталога
type CatalogRepository interface {
	GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error)
}

// CustomerRepository интерфейс репозитория клиентов
type CustomerRepository interface {
	FindByPhone(ctx context.Context, tenantID int64, phone string) (*domain.Customer, error)
	Upsert(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}

// BenefitResolver выбор пакета или подписки для записи
type BenefitResolver interface {
	Resolve(ctx context.Context, req benefits.ResolveRequest) (domain.BenefitSource, error)
}

// Reserver атомарное резервирование времени сотрудника
type Reserver interface {
	Reserve(ctx context.Context, req reservation.Request) (*domain.Booking, error)
}

// BenefitLedger списание сеанса льготы
type BenefitLedger interface {
	Consume(ctx context.Context, booking *domain.Booking) error
}

// Notifier отправка события о подтвержденной записи
type Notifier interface {
	BookingConfirmed(ctx context.Context, event notifier.BookingConfirmed) error
}

// Metrics доменные счетчики
type Metrics interface {
	BenefitConsumptionFailed(kind string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
