package benefits

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// PackageRepository пакеты клиента и счетчики их использования.
// Внутри транзакции чтения берут строки FOR UPDATE
type PackageRepository interface {
	ListByCustomer(ctx context.Context, tenantID, customerID int64) ([]domain.PackageInstance, error)
	GetInstance(ctx context.Context, tenantID, instanceID int64) (*domain.PackageInstance, error)
	GetServiceUsage(ctx context.Context, instanceID, serviceID int64) (*domain.PackageServiceUsage, error)
	UpdateInstanceUsage(ctx context.Context, instance *domain.PackageInstance) error
	UpdateServiceUsage(ctx context.Context, usage *domain.PackageServiceUsage) error
}

// SubscriptionRepository подписки клиента и учет их использования по периодам
type SubscriptionRepository interface {
	ListByCustomer(ctx context.Context, tenantID, customerID int64) ([]domain.SubscriptionInstance, error)
	GetInstance(ctx context.Context, tenantID, instanceID int64) (*domain.SubscriptionInstance, error)
	GetOrCreateUsage(ctx context.Context, instanceID, serviceID int64, period domain.TimeRange) (*domain.SubscriptionUsage, error)
	FindUsageByBooking(ctx context.Context, instanceID, bookingID int64) (*domain.SubscriptionUsage, error)
	UpdateUsage(ctx context.Context, usage *domain.SubscriptionUsage) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
