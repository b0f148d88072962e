package reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// BookingRepository запись и чтение бронирований внутри транзакции резервирования
type BookingRepository interface {
	LockStaffSchedule(ctx context.Context, tenantID, staffID int64) error
	ListBlocking(ctx context.Context, tenantID int64, staffIDs []int64, from, to time.Time) ([]domain.Booking, error)
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// CatalogRepository сотрудники и блокировки арендатора
type CatalogRepository interface {
	GetStaff(ctx context.Context, tenantID, staffID int64) (*domain.StaffMember, error)
	ListActiveStaff(ctx context.Context, tenantID int64) ([]domain.StaffMember, error)
	ListBlackouts(ctx context.Context, tenantID int64, from, to time.Time) ([]domain.BlackoutPeriod, error)
}

// KeyLocker взаимное исключение внутри процесса по ключу
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics доменные счетчики
type Metrics interface {
	BookingCreated(channel string)
	BookingConflict(channel string)
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
