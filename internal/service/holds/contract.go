package holds

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// HoldRepository хранилище удержаний
type HoldRepository interface {
	Create(ctx context.Context, hold *domain.ReservationHold) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReservationHold, error)
	ListActive(ctx context.Context, tenantID int64, staffIDs []int64, from, to, now time.Time) ([]domain.ReservationHold, error)
	// Transition меняет статус, только если текущий статус равен from
	Transition(ctx context.Context, id uuid.UUID, from, to domain.HoldStatus, bookingID *int64) error
	ReleaseByConversation(ctx context.Context, conversationKey string) (int64, error)
}

// BookingRepository записи, с которыми удержание не должно пересекаться
type BookingRepository interface {
	LockStaffSchedule(ctx context.Context, tenantID, staffID int64) error
	ListBlocking(ctx context.Context, tenantID int64, staffIDs []int64, from, to time.Time) ([]domain.Booking, error)
}

// BlackoutRepository блокировки арендатора
type BlackoutRepository interface {
	ListBlackouts(ctx context.Context, tenantID int64, from, to time.Time) ([]domain.BlackoutPeriod, error)
}

// ExpiryScheduler планирует перевод удержания в expired в момент истечения
type ExpiryScheduler interface {
	ScheduleHoldExpiry(ctx context.Context, holdID uuid.UUID, at time.Time) error
}

// KeyLocker взаимное исключение внутри процесса по ключу
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
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
