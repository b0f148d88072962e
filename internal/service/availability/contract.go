package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// CatalogRepository чтение каталога арендатора
type CatalogRepository interface {
	GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error)
	GetStaff(ctx context.Context, tenantID, staffID int64) (*domain.StaffMember, error)
	ListActiveStaff(ctx context.Context, tenantID int64) ([]domain.StaffMember, error)
	ListWorkingHours(ctx context.Context, staffIDs []int64, weekday time.Weekday) ([]domain.WorkingHoursEntry, error)
	ListBlackouts(ctx context.Context, tenantID int64, from, to time.Time) ([]domain.BlackoutPeriod, error)
}

// BookingRepository чтение записей, занимающих время сотрудников
type BookingRepository interface {
	ListBlocking(ctx context.Context, tenantID int64, staffIDs []int64, from, to time.Time) ([]domain.Booking, error)
}

// HoldRepository чтение активных удержаний
type HoldRepository interface {
	ListActive(ctx context.Context, tenantID int64, staffIDs []int64, from, to, now time.Time) ([]domain.ReservationHold, error)
}

// TimeProvider источник текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
