package cancel_booking

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
)

type TenantResolver interface {
	Resolve(ctx context.Context, ref string) (*domain.Tenant, error)
}

type BookingService interface {
	Cancel(ctx context.Context, tenantID, bookingID int64) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
