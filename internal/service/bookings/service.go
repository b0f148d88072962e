package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo BookingRepository
	ledger      BenefitLedger
	txManager   TransactionManager
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	ledger BenefitLedger,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		ledger:      ledger,
		txManager:   txManager,
		logger:      logger,
	}
}

// GetByID получает бронирование арендатора по ID
// Бронирование другого арендатора считается ненайденным
func (s *Service) GetByID(ctx context.Context, tenantID, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for tenant=%d", id, tenantID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if booking.TenantID != tenantID {
		s.logger.Warn("GetByID: booking id=%d belongs to tenant=%d, requested by tenant=%d", id, booking.TenantID, tenantID)
		return nil, ErrBookingNotFound
	}

	return models.FromDomainBooking(booking), nil
}

// Cancel отменяет бронирование и возвращает списанный сеанс пакета или подписки.
// Смена статуса и возврат выполняются в одной транзакции
func (s *Service) Cancel(ctx context.Context, tenantID, bookingID int64) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d for tenant=%d", bookingID, tenantID)

	var cancelled *domain.Booking
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		if booking.TenantID != tenantID {
			return ErrBookingNotFound
		}

		if !booking.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%d cannot be cancelled, status=%s", bookingID, booking.Status)
			return ErrCannotCancel
		}

		if err := s.bookingRepo.Cancel(ctx, bookingID); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		if err := s.ledger.Reverse(ctx, booking); err != nil {
			return fmt.Errorf("%w: Cancel - reverse benefit usage: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusCancelled
		cancelled = booking
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			s.logger.Warn("Cancel: booking id=%d not found", bookingID)
		case errors.Is(err, ErrCannotCancel):
		default:
			s.logger.Error("Cancel: failed to cancel booking id=%d: %v", bookingID, err)
		}
		return nil, err
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%d", bookingID)
	return models.FromDomainBooking(cancelled), nil
}
