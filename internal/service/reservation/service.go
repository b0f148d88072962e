package reservation

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
)

var tracer = otel.Tracer("reservation")

// Service атомарное резервирование времени сотрудника.
// Проверка конфликтов и вставка выполняются под двумя замками по (tenant, staff):
// мьютексом внутри процесса и advisory-блокировкой PostgreSQL на время транзакции
type Service struct {
	bookings     BookingRepository
	catalog      CatalogRepository
	locks        KeyLocker
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса резервирования
func NewService(
	bookings BookingRepository,
	catalog CatalogRepository,
	locks KeyLocker,
	txManager TransactionManager,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		bookings:     bookings,
		catalog:      catalog,
		locks:        locks,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Reserve создает бронирование или возвращает ErrTimeConflict, ничего не записав
func (s *Service) Reserve(ctx context.Context, req Request) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "reservation.Reserve",
		trace.WithAttributes(
			attribute.Int64("tenant.id", req.TenantID),
			attribute.String("booking.channel", string(req.CreatedVia)),
		),
	)
	defer span.End()

	if err := req.validate(); err != nil {
		return nil, err
	}

	staffID, err := s.resolveStaff(ctx, req.TenantID, req.ServiceID, req.StaffID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("tenant.id", req.TenantID),
		attribute.Int64("staff.id", staffID),
		attribute.String("booking.created_via", string(req.CreatedVia)),
	)

	unlock, err := s.locks.Lock(ctx, lockKey(req.TenantID, staffID))
	if err != nil {
		return nil, fmt.Errorf("%w: Reserve - acquire lock: %v", ErrInternal, err)
	}
	defer unlock()

	var created *domain.Booking
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.bookings.LockStaffSchedule(ctx, req.TenantID, staffID); err != nil {
			return fmt.Errorf("%w: Reserve - lock staff schedule: %v", ErrInternal, err)
		}

		window := domain.TimeRange{Start: req.StartsAt, End: req.EndsAt}
		searchFrom, searchTo := req.StartsAt.Add(-req.Buffer), req.EndsAt.Add(req.Buffer)

		existing, err := s.bookings.ListBlocking(ctx, req.TenantID, []int64{staffID}, searchFrom, searchTo)
		if err != nil {
			return fmt.Errorf("%w: Reserve - list bookings: %v", ErrInternal, err)
		}
		blackouts, err := s.catalog.ListBlackouts(ctx, req.TenantID, searchFrom, searchTo)
		if err != nil {
			return fmt.Errorf("%w: Reserve - list blackouts: %v", ErrInternal, err)
		}

		busy := availability.BusyRanges(staffID, req.Buffer, s.timeProvider.Now(), existing, blackouts, nil)
		if availability.Conflicts(window, busy) {
			return ErrTimeConflict
		}

		booking := &domain.Booking{
			TenantID:               req.TenantID,
			ServiceID:              req.ServiceID,
			StaffID:                staffID,
			CustomerID:             req.CustomerID,
			StartsAt:               req.StartsAt,
			EndsAt:                 req.EndsAt,
			Status:                 req.Status,
			PaymentMethod:          req.PaymentMethod,
			CreatedVia:             req.CreatedVia,
			Notes:                  req.Notes,
			PackageInstanceID:      req.Benefit.PackageInstanceID,
			SubscriptionInstanceID: req.Benefit.SubscriptionInstanceID,
		}

		created, err = s.bookings.Create(ctx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotNotAvailable) {
				return ErrTimeConflict
			}
			return fmt.Errorf("%w: Reserve - insert booking: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTimeConflict) {
			s.metrics.BookingConflict(string(req.CreatedVia))
			s.logger.Info("Reserve: time conflict for tenant=%d staff=%d at %s",
				req.TenantID, staffID, req.StartsAt.Format("2006-01-02 15:04"))
			span.SetAttributes(attribute.Bool("booking.conflict", true))
			return nil, ErrTimeConflict
		}
		s.logger.Error("Reserve: failed for tenant=%d staff=%d: %v", req.TenantID, staffID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserve failed")
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: Reserve - transaction: %v", ErrInternal, err)
	}

	s.metrics.BookingCreated(string(req.CreatedVia))
	span.SetAttributes(attribute.Int64("booking.id", created.ID))
	s.logger.Info("Reserve: booking id=%d created for tenant=%d staff=%d", created.ID, req.TenantID, staffID)

	return created, nil
}

// resolveStaff проверяет указанного сотрудника или выбирает первого активного,
// которому разрешена услуга. Доступность при этом не проверяется
func (s *Service) resolveStaff(ctx context.Context, tenantID, serviceID int64, staffID *int64) (int64, error) {
	if staffID != nil {
		member, err := s.catalog.GetStaff(ctx, tenantID, *staffID)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrStaffNotFound) {
				return 0, ErrStaffNotFound
			}
			return 0, fmt.Errorf("%w: resolveStaff - get staff: %v", ErrInternal, err)
		}
		if !member.CanPerform(serviceID) {
			return 0, ErrStaffNotFound
		}
		return member.ID, nil
	}

	staff, err := s.catalog.ListActiveStaff(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("%w: resolveStaff - list staff: %v", ErrInternal, err)
	}

	var (
		chosen int64
		found  bool
	)
	for _, member := range staff {
		if member.CanPerform(serviceID) && (!found || member.ID < chosen) {
			chosen, found = member.ID, true
		}
	}
	if !found {
		return 0, ErrStaffNotFound
	}
	return chosen, nil
}

func lockKey(tenantID, staffID int64) string {
	return fmt.Sprintf("booking:%d:%d", tenantID, staffID)
}
