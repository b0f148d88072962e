package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	customerRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/customer"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/benefits"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservation"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/tenants"
)

const notifyTimeout = 5 * time.Second

var tracer = otel.Tracer("create_booking")

// UseCase use case для создания бронирования
type UseCase struct {
	tenants      TenantResolver
	catalog      CatalogRepository
	customers    CustomerRepository
	resolver     BenefitResolver
	reserver     Reserver
	ledger       BenefitLedger
	notifier     Notifier
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	tenants TenantResolver,
	catalog CatalogRepository,
	customers CustomerRepository,
	resolver BenefitResolver,
	reserver Reserver,
	ledger BenefitLedger,
	notifier Notifier,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	if timeProvider == nil {
		timeProvider = &RealTimeProvider{}
	}
	return &UseCase{
		tenants:      tenants,
		catalog:      catalog,
		customers:    customers,
		resolver:     resolver,
		reserver:     reserver,
		ledger:       ledger,
		notifier:     notifier,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования.
// Все проверки выполняются до первой записи. Списание льготы идет после фиксации бронирования
// и при ошибке не отменяет его
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "create_booking.Execute")
	defer span.End()

	resp, err := uc.execute(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, ErrorCode(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int64("booking.id", resp.Booking.ID))
	return resp, nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: tenant=%s, service=%d, startsAt=%s, via=%s",
		req.TenantRef, req.ServiceID, req.StartsAt.Format(time.RFC3339), req.CreatedVia)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Арендатор
	tenant, err := uc.tenants.Resolve(ctx, req.TenantRef)
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) || errors.Is(err, tenants.ErrInvalidReference) {
			uc.logger.Warn("CreateBooking: tenant %q not found", req.TenantRef)
			return nil, ErrTenantNotFound
		}
		uc.logger.Error("CreateBooking: failed to resolve tenant %q: %v", req.TenantRef, err)
		return nil, fmt.Errorf("%w: failed to resolve tenant: %v", ErrBookingCreateFailed, err)
	}
	config := tenant.Config.WithDefaults()

	// 3. Время начала должно быть в будущем
	if err := validateStartTime(req.StartsAt, uc.timeProvider.Now()); err != nil {
		uc.logger.Warn("CreateBooking: %v", err)
		return nil, err
	}

	if req.PaymentMethod == domain.PaymentOnline && !config.OnlinePaymentEnabled {
		uc.logger.Warn("CreateBooking: online payment disabled for tenant=%d", tenant.ID)
		return nil, fmt.Errorf("%w: online payment is not enabled", ErrInvalidPayload)
	}

	// 4. Услуга
	service, err := uc.catalog.GetService(ctx, tenant.ID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrBookingCreateFailed, err)
	}

	// 5. Льгота: у нового клиента их нет, явная ссылка проверяется до любой записи
	var customerID int64
	existing, err := uc.customers.FindByPhone(ctx, tenant.ID, req.Customer.Phone)
	switch {
	case err == nil:
		customerID = existing.ID
	case errors.Is(err, customerRepo.ErrCustomerNotFound):
	default:
		uc.logger.Error("CreateBooking: failed to find customer: %v", err)
		return nil, fmt.Errorf("%w: failed to find customer: %v", ErrCustomerCreateFailed, err)
	}

	benefit, err := uc.resolver.Resolve(ctx, benefits.ResolveRequest{
		Tenant:                 tenant,
		CustomerID:             customerID,
		ServiceID:              service.ID,
		ExplicitPackageID:      req.ExplicitPackageID,
		ExplicitSubscriptionID: req.ExplicitSubscriptionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, benefits.ErrPackageInvalid):
			uc.logger.Warn("CreateBooking: explicit package rejected: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrPackageInvalid, err)
		case errors.Is(err, benefits.ErrSubscriptionInvalid):
			uc.logger.Warn("CreateBooking: explicit subscription rejected: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrSubscriptionInvalid, err)
		case errors.Is(err, benefits.ErrAmbiguousBenefit):
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		uc.logger.Error("CreateBooking: failed to resolve benefit: %v", err)
		return nil, fmt.Errorf("%w: failed to resolve benefit: %v", ErrBookingCreateFailed, err)
	}

	// 6. Клиент
	customer, err := uc.customers.Upsert(ctx, &domain.Customer{
		TenantID: tenant.ID,
		Name:     req.Customer.Name,
		Phone:    req.Customer.Phone,
		Email:    req.Customer.Email,
	})
	if err != nil {
		uc.logger.Error("CreateBooking: failed to upsert customer phone=%s: %v", req.Customer.Phone, err)
		return nil, fmt.Errorf("%w: %v", ErrCustomerCreateFailed, err)
	}

	// 7. Атомарное резервирование
	startsAt := req.StartsAt.In(tenant.Location(nil))
	booking, err := uc.reserver.Reserve(ctx, reservation.Request{
		TenantID:      tenant.ID,
		ServiceID:     service.ID,
		StaffID:       req.StaffID,
		CustomerID:    customer.ID,
		StartsAt:      startsAt,
		EndsAt:        startsAt.Add(config.TotalDuration(service.DurationMinutes, req.ExtraSlots)),
		Buffer:        config.Buffer(),
		Status:        bookingStatus(req.PaymentMethod, benefit),
		PaymentMethod: req.PaymentMethod,
		CreatedVia:    req.CreatedVia,
		Notes:         req.Notes,
		Benefit:       benefit,
	})
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrTimeConflict):
			uc.logger.Warn("CreateBooking: time conflict for service=%d at %s", service.ID, startsAt.Format(time.RFC3339))
			return nil, ErrTimeConflict
		case errors.Is(err, reservation.ErrStaffNotFound):
			uc.logger.Warn("CreateBooking: no staff available for service=%d", service.ID)
			return nil, ErrStaffNotFound
		case errors.Is(err, reservation.ErrInvalidRequest):
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		uc.logger.Error("CreateBooking: failed to reserve: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrBookingCreateFailed, err)
	}

	// 8. Списание льготы не откатывает бронирование
	if !benefit.IsNone() {
		if err := uc.ledger.Consume(ctx, booking); err != nil {
			uc.logger.Error("CreateBooking: RECONCILE booking id=%d: failed to consume %s benefit: %v",
				booking.ID, benefit.Kind, err)
			uc.metrics.BenefitConsumptionFailed(string(benefit.Kind))
		}
	}

	// 9. Уведомление
	if shouldNotify(booking) {
		uc.notify(ctx, tenant, customer, booking)
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d staff=%d status=%s benefit=%s",
		booking.ID, booking.StaffID, booking.Status, benefit.Kind)

	return &Response{
		Booking:  booking,
		Benefit:  benefit,
		Customer: customer,
		Tenant:   tenant,
		Service:  service,
	}, nil
}

func (uc *UseCase) notify(ctx context.Context, tenant *domain.Tenant, customer *domain.Customer, booking *domain.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err := uc.notifier.BookingConfirmed(ctx, notifier.BookingConfirmed{
		TenantID:      tenant.ID,
		BookingID:     booking.ID,
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		ServiceID:     booking.ServiceID,
		StaffID:       booking.StaffID,
		StartsAt:      booking.StartsAt,
		EndsAt:        booking.EndsAt,
		Channel:       string(booking.CreatedVia),
	})
	if err != nil {
		uc.logger.Warn("CreateBooking: failed to dispatch notification for booking id=%d: %v", booking.ID, err)
	}
}
