package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/tenants"
)

// UseCase use case для получения доступных слотов для бронирования
type UseCase struct {
	tenants TenantResolver
	slots   SlotFinder
	logger  Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	tenants TenantResolver,
	slots SlotFinder,
	logger Logger,
) *UseCase {
	return &UseCase{
		tenants: tenants,
		slots:   slots,
		logger:  logger,
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: tenant=%s, service=%d, date=%s, extraSlots=%d",
		req.TenantRef, req.ServiceID, req.Date.Format(domain.DateFormat), req.ExtraSlots)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Арендатор
	tenant, err := uc.tenants.Resolve(ctx, req.TenantRef)
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) || errors.Is(err, tenants.ErrInvalidReference) {
			uc.logger.Warn("GetAvailableSlots: tenant %q not found", req.TenantRef)
			return nil, ErrTenantNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to resolve tenant %q: %v", req.TenantRef, err)
		return nil, fmt.Errorf("%w: failed to resolve tenant: %v", ErrInternal, err)
	}

	// 3. Расчет слотов. Дата из запроса трактуется как календарный день арендатора
	loc := tenant.Location(nil)
	date := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, loc)

	result, err := uc.slots.GetSlots(ctx, availability.Query{
		Tenant:     tenant,
		ServiceID:  req.ServiceID,
		StaffID:    req.StaffID,
		Date:       date,
		ExtraSlots: req.ExtraSlots,
	})
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrServiceNotFound):
			uc.logger.Warn("GetAvailableSlots: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		case errors.Is(err, availability.ErrStaffNotFound):
			uc.logger.Warn("GetAvailableSlots: staff not found for service id=%d", req.ServiceID)
			return nil, ErrStaffNotFound
		case errors.Is(err, availability.ErrInvalidQuery):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		uc.logger.Error("GetAvailableSlots: failed to calculate slots: %v", err)
		return nil, fmt.Errorf("%w: failed to calculate slots: %v", ErrInternal, err)
	}

	staffNames := make(map[int64]string, len(result.Staff))
	for _, st := range result.Staff {
		staffNames[st.ID] = st.Name
	}

	slots := make([]Slot, 0, len(result.Slots))
	for _, s := range result.Slots {
		slots = append(slots, Slot{
			StartsAt:  s.StartsAt.In(result.Location),
			StaffID:   s.StaffID,
			StaffName: staffNames[s.StaffID],
		})
	}

	cfg := tenant.Config.WithDefaults()
	total := cfg.TotalDuration(result.Service.DurationMinutes, req.ExtraSlots)

	uc.logger.Info("GetAvailableSlots: found %d slots for tenant=%d service=%d", len(slots), tenant.ID, req.ServiceID)

	return &Response{
		Date:            date.Format(domain.DateFormat),
		TenantID:        tenant.ID,
		ServiceID:       req.ServiceID,
		Timezone:        result.Location.String(),
		DurationMinutes: int(total / time.Minute),
		Slots:           slots,
	}, nil
}
