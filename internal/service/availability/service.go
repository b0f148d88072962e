package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
)

// Service загружает данные из хранилищ и считает свободные слоты через Calculate
type Service struct {
	catalog      CatalogRepository
	bookings     BookingRepository
	holds        HoldRepository
	timeProvider TimeProvider
	defaultLoc   *time.Location
	logger       Logger
}

// NewService создает новый экземпляр сервиса доступности
func NewService(
	catalog CatalogRepository,
	bookings BookingRepository,
	holds HoldRepository,
	timeProvider TimeProvider,
	defaultLoc *time.Location,
	logger Logger,
) *Service {
	return &Service{
		catalog:      catalog,
		bookings:     bookings,
		holds:        holds,
		timeProvider: timeProvider,
		defaultLoc:   defaultLoc,
		logger:       logger,
	}
}

// GetSlots возвращает свободные слоты на день.
// Пустой список - нормальный результат, а не ошибка
func (s *Service) GetSlots(ctx context.Context, q Query) (*Result, error) {
	if q.Tenant == nil || q.ServiceID <= 0 || q.ExtraSlots < 0 || q.Date.IsZero() {
		return nil, ErrInvalidQuery
	}

	tenant := q.Tenant
	cfg := tenant.Config.WithDefaults()
	loc := tenant.Location(s.defaultLoc)

	service, err := s.loadService(ctx, tenant.ID, q.ServiceID)
	if err != nil {
		return nil, err
	}

	staff, err := s.EligibleStaff(ctx, tenant.ID, service.ID, q.StaffID)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Service:  service,
		Staff:    staff,
		Location: loc,
		Slots:    make([]domain.AvailableSlot, 0),
	}
	if len(staff) == 0 {
		return result, nil
	}

	staffIDs := make([]int64, len(staff))
	for i, st := range staff {
		staffIDs[i] = st.ID
	}

	now := s.timeProvider.Now()
	day := q.Date.In(loc)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	from := dayStart.Add(-cfg.Buffer())
	to := dayEnd.Add(cfg.Buffer())

	var (
		hours     []domain.WorkingHoursEntry
		bookings  []domain.Booking
		blackouts []domain.BlackoutPeriod
		holds     []domain.ReservationHold
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hours, err = s.catalog.ListWorkingHours(gctx, staffIDs, day.Weekday())
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.bookings.ListBlocking(gctx, tenant.ID, staffIDs, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		blackouts, err = s.catalog.ListBlackouts(gctx, tenant.ID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		holds, err = s.holds.ListActive(gctx, tenant.ID, staffIDs, from, to, now)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("GetSlots: failed to load inputs for tenant=%d service=%d: %v", tenant.ID, service.ID, err)
		return nil, fmt.Errorf("%w: GetSlots - load inputs: %v", ErrInternal, err)
	}

	if q.IgnoreHoldsOf != "" {
		holds = withoutConversation(holds, q.IgnoreHoldsOf)
	}

	result.Slots = Calculate(Input{
		Date:          day,
		Location:      loc,
		SlotDuration:  cfg.SlotDuration(),
		Buffer:        cfg.Buffer(),
		TotalDuration: cfg.TotalDuration(service.DurationMinutes, q.ExtraSlots),
		Now:           now,
		Staff:         staff,
		WorkingHours:  hours,
		Bookings:      bookings,
		Blackouts:     blackouts,
		Holds:         holds,
	})

	s.logger.Info("GetSlots: tenant=%d service=%d date=%s staff=%d found %d slots",
		tenant.ID, service.ID, dayStart.Format(domain.DateFormat), len(staff), len(result.Slots))

	return result, nil
}

// EligibleStaff активные сотрудники, оказывающие услугу, по возрастанию id.
// Если staffID задан, возвращается только он; сотрудник без права на услугу - ErrStaffNotFound
func (s *Service) EligibleStaff(ctx context.Context, tenantID, serviceID int64, staffID *int64) ([]domain.StaffMember, error) {
	if staffID != nil {
		member, err := s.catalog.GetStaff(ctx, tenantID, *staffID)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrStaffNotFound) {
				return nil, ErrStaffNotFound
			}
			return nil, fmt.Errorf("%w: EligibleStaff - get staff: %v", ErrInternal, err)
		}
		if !member.CanPerform(serviceID) {
			return nil, ErrStaffNotFound
		}
		return []domain.StaffMember{*member}, nil
	}

	all, err := s.catalog.ListActiveStaff(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: EligibleStaff - list staff: %v", ErrInternal, err)
	}

	eligible := make([]domain.StaffMember, 0, len(all))
	for _, member := range all {
		if member.CanPerform(serviceID) {
			eligible = append(eligible, member)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })
	return eligible, nil
}

func (s *Service) loadService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error) {
	service, err := s.catalog.GetService(ctx, tenantID, serviceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("%w: GetSlots - get service: %v", ErrInternal, err)
	}
	if !service.Active {
		return nil, ErrServiceNotFound
	}
	return service, nil
}

func withoutConversation(holds []domain.ReservationHold, conversationKey string) []domain.ReservationHold {
	out := holds[:0:0]
	for _, h := range holds {
		if h.ConversationKey != conversationKey {
			out = append(out, h)
		}
	}
	return out
}
