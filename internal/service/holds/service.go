package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	holdRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/hold"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
)

// CreateRequest параметры удержания
type CreateRequest struct {
	TenantID        int64
	StaffID         int64
	ServiceID       int64
	ConversationKey string
	StartsAt        time.Time
	EndsAt          time.Time
	Buffer          time.Duration
}

// Service удержания слотов на время, пока клиент заканчивает диалог.
// Удержание скрывает слот от других разговоров, но не участвует в проверке при резервировании
type Service struct {
	holds        HoldRepository
	bookings     BookingRepository
	blackouts    BlackoutRepository
	scheduler    ExpiryScheduler
	locks        KeyLocker
	txManager    TransactionManager
	timeProvider TimeProvider
	ttl          time.Duration
	logger       Logger
}

// NewService создает новый экземпляр сервиса удержаний
func NewService(
	holds HoldRepository,
	bookings BookingRepository,
	blackouts BlackoutRepository,
	scheduler ExpiryScheduler,
	locks KeyLocker,
	txManager TransactionManager,
	timeProvider TimeProvider,
	ttl time.Duration,
	logger Logger,
) *Service {
	return &Service{
		holds:        holds,
		bookings:     bookings,
		blackouts:    blackouts,
		scheduler:    scheduler,
		locks:        locks,
		txManager:    txManager,
		timeProvider: timeProvider,
		ttl:          ttl,
		logger:       logger,
	}
}

// Create удерживает окно для разговора. Прежние удержания этого разговора освобождаются
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.ReservationHold, error) {
	if req.TenantID <= 0 || req.StaffID <= 0 || req.ConversationKey == "" || !req.StartsAt.Before(req.EndsAt) {
		return nil, ErrInvalidRequest
	}

	unlock, err := s.locks.Lock(ctx, fmt.Sprintf("booking:%d:%d", req.TenantID, req.StaffID))
	if err != nil {
		return nil, fmt.Errorf("%w: Create - acquire lock: %v", ErrInternal, err)
	}
	defer unlock()

	now := s.timeProvider.Now()
	hold := &domain.ReservationHold{
		ID:              uuid.New(),
		TenantID:        req.TenantID,
		StaffID:         req.StaffID,
		ServiceID:       req.ServiceID,
		ConversationKey: req.ConversationKey,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		ExpiresAt:       now.Add(s.ttl),
		Status:          domain.HoldActive,
		CreatedAt:       now,
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.bookings.LockStaffSchedule(ctx, req.TenantID, req.StaffID); err != nil {
			return fmt.Errorf("%w: Create - lock staff schedule: %v", ErrInternal, err)
		}

		if _, err := s.holds.ReleaseByConversation(ctx, req.ConversationKey); err != nil {
			return fmt.Errorf("%w: Create - release previous holds: %v", ErrInternal, err)
		}

		from, to := req.StartsAt.Add(-req.Buffer), req.EndsAt.Add(req.Buffer)
		staffIDs := []int64{req.StaffID}

		existing, err := s.bookings.ListBlocking(ctx, req.TenantID, staffIDs, from, to)
		if err != nil {
			return fmt.Errorf("%w: Create - list bookings: %v", ErrInternal, err)
		}
		blackouts, err := s.blackouts.ListBlackouts(ctx, req.TenantID, from, to)
		if err != nil {
			return fmt.Errorf("%w: Create - list blackouts: %v", ErrInternal, err)
		}
		active, err := s.holds.ListActive(ctx, req.TenantID, staffIDs, from, to, now)
		if err != nil {
			return fmt.Errorf("%w: Create - list holds: %v", ErrInternal, err)
		}

		others := active[:0:0]
		for _, h := range active {
			if h.ConversationKey != req.ConversationKey {
				others = append(others, h)
			}
		}

		busy := availability.BusyRanges(req.StaffID, req.Buffer, now, existing, blackouts, others)
		if availability.Conflicts(hold.Range(), busy) {
			return ErrHoldConflict
		}

		if err := s.holds.Create(ctx, hold); err != nil {
			return fmt.Errorf("%w: Create - insert hold: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrHoldConflict) {
			s.logger.Info("Create: hold conflict for tenant=%d staff=%d at %s", req.TenantID, req.StaffID, req.StartsAt.Format("2006-01-02 15:04"))
			return nil, ErrHoldConflict
		}
		s.logger.Error("Create: failed to hold slot for tenant=%d staff=%d: %v", req.TenantID, req.StaffID, err)
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: Create - transaction: %v", ErrInternal, err)
	}

	if err := s.scheduler.ScheduleHoldExpiry(ctx, hold.ID, hold.ExpiresAt); err != nil {
		// доступность и так фильтрует удержания по expires_at
		s.logger.Warn("Create: failed to schedule expiry for hold=%s: %v", hold.ID, err)
	}

	s.logger.Info("Create: hold=%s tenant=%d staff=%d until %s", hold.ID, req.TenantID, req.StaffID, hold.ExpiresAt.Format(time.RFC3339))
	return hold, nil
}

// Convert отмечает удержание как превращенное в бронирование
func (s *Service) Convert(ctx context.Context, holdID uuid.UUID, bookingID int64) error {
	return s.transition(ctx, "Convert", holdID, domain.HoldConverted, &bookingID)
}

// Release освобождает удержание (сброс разговора, проигранная гонка)
func (s *Service) Release(ctx context.Context, holdID uuid.UUID) error {
	return s.transition(ctx, "Release", holdID, domain.HoldExpired, nil)
}

// Expire переводит удержание в expired по истечении срока. Неактивные удержания пропускаются
func (s *Service) Expire(ctx context.Context, holdID uuid.UUID) error {
	err := s.transition(ctx, "Expire", holdID, domain.HoldExpired, nil)
	if errors.Is(err, ErrHoldNotFound) {
		return nil
	}
	return err
}

// ReleaseConversation освобождает все активные удержания разговора
func (s *Service) ReleaseConversation(ctx context.Context, conversationKey string) error {
	n, err := s.holds.ReleaseByConversation(ctx, conversationKey)
	if err != nil {
		s.logger.Error("ReleaseConversation: conversation=%s: %v", conversationKey, err)
		return fmt.Errorf("%w: ReleaseConversation - %v", ErrInternal, err)
	}
	if n > 0 {
		s.logger.Info("ReleaseConversation: released %d holds of conversation=%s", n, conversationKey)
	}
	return nil
}

func (s *Service) transition(ctx context.Context, op string, holdID uuid.UUID, to domain.HoldStatus, bookingID *int64) error {
	err := s.holds.Transition(ctx, holdID, domain.HoldActive, to, bookingID)
	if err != nil {
		if errors.Is(err, holdRepo.ErrHoldNotFound) {
			return ErrHoldNotFound
		}
		s.logger.Error("%s: hold=%s: %v", op, holdID, err)
		return fmt.Errorf("%w: %s - %v", ErrInternal, op, err)
	}
	s.logger.Info("%s: hold=%s -> %s", op, holdID, to)
	return nil
}
