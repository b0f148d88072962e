package benefits

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	packagesRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/packages"
	subscriptionsRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/subscriptions"
)

var tracer = otel.Tracer("benefits")

// Ledger учет использования пакетов и подписок.
// Consume вызывается только после фиксации бронирования, Reverse - при его отмене
type Ledger struct {
	packages      PackageRepository
	subscriptions SubscriptionRepository
	txManager     TransactionManager
	logger        Logger
}

// NewLedger создает новый экземпляр Ledger
func NewLedger(
	packages PackageRepository,
	subscriptions SubscriptionRepository,
	txManager TransactionManager,
	logger Logger,
) *Ledger {
	return &Ledger{
		packages:      packages,
		subscriptions: subscriptions,
		txManager:     txManager,
		logger:        logger,
	}
}

// Consume списывает сессию льготы, к которой привязано бронирование
func (l *Ledger) Consume(ctx context.Context, booking *domain.Booking) error {
	source := booking.Benefit()
	if source.IsNone() {
		return nil
	}

	ctx, span := tracer.Start(ctx, "benefits.Consume")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("booking.id", booking.ID),
		attribute.String("benefit.kind", string(source.Kind)),
	)

	err := l.txManager.Do(ctx, func(ctx context.Context) error {
		switch source.Kind {
		case domain.BenefitPackage:
			return l.consumePackage(ctx, booking, *source.PackageInstanceID)
		case domain.BenefitSubscription:
			return l.consumeSubscription(ctx, booking, *source.SubscriptionInstanceID)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "consume failed")
		return err
	}

	l.logger.Info("Consume: booking id=%d consumed %s benefit", booking.ID, source.Kind)
	return nil
}

// Reverse возвращает сессию при отмене бронирования. Счетчики не опускаются ниже нуля
func (l *Ledger) Reverse(ctx context.Context, booking *domain.Booking) error {
	source := booking.Benefit()
	if source.IsNone() {
		return nil
	}

	ctx, span := tracer.Start(ctx, "benefits.Reverse")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("booking.id", booking.ID),
		attribute.String("benefit.kind", string(source.Kind)),
	)

	err := l.txManager.Do(ctx, func(ctx context.Context) error {
		switch source.Kind {
		case domain.BenefitPackage:
			return l.reversePackage(ctx, booking, *source.PackageInstanceID)
		case domain.BenefitSubscription:
			return l.reverseSubscription(ctx, booking, *source.SubscriptionInstanceID)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reverse failed")
		return err
	}

	l.logger.Info("Reverse: booking id=%d released %s benefit", booking.ID, source.Kind)
	return nil
}

func (l *Ledger) consumePackage(ctx context.Context, booking *domain.Booking, instanceID int64) error {
	instance, usage, err := l.lockPackage(ctx, booking, instanceID)
	if err != nil {
		return err
	}

	if usage.HasBooking(booking.ID) {
		l.logger.Warn("Consume: booking id=%d already consumed a session of package id=%d", booking.ID, instanceID)
		return nil
	}

	if err := usage.Consume(booking.ID); err != nil {
		return fmt.Errorf("%w: consumePackage - service usage of package id=%d: %v", ErrPackageInvalid, instanceID, err)
	}
	if err := instance.Consume(); err != nil {
		return fmt.Errorf("%w: consumePackage - package id=%d: %v", ErrPackageInvalid, instanceID, err)
	}

	return l.savePackage(ctx, instance, usage)
}

func (l *Ledger) reversePackage(ctx context.Context, booking *domain.Booking, instanceID int64) error {
	instance, usage, err := l.lockPackage(ctx, booking, instanceID)
	if err != nil {
		return err
	}

	if err := usage.Release(booking.ID); err != nil {
		if errors.Is(err, domain.ErrBookingNotLinked) {
			// списание могло не состояться (ошибка после фиксации записи)
			l.logger.Warn("Reverse: booking id=%d did not consume a session of package id=%d", booking.ID, instanceID)
			return nil
		}
		return fmt.Errorf("%w: reversePackage - release usage: %v", ErrInternal, err)
	}
	instance.Release()

	return l.savePackage(ctx, instance, usage)
}

func (l *Ledger) lockPackage(ctx context.Context, booking *domain.Booking, instanceID int64) (*domain.PackageInstance, *domain.PackageServiceUsage, error) {
	instance, err := l.packages.GetInstance(ctx, booking.TenantID, instanceID)
	if err != nil {
		if errors.Is(err, packagesRepo.ErrPackageNotFound) {
			return nil, nil, fmt.Errorf("%w: package id=%d not found", ErrPackageInvalid, instanceID)
		}
		return nil, nil, fmt.Errorf("%w: lockPackage - get instance: %v", ErrInternal, err)
	}

	usage, err := l.packages.GetServiceUsage(ctx, instanceID, booking.ServiceID)
	if err != nil {
		if errors.Is(err, packagesRepo.ErrUsageNotFound) {
			return nil, nil, fmt.Errorf("%w: package id=%d has no usage for service=%d", ErrPackageInvalid, instanceID, booking.ServiceID)
		}
		return nil, nil, fmt.Errorf("%w: lockPackage - get usage: %v", ErrInternal, err)
	}

	return instance, usage, nil
}

func (l *Ledger) savePackage(ctx context.Context, instance *domain.PackageInstance, usage *domain.PackageServiceUsage) error {
	if err := l.packages.UpdateServiceUsage(ctx, usage); err != nil {
		return fmt.Errorf("%w: savePackage - update service usage: %v", ErrInternal, err)
	}
	if err := l.packages.UpdateInstanceUsage(ctx, instance); err != nil {
		return fmt.Errorf("%w: savePackage - update instance: %v", ErrInternal, err)
	}
	return nil
}

func (l *Ledger) consumeSubscription(ctx context.Context, booking *domain.Booking, instanceID int64) error {
	sub, err := l.subscriptions.GetInstance(ctx, booking.TenantID, instanceID)
	if err != nil {
		if errors.Is(err, subscriptionsRepo.ErrSubscriptionNotFound) {
			return fmt.Errorf("%w: subscription id=%d not found", ErrSubscriptionInvalid, instanceID)
		}
		return fmt.Errorf("%w: consumeSubscription - get instance: %v", ErrInternal, err)
	}

	usage, err := l.subscriptions.GetOrCreateUsage(ctx, sub.ID, booking.ServiceID, sub.Period())
	if err != nil {
		return fmt.Errorf("%w: consumeSubscription - get usage: %v", ErrInternal, err)
	}

	usage.Record(booking.ID)

	if err := l.subscriptions.UpdateUsage(ctx, usage); err != nil {
		return fmt.Errorf("%w: consumeSubscription - update usage: %v", ErrInternal, err)
	}
	return nil
}

func (l *Ledger) reverseSubscription(ctx context.Context, booking *domain.Booking, instanceID int64) error {
	usage, err := l.subscriptions.FindUsageByBooking(ctx, instanceID, booking.ID)
	if err != nil {
		if errors.Is(err, subscriptionsRepo.ErrUsageNotFound) {
			// списание могло не состояться (ошибка после фиксации записи)
			l.logger.Warn("Reverse: booking id=%d is not recorded in subscription id=%d usage", booking.ID, instanceID)
			return nil
		}
		return fmt.Errorf("%w: reverseSubscription - find usage: %v", ErrInternal, err)
	}

	if err := usage.Remove(booking.ID); err != nil {
		return fmt.Errorf("%w: reverseSubscription - remove booking: %v", ErrInternal, err)
	}

	if err := l.subscriptions.UpdateUsage(ctx, usage); err != nil {
		return fmt.Errorf("%w: reverseSubscription - update usage: %v", ErrInternal, err)
	}
	return nil
}
