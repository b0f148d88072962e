package benefits

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	packagesRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/packages"
	subscriptionsRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/subscriptions"
)

// ResolveRequest параметры выбора льготы для записи
type ResolveRequest struct {
	Tenant     *domain.Tenant
	CustomerID int64 // 0 - клиент еще не существует, льгот у него нет
	ServiceID  int64

	ExplicitPackageID      *int64
	ExplicitSubscriptionID *int64
}

// HasExplicit возвращает true, если льгота указана вызывающим
func (r ResolveRequest) HasExplicit() bool {
	return r.ExplicitPackageID != nil || r.ExplicitSubscriptionID != nil
}

// Resolver выбирает подписку или пакет, которыми оплачивается запись
type Resolver struct {
	packages      PackageRepository
	subscriptions SubscriptionRepository
	timeProvider  TimeProvider
	logger        Logger
}

// NewResolver создает новый экземпляр Resolver
func NewResolver(
	packages PackageRepository,
	subscriptions SubscriptionRepository,
	timeProvider TimeProvider,
	logger Logger,
) *Resolver {
	return &Resolver{
		packages:      packages,
		subscriptions: subscriptions,
		timeProvider:  timeProvider,
		logger:        logger,
	}
}

// Resolve проверяет явно указанную льготу или подбирает ее автоматически.
// Неверная явная льгота - ошибка, автоподбор в этом случае не выполняется
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (domain.BenefitSource, error) {
	if req.HasExplicit() {
		return r.ValidateExplicit(ctx, req)
	}
	return r.AutoResolve(ctx, req)
}

// ValidateExplicit проверяет явно указанный пакет или подписку теми же правилами, что и автоподбор
func (r *Resolver) ValidateExplicit(ctx context.Context, req ResolveRequest) (domain.BenefitSource, error) {
	if req.ExplicitPackageID != nil && req.ExplicitSubscriptionID != nil {
		return domain.NoBenefit(), ErrAmbiguousBenefit
	}

	if req.ExplicitSubscriptionID != nil {
		if err := r.validateSubscription(ctx, req, *req.ExplicitSubscriptionID); err != nil {
			return domain.NoBenefit(), err
		}
		return domain.SubscriptionBenefit(*req.ExplicitSubscriptionID), nil
	}

	if req.ExplicitPackageID != nil {
		if err := r.validatePackage(ctx, req, *req.ExplicitPackageID); err != nil {
			return domain.NoBenefit(), err
		}
		return domain.PackageBenefit(*req.ExplicitPackageID), nil
	}

	return domain.NoBenefit(), nil
}

// AutoResolve сначала ищет подходящую подписку, затем пакет.
// Среди подписок выигрывает та, чей текущий период заканчивается раньше, среди пакетов - самый старый.
// При равенстве - меньший id
func (r *Resolver) AutoResolve(ctx context.Context, req ResolveRequest) (domain.BenefitSource, error) {
	if req.CustomerID <= 0 {
		return domain.NoBenefit(), nil
	}

	now := r.timeProvider.Now()
	grace := req.Tenant.Config.WithDefaults().GracePeriod()

	subs, err := r.subscriptions.ListByCustomer(ctx, req.Tenant.ID, req.CustomerID)
	if err != nil {
		return domain.NoBenefit(), fmt.Errorf("%w: AutoResolve - list subscriptions: %v", ErrInternal, err)
	}

	eligibleSubs := make([]domain.SubscriptionInstance, 0, len(subs))
	for _, sub := range subs {
		if sub.Covers(req.ServiceID) && sub.IsEligible(now, grace) {
			eligibleSubs = append(eligibleSubs, sub)
		}
	}
	if len(eligibleSubs) > 0 {
		sort.Slice(eligibleSubs, func(i, j int) bool {
			ei, ej := eligibleSubs[i].Period().End, eligibleSubs[j].Period().End
			if !ei.Equal(ej) {
				return ei.Before(ej)
			}
			return eligibleSubs[i].ID < eligibleSubs[j].ID
		})
		chosen := eligibleSubs[0]
		r.logger.Info("AutoResolve: customer=%d service=%d uses subscription id=%d", req.CustomerID, req.ServiceID, chosen.ID)
		return domain.SubscriptionBenefit(chosen.ID), nil
	}

	pkgs, err := r.packages.ListByCustomer(ctx, req.Tenant.ID, req.CustomerID)
	if err != nil {
		return domain.NoBenefit(), fmt.Errorf("%w: AutoResolve - list packages: %v", ErrInternal, err)
	}
	sort.Slice(pkgs, func(i, j int) bool {
		if !pkgs[i].PurchasedAt.Equal(pkgs[j].PurchasedAt) {
			return pkgs[i].PurchasedAt.Before(pkgs[j].PurchasedAt)
		}
		return pkgs[i].ID < pkgs[j].ID
	})

	for _, pkg := range pkgs {
		if !pkg.IsUsable() {
			continue
		}
		usage, err := r.packages.GetServiceUsage(ctx, pkg.ID, req.ServiceID)
		if err != nil {
			if errors.Is(err, packagesRepo.ErrUsageNotFound) {
				continue
			}
			return domain.NoBenefit(), fmt.Errorf("%w: AutoResolve - get package usage: %v", ErrInternal, err)
		}
		if usage.HasRemaining() {
			r.logger.Info("AutoResolve: customer=%d service=%d uses package id=%d", req.CustomerID, req.ServiceID, pkg.ID)
			return domain.PackageBenefit(pkg.ID), nil
		}
	}

	return domain.NoBenefit(), nil
}

func (r *Resolver) validateSubscription(ctx context.Context, req ResolveRequest, id int64) error {
	sub, err := r.subscriptions.GetInstance(ctx, req.Tenant.ID, id)
	if err != nil {
		if errors.Is(err, subscriptionsRepo.ErrSubscriptionNotFound) {
			return fmt.Errorf("%w: subscription id=%d not found", ErrSubscriptionInvalid, id)
		}
		return fmt.Errorf("%w: validateSubscription - get instance: %v", ErrInternal, err)
	}

	grace := req.Tenant.Config.WithDefaults().GracePeriod()
	switch {
	case req.CustomerID <= 0 || sub.CustomerID != req.CustomerID:
		return fmt.Errorf("%w: subscription id=%d belongs to another customer", ErrSubscriptionInvalid, id)
	case !sub.Covers(req.ServiceID):
		return fmt.Errorf("%w: subscription id=%d does not cover service=%d", ErrSubscriptionInvalid, id, req.ServiceID)
	case !sub.IsEligible(r.timeProvider.Now(), grace):
		return fmt.Errorf("%w: subscription id=%d is not eligible (status=%s)", ErrSubscriptionInvalid, id, sub.Status)
	}
	return nil
}

func (r *Resolver) validatePackage(ctx context.Context, req ResolveRequest, id int64) error {
	pkg, err := r.packages.GetInstance(ctx, req.Tenant.ID, id)
	if err != nil {
		if errors.Is(err, packagesRepo.ErrPackageNotFound) {
			return fmt.Errorf("%w: package id=%d not found", ErrPackageInvalid, id)
		}
		return fmt.Errorf("%w: validatePackage - get instance: %v", ErrInternal, err)
	}

	if req.CustomerID <= 0 || pkg.CustomerID != req.CustomerID {
		return fmt.Errorf("%w: package id=%d belongs to another customer", ErrPackageInvalid, id)
	}
	if !pkg.IsUsable() {
		return fmt.Errorf("%w: package id=%d is not usable (status=%s, payment=%s)", ErrPackageInvalid, id, pkg.Status, pkg.PaymentStatus)
	}

	usage, err := r.packages.GetServiceUsage(ctx, pkg.ID, req.ServiceID)
	if err != nil {
		if errors.Is(err, packagesRepo.ErrUsageNotFound) {
			return fmt.Errorf("%w: package id=%d does not include service=%d", ErrPackageInvalid, id, req.ServiceID)
		}
		return fmt.Errorf("%w: validatePackage - get usage: %v", ErrInternal, err)
	}
	if !usage.HasRemaining() {
		return fmt.Errorf("%w: package id=%d has no sessions left for service=%d", ErrPackageInvalid, id, req.ServiceID)
	}
	return nil
}
