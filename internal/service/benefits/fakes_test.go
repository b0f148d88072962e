package benefits

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	packagesRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/packages"
	subscriptionsRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/subscriptions"
)

type fakePackages struct {
	instances map[int64]*domain.PackageInstance
	usages    map[[2]int64]*domain.PackageServiceUsage // [instanceID, serviceID]
}

func newFakePackages() *fakePackages {
	return &fakePackages{
		instances: make(map[int64]*domain.PackageInstance),
		usages:    make(map[[2]int64]*domain.PackageServiceUsage),
	}
}

func (f *fakePackages) add(instance domain.PackageInstance, usages ...domain.PackageServiceUsage) {
	inst := instance
	f.instances[inst.ID] = &inst
	for _, u := range usages {
		u := u
		u.PackageInstanceID = inst.ID
		f.usages[[2]int64{inst.ID, u.ServiceID}] = &u
	}
}

func (f *fakePackages) ListByCustomer(_ context.Context, tenantID, customerID int64) ([]domain.PackageInstance, error) {
	out := make([]domain.PackageInstance, 0)
	for _, inst := range f.instances {
		if inst.TenantID == tenantID && inst.CustomerID == customerID {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (f *fakePackages) GetInstance(_ context.Context, tenantID, instanceID int64) (*domain.PackageInstance, error) {
	inst, ok := f.instances[instanceID]
	if !ok || inst.TenantID != tenantID {
		return nil, packagesRepo.ErrPackageNotFound
	}
	cp := *inst
	return &cp, nil
}

func (f *fakePackages) GetServiceUsage(_ context.Context, instanceID, serviceID int64) (*domain.PackageServiceUsage, error) {
	u, ok := f.usages[[2]int64{instanceID, serviceID}]
	if !ok {
		return nil, packagesRepo.ErrUsageNotFound
	}
	cp := *u
	cp.BookingIDs = append([]int64(nil), u.BookingIDs...)
	return &cp, nil
}

func (f *fakePackages) UpdateInstanceUsage(_ context.Context, instance *domain.PackageInstance) error {
	cp := *instance
	f.instances[instance.ID] = &cp
	return nil
}

func (f *fakePackages) UpdateServiceUsage(_ context.Context, usage *domain.PackageServiceUsage) error {
	cp := *usage
	cp.BookingIDs = append([]int64(nil), usage.BookingIDs...)
	f.usages[[2]int64{usage.PackageInstanceID, usage.ServiceID}] = &cp
	return nil
}

type fakeSubscriptions struct {
	instances map[int64]*domain.SubscriptionInstance
	usages    []*domain.SubscriptionUsage
	nextID    int64
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{instances: make(map[int64]*domain.SubscriptionInstance)}
}

func (f *fakeSubscriptions) add(sub domain.SubscriptionInstance) {
	s := sub
	f.instances[s.ID] = &s
}

func (f *fakeSubscriptions) ListByCustomer(_ context.Context, tenantID, customerID int64) ([]domain.SubscriptionInstance, error) {
	out := make([]domain.SubscriptionInstance, 0)
	for _, s := range f.instances {
		if s.TenantID == tenantID && s.CustomerID == customerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSubscriptions) GetInstance(_ context.Context, tenantID, instanceID int64) (*domain.SubscriptionInstance, error) {
	s, ok := f.instances[instanceID]
	if !ok || s.TenantID != tenantID {
		return nil, subscriptionsRepo.ErrSubscriptionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubscriptions) GetOrCreateUsage(_ context.Context, instanceID, serviceID int64, period domain.TimeRange) (*domain.SubscriptionUsage, error) {
	for _, u := range f.usages {
		if u.SubscriptionInstanceID == instanceID && u.ServiceID == serviceID && u.PeriodStart.Equal(period.Start) {
			cp := *u
			cp.BookingIDs = append([]int64(nil), u.BookingIDs...)
			return &cp, nil
		}
	}
	f.nextID++
	u := &domain.SubscriptionUsage{
		ID:                     f.nextID,
		SubscriptionInstanceID: instanceID,
		ServiceID:              serviceID,
		PeriodStart:            period.Start,
		PeriodEnd:              period.End,
	}
	f.usages = append(f.usages, u)
	cp := *u
	return &cp, nil
}

func (f *fakeSubscriptions) FindUsageByBooking(_ context.Context, instanceID, bookingID int64) (*domain.SubscriptionUsage, error) {
	for _, u := range f.usages {
		if u.SubscriptionInstanceID == instanceID && u.HasBooking(bookingID) {
			cp := *u
			cp.BookingIDs = append([]int64(nil), u.BookingIDs...)
			return &cp, nil
		}
	}
	return nil, subscriptionsRepo.ErrUsageNotFound
}

func (f *fakeSubscriptions) UpdateUsage(_ context.Context, usage *domain.SubscriptionUsage) error {
	for i, u := range f.usages {
		if u.ID == usage.ID {
			cp := *usage
			f.usages[i] = &cp
			return nil
		}
	}
	return subscriptionsRepo.ErrUsageNotFound
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }
