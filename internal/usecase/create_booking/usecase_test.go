package create_booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	customerRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/customer"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/benefits"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservation"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/tenants"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

var now = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return now }

type fakeTenants struct {
	tenant *domain.Tenant
}

func (f *fakeTenants) Resolve(_ context.Context, ref string) (*domain.Tenant, error) {
	if ref == f.tenant.Slug || ref == fmt.Sprint(f.tenant.ID) {
		return f.tenant, nil
	}
	return nil, tenants.ErrTenantNotFound
}

type fakeCatalog struct {
	services map[int64]*domain.Service
}

func (f *fakeCatalog) GetService(_ context.Context, _ int64, serviceID int64) (*domain.Service, error) {
	if s, ok := f.services[serviceID]; ok {
		return s, nil
	}
	return nil, catalogRepo.ErrServiceNotFound
}

type fakeCustomers struct {
	byPhone  map[string]*domain.Customer
	upserted []*domain.Customer
	nextID   int64
}

func (f *fakeCustomers) FindByPhone(_ context.Context, _ int64, phone string) (*domain.Customer, error) {
	if c, ok := f.byPhone[phone]; ok {
		return c, nil
	}
	return nil, customerRepo.ErrCustomerNotFound
}

func (f *fakeCustomers) Upsert(_ context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if existing, ok := f.byPhone[customer.Phone]; ok {
		customer.ID = existing.ID
	} else {
		f.nextID++
		customer.ID = f.nextID
		f.byPhone[customer.Phone] = customer
	}
	f.upserted = append(f.upserted, customer)
	return customer, nil
}

type fakeResolver struct {
	source  domain.BenefitSource
	err     error
	lastReq benefits.ResolveRequest
}

func (f *fakeResolver) Resolve(_ context.Context, req benefits.ResolveRequest) (domain.BenefitSource, error) {
	f.lastReq = req
	if f.err != nil {
		return domain.BenefitSource{}, f.err
	}
	return f.source, nil
}

type fakeReserver struct {
	err      error
	requests []reservation.Request
}

func (f *fakeReserver) Reserve(_ context.Context, req reservation.Request) (*domain.Booking, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	staffID := int64(3)
	if req.StaffID != nil {
		staffID = *req.StaffID
	}
	return &domain.Booking{
		ID:                     500 + int64(len(f.requests)),
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
	}, nil
}

type fakeLedger struct {
	err      error
	consumed []int64
}

func (f *fakeLedger) Consume(_ context.Context, booking *domain.Booking) error {
	if f.err != nil {
		return f.err
	}
	f.consumed = append(f.consumed, booking.ID)
	return nil
}

type fakeNotifier struct {
	err    error
	events []notifier.BookingConfirmed
}

func (f *fakeNotifier) BookingConfirmed(_ context.Context, event notifier.BookingConfirmed) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeMetrics struct {
	failures []string
}

func (f *fakeMetrics) BenefitConsumptionFailed(kind string) {
	f.failures = append(f.failures, kind)
}

type fixture struct {
	uc        *UseCase
	tenant    *domain.Tenant
	customers *fakeCustomers
	resolver  *fakeResolver
	reserver  *fakeReserver
	ledger    *fakeLedger
	notifier  *fakeNotifier
	metrics   *fakeMetrics
}

func newFixture() *fixture {
	f := &fixture{
		tenant: &domain.Tenant{
			ID:       1,
			Slug:     "studio-bella",
			Timezone: "UTC",
			Active:   true,
			Config: domain.TenantConfig{
				SlotDurationMinutes: 30,
				BufferMinutes:       10,
				ExtraSlotMinutes:    15,
			},
		},
		customers: &fakeCustomers{byPhone: map[string]*domain.Customer{}},
		resolver:  &fakeResolver{source: domain.NoBenefit()},
		reserver:  &fakeReserver{},
		ledger:    &fakeLedger{},
		notifier:  &fakeNotifier{},
		metrics:   &fakeMetrics{},
	}
	catalog := &fakeCatalog{services: map[int64]*domain.Service{
		10: {ID: 10, TenantID: 1, Name: "Corte", DurationMinutes: 30, Active: true},
	}}
	f.uc = NewUseCase(
		&fakeTenants{tenant: f.tenant},
		catalog,
		f.customers,
		f.resolver,
		f.reserver,
		f.ledger,
		f.notifier,
		f.metrics,
		fixedClock{},
		logger.NewNop(),
	)
	return f
}

func validRequest() *Request {
	return &Request{
		TenantRef: "studio-bella",
		ServiceID: 10,
		Customer: CustomerInput{
			Name:  "Maria Souza",
			Phone: "+55 (11) 8765-4321",
		},
		StartsAt:      now.Add(24 * time.Hour),
		PaymentMethod: domain.PaymentOnSite,
		CreatedVia:    domain.CreatedViaWeb,
	}
}

func TestExecute_OnSiteBooking(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusConfirmed, resp.Booking.Status)
	assert.True(t, resp.Benefit.IsNone())
	assert.Equal(t, "11987654321", resp.Customer.Phone)

	require.Len(t, f.reserver.requests, 1)
	req := f.reserver.requests[0]
	assert.Equal(t, 10*time.Minute, req.Buffer)
	assert.Equal(t, 30*time.Minute, req.EndsAt.Sub(req.StartsAt))

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, resp.Booking.ID, f.notifier.events[0].BookingID)
	assert.Equal(t, "Maria Souza", f.notifier.events[0].CustomerName)
}

func TestExecute_ExtraSlotsExtendDuration(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.ExtraSlots = 2

	_, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	r := f.reserver.requests[0]
	assert.Equal(t, 60*time.Minute, r.EndsAt.Sub(r.StartsAt))
}

func TestExecute_OnlinePaymentIsPendingAndSilent(t *testing.T) {
	f := newFixture()
	f.tenant.Config.OnlinePaymentEnabled = true
	req := validRequest()
	req.PaymentMethod = domain.PaymentOnline

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPendingPayment, resp.Booking.Status)
	assert.Empty(t, f.notifier.events)
}

func TestExecute_OnlinePaymentWithBenefitIsConfirmed(t *testing.T) {
	f := newFixture()
	f.tenant.Config.OnlinePaymentEnabled = true
	f.resolver.source = domain.PackageBenefit(8)
	req := validRequest()
	req.PaymentMethod = domain.PaymentOnline

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, resp.Booking.Status)
}

func TestExecute_RecurringIsNotNotified(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.CreatedVia = domain.CreatedViaRecurring

	_, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.events)
}

func TestExecute_NotificationFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("broker down")

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotNil(t, resp.Booking)
}

func TestExecute_ConsumesBenefitAfterCommit(t *testing.T) {
	f := newFixture()
	f.customers.byPhone["11987654321"] = &domain.Customer{ID: 42, TenantID: 1, Phone: "11987654321"}
	f.resolver.source = domain.SubscriptionBenefit(4)

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(42), f.resolver.lastReq.CustomerID)
	assert.Equal(t, int64(42), resp.Customer.ID)
	assert.Equal(t, domain.BenefitSubscription, resp.Benefit.Kind)
	require.NotNil(t, resp.Booking.SubscriptionInstanceID)
	assert.Equal(t, int64(4), *resp.Booking.SubscriptionInstanceID)
	assert.Equal(t, []int64{resp.Booking.ID}, f.ledger.consumed)
}

func TestExecute_ConsumeFailureKeepsBooking(t *testing.T) {
	f := newFixture()
	f.resolver.source = domain.PackageBenefit(8)
	f.ledger.err = errors.New("serialization failure")

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotZero(t, resp.Booking.ID)
	assert.Equal(t, []string{"package"}, f.metrics.failures)
}

func TestExecute_NewCustomerHasNoBenefitHistory(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Zero(t, f.resolver.lastReq.CustomerID)
}

func TestExecute_FailsBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *fixture, req *Request)
		wantErr  error
		wantCode string
	}{
		{
			name:     "start in the past",
			mutate:   func(_ *fixture, req *Request) { req.StartsAt = now.Add(-time.Minute) },
			wantErr:  ErrInvalidPayload,
			wantCode: CodeInvalidPayload,
		},
		{
			name:     "start equals now",
			mutate:   func(_ *fixture, req *Request) { req.StartsAt = now },
			wantErr:  ErrInvalidPayload,
			wantCode: CodeInvalidPayload,
		},
		{
			name:     "short name",
			mutate:   func(_ *fixture, req *Request) { req.Customer.Name = "A" },
			wantErr:  ErrInvalidPayload,
			wantCode: CodeInvalidPayload,
		},
		{
			name:     "bad phone",
			mutate:   func(_ *fixture, req *Request) { req.Customer.Phone = "12345" },
			wantErr:  ErrInvalidPayload,
			wantCode: CodeInvalidPayload,
		},
		{
			name:     "too many extra slots",
			mutate:   func(_ *fixture, req *Request) { req.ExtraSlots = 13 },
			wantErr:  ErrInvalidPayload,
			wantCode: CodeInvalidPayload,
		},
		{
			name:     "online payment disabled",
			mutate:   func(_ *fixture, req *Request) { req.PaymentMethod = domain.PaymentOnline },
			wantErr:  ErrInvalidPayload,
			wantCode: CodeInvalidPayload,
		},
		{
			name: "both package and subscription",
			mutate: func(_ *fixture, req *Request) {
				req.ExplicitPackageID = ptr.Ptr(int64(1))
				req.ExplicitSubscriptionID = ptr.Ptr(int64(2))
			},
			wantErr:  ErrInvalidPayload,
			wantCode: CodeInvalidPayload,
		},
		{
			name:     "unknown tenant",
			mutate:   func(_ *fixture, req *Request) { req.TenantRef = "other" },
			wantErr:  ErrTenantNotFound,
			wantCode: CodeTenantNotFound,
		},
		{
			name:     "unknown service",
			mutate:   func(_ *fixture, req *Request) { req.ServiceID = 99 },
			wantErr:  ErrServiceNotFound,
			wantCode: CodeServiceNotFound,
		},
		{
			name: "invalid explicit package",
			mutate: func(f *fixture, req *Request) {
				req.ExplicitPackageID = ptr.Ptr(int64(7))
				f.resolver.err = fmt.Errorf("%w: no sessions left", benefits.ErrPackageInvalid)
			},
			wantErr:  ErrPackageInvalid,
			wantCode: CodePackageInvalid,
		},
		{
			name: "invalid explicit subscription",
			mutate: func(f *fixture, req *Request) {
				req.ExplicitSubscriptionID = ptr.Ptr(int64(7))
				f.resolver.err = fmt.Errorf("%w: grace expired", benefits.ErrSubscriptionInvalid)
			},
			wantErr:  ErrSubscriptionInvalid,
			wantCode: CodeSubscriptionInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := validRequest()
			tt.mutate(f, req)

			_, err := f.uc.Execute(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, ErrorCode(err))

			assert.Empty(t, f.customers.upserted)
			assert.Empty(t, f.reserver.requests)
		})
	}
}

func TestExecute_ReservationErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantErr  error
		wantCode string
	}{
		{name: "lost race", err: reservation.ErrTimeConflict, wantErr: ErrTimeConflict, wantCode: CodeTimeConflict},
		{name: "no staff", err: reservation.ErrStaffNotFound, wantErr: ErrStaffNotFound, wantCode: CodeStaffNotFound},
		{name: "database down", err: fmt.Errorf("%w: boom", reservation.ErrInternal), wantErr: ErrBookingCreateFailed, wantCode: CodeBookingCreateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.resolver.source = domain.PackageBenefit(8)
			f.reserver.err = tt.err

			_, err := f.uc.Execute(context.Background(), validRequest())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, ErrorCode(err))
			assert.Empty(t, f.ledger.consumed)
			assert.Empty(t, f.notifier.events)
		})
	}
}
