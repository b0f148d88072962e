package create_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	createBooking "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type fakeUseCase struct {
	got  *createBooking.Request
	resp *createBooking.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(uc *fakeUseCase, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/tenants/{tenant}/bookings", NewHandler(uc, logger.NewNop()).Handle).Methods(http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tenants/studio-bella/bookings", strings.NewReader(body)))
	return w
}

const validBody = `{
	"serviceId": 10,
	"customer": {"name": "Maria Silva", "phone": "(11) 98765-4321"},
	"startsAt": "2026-03-10T10:00:00-03:00",
	"extraSlots": 1,
	"paymentMethod": "on_site",
	"packageId": 5
}`

func TestHandle_Created(t *testing.T) {
	start := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	instanceID := int64(5)
	uc := &fakeUseCase{resp: &createBooking.Response{
		Booking: &domain.Booking{
			ID:                77,
			TenantID:          1,
			ServiceID:         10,
			StaffID:           3,
			CustomerID:        9,
			StartsAt:          start,
			EndsAt:            start.Add(45 * time.Minute),
			Status:            domain.StatusConfirmed,
			PaymentMethod:     domain.PaymentOnSite,
			CreatedVia:        domain.CreatedViaWeb,
			PackageInstanceID: &instanceID,
		},
		Benefit:  domain.PackageBenefit(5),
		Customer: &domain.Customer{ID: 9},
		Service:  &domain.Service{ID: 10, Name: "Corte", Price: decimal.RequireFromString("50")},
	}}

	w := serve(uc, validBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, uc.got)
	assert.Equal(t, "studio-bella", uc.got.TenantRef)
	assert.Nil(t, uc.got.StaffID)
	assert.True(t, uc.got.StartsAt.Equal(start))
	assert.Equal(t, 1, uc.got.ExtraSlots)
	assert.Equal(t, int64(5), *uc.got.ExplicitPackageID)
	assert.Equal(t, domain.PaymentOnSite, uc.got.PaymentMethod)

	var body CreateBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(77), body.Booking.ID)
	assert.Equal(t, "package", body.Benefit.Kind)
	assert.Equal(t, int64(5), *body.Benefit.InstanceID)
	assert.Equal(t, "50.00", body.Price)
}

func TestHandle_BadBody(t *testing.T) {
	for _, body := range []string{`{`, `{"serviceId": 10, "startsAt": "10/03/2026 10:00"}`, `{"unknown": true}`} {
		uc := &fakeUseCase{}
		w := serve(uc, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Nil(t, uc.got, body)
		assert.Contains(t, w.Body.String(), "INVALID_PAYLOAD")
	}
}

func TestHandle_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: phone", createBooking.ErrInvalidPayload), http.StatusBadRequest, "INVALID_PAYLOAD"},
		{createBooking.ErrTenantNotFound, http.StatusNotFound, "TENANT_NOT_FOUND"},
		{createBooking.ErrServiceNotFound, http.StatusNotFound, "SERVICE_NOT_FOUND"},
		{createBooking.ErrStaffNotFound, http.StatusNotFound, "STAFF_NOT_FOUND"},
		{createBooking.ErrTimeConflict, http.StatusConflict, "TIME_CONFLICT"},
		{createBooking.ErrPackageInvalid, http.StatusUnprocessableEntity, "PACKAGE_INVALID"},
		{createBooking.ErrSubscriptionInvalid, http.StatusUnprocessableEntity, "SUBSCRIPTION_INVALID"},
		{createBooking.ErrCustomerCreateFailed, http.StatusInternalServerError, "CUSTOMER_CREATE_FAILED"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "BOOKING_CREATE_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w := serve(&fakeUseCase{err: tt.err}, validBody)
			assert.Equal(t, tt.status, w.Code)

			var body struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}
