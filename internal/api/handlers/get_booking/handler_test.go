package get_booking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/tenants"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type fakeTenants struct{ err error }

func (f fakeTenants) Resolve(_ context.Context, ref string) (*domain.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Tenant{ID: 1, Slug: ref}, nil
}

type fakeService struct{ err error }

func (f fakeService) GetByID(_ context.Context, tenantID, id int64) (*models.BookingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingResponse{ID: id, TenantID: tenantID}, nil
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		tenants fakeTenants
		svc     fakeService
		status  int
	}{
		{"ok", "/api/v1/tenants/1/bookings/77", fakeTenants{}, fakeService{}, http.StatusOK},
		{"bad id", "/api/v1/tenants/1/bookings/-3", fakeTenants{}, fakeService{}, http.StatusBadRequest},
		{"tenant", "/api/v1/tenants/x/bookings/77", fakeTenants{err: tenants.ErrTenantNotFound}, fakeService{}, http.StatusNotFound},
		{"tenant lookup failed", "/api/v1/tenants/x/bookings/77", fakeTenants{err: errors.New("db")}, fakeService{}, http.StatusInternalServerError},
		{"not found", "/api/v1/tenants/1/bookings/77", fakeTenants{}, fakeService{err: bookings.ErrBookingNotFound}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mux.NewRouter()
			r.HandleFunc("/api/v1/tenants/{tenant}/bookings/{bookingId}", NewHandler(tt.tenants, tt.svc, logger.NewNop()).Handle)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
