package get_available_slots

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	getAvailableSlots "github.com/m04kA/SMC-ReservationEngine/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type fakeUseCase struct {
	got  *getAvailableSlots.Request
	resp *getAvailableSlots.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(uc *fakeUseCase, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/tenants/{tenant}/available-slots", NewHandler(uc, logger.NewNop()).Handle)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHandle_Success(t *testing.T) {
	loc := time.FixedZone("-03", -3*3600)
	uc := &fakeUseCase{resp: &getAvailableSlots.Response{
		Date:            "2026-03-10",
		TenantID:        1,
		ServiceID:       10,
		Timezone:        "America/Sao_Paulo",
		DurationMinutes: 45,
		Slots: []getAvailableSlots.Slot{
			{StartsAt: time.Date(2026, 3, 10, 9, 0, 0, 0, loc), StaffID: 3, StaffName: "Ana"},
		},
	}}

	w := serve(uc, "/api/v1/tenants/studio-bella/available-slots?serviceId=10&date=2026-03-10&staffId=3&extraSlots=1")
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, uc.got)
	assert.Equal(t, "studio-bella", uc.got.TenantRef)
	assert.Equal(t, int64(10), uc.got.ServiceID)
	assert.Equal(t, int64(3), *uc.got.StaffID)
	assert.Equal(t, 1, uc.got.ExtraSlots)

	var body AvailableSlotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 45, body.DurationMinutes)
	require.Len(t, body.Slots, 1)
	assert.Equal(t, "2026-03-10T09:00:00-03:00", body.Slots[0].StartsAt)
	assert.Equal(t, "09:00", body.Slots[0].StartTime)
	assert.Equal(t, "Ana", body.Slots[0].StaffName)
}

func TestHandle_BadQuery(t *testing.T) {
	for _, q := range []string{"date=2026-03-10", "serviceId=10", "serviceId=10&date=10/03/2026", "serviceId=10&date=2026-03-10&staffId=x"} {
		uc := &fakeUseCase{}
		w := serve(uc, "/api/v1/tenants/studio-bella/available-slots?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Nil(t, uc.got, q)
	}
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{getAvailableSlots.ErrTenantNotFound, http.StatusNotFound, "TENANT_NOT_FOUND"},
		{getAvailableSlots.ErrServiceNotFound, http.StatusNotFound, "SERVICE_NOT_FOUND"},
		{getAvailableSlots.ErrStaffNotFound, http.StatusNotFound, "STAFF_NOT_FOUND"},
		{fmt.Errorf("%w: extraSlots", getAvailableSlots.ErrInvalidInput), http.StatusBadRequest, "INVALID_PAYLOAD"},
		{getAvailableSlots.ErrInternal, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		w := serve(&fakeUseCase{err: tt.err}, "/api/v1/tenants/1/available-slots?serviceId=10&date=2026-03-10")
		assert.Equal(t, tt.status, w.Code, tt.err.Error())

		var body struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tt.code, body.Code)
	}
}
