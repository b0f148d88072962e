package get_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/tenants"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgTenantNotFound   = "арендатор не найден"
	msgNotFound         = "бронирование не найдено"
)

type Handler struct {
	tenants TenantResolver
	service BookingService
	logger  Logger
}

func NewHandler(tenants TenantResolver, service BookingService, logger Logger) *Handler {
	return &Handler{
		tenants: tenants,
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/tenants/{tenant}/bookings/{bookingId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil || bookingID <= 0 {
		h.logger.Warn("GET /bookings/{id} - Invalid booking ID: %q", vars["bookingId"])
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	tenant, err := h.tenants.Resolve(r.Context(), vars["tenant"])
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) || errors.Is(err, tenants.ErrInvalidReference) {
			h.logger.Warn("GET /bookings/{id} - Tenant not found: tenant=%s", vars["tenant"])
			handlers.RespondErrorCode(w, http.StatusNotFound, "TENANT_NOT_FOUND", msgTenantNotFound)
			return
		}
		h.logger.Error("GET /bookings/{id} - Failed to resolve tenant %s: %v", vars["tenant"], err)
		handlers.RespondInternalError(w)
		return
	}

	booking, err := h.service.GetByID(r.Context(), tenant.ID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("GET /bookings/{id} - Booking not found: tenant_id=%d, booking_id=%d", tenant.ID, bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /bookings/{id} - Failed to get booking: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings/{id} - Booking retrieved: tenant_id=%d, booking_id=%d", tenant.ID, bookingID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
