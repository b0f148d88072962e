package cancel_booking

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
	msgCannotCancel     = "бронирование не может быть отменено"
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

// Handle PATCH /api/v1/tenants/{tenant}/bookings/{bookingId}/cancel
// Отмена возвращает сессию пакета или подписки, если запись была ими оплачена
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil || bookingID <= 0 {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid booking ID: %q", vars["bookingId"])
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	tenant, err := h.tenants.Resolve(r.Context(), vars["tenant"])
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) || errors.Is(err, tenants.ErrInvalidReference) {
			h.logger.Warn("PATCH /bookings/{id}/cancel - Tenant not found: tenant=%s", vars["tenant"])
			handlers.RespondErrorCode(w, http.StatusNotFound, "TENANT_NOT_FOUND", msgTenantNotFound)
			return
		}
		h.logger.Error("PATCH /bookings/{id}/cancel - Failed to resolve tenant %s: %v", vars["tenant"], err)
		handlers.RespondInternalError(w)
		return
	}

	booking, err := h.service.Cancel(r.Context(), tenant.ID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Booking not found: tenant_id=%d, booking_id=%d", tenant.ID, bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrCannotCancel):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Cannot cancel: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgCannotCancel)

		default:
			h.logger.Error("PATCH /bookings/{id}/cancel - Failed to cancel booking: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/cancel - Booking cancelled: tenant_id=%d, booking_id=%d, benefit=%s",
		tenant.ID, bookingID, booking.Benefit.Kind)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
