package create_booking

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	createBooking "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidStartsAt    = "некорректное время начала, ожидается RFC 3339"
)

// errorStatuses HTTP статус для каждого кода ошибки
var errorStatuses = map[string]int{
	createBooking.CodeInvalidPayload:       http.StatusBadRequest,
	createBooking.CodeTenantNotFound:       http.StatusNotFound,
	createBooking.CodeServiceNotFound:      http.StatusNotFound,
	createBooking.CodeStaffNotFound:        http.StatusNotFound,
	createBooking.CodeTimeConflict:         http.StatusConflict,
	createBooking.CodePackageInvalid:       http.StatusUnprocessableEntity,
	createBooking.CodeSubscriptionInvalid:  http.StatusUnprocessableEntity,
	createBooking.CodeCustomerCreateFailed: http.StatusInternalServerError,
	createBooking.CodeBookingCreateFailed:  http.StatusInternalServerError,
}

var errorMessages = map[string]string{
	createBooking.CodeInvalidPayload:       "некорректные данные бронирования",
	createBooking.CodeTenantNotFound:       "арендатор не найден",
	createBooking.CodeServiceNotFound:      "услуга не найдена",
	createBooking.CodeStaffNotFound:        "нет доступного сотрудника",
	createBooking.CodeTimeConflict:         "выбранное время уже занято",
	createBooking.CodePackageInvalid:       "пакет не может быть использован",
	createBooking.CodeSubscriptionInvalid:  "подписка не может быть использована",
	createBooking.CodeCustomerCreateFailed: "не удалось сохранить клиента",
	createBooking.CodeBookingCreateFailed:  "не удалось создать бронирование",
}

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/tenants/{tenant}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantRef := mux.Vars(r)["tenant"]

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /tenants/{tenant}/bookings - Invalid request body: tenant=%s, error=%v", tenantRef, err)
		handlers.RespondErrorCode(w, http.StatusBadRequest, createBooking.CodeInvalidPayload, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(tenantRef)
	if err != nil {
		h.logger.Warn("POST /tenants/{tenant}/bookings - Invalid startsAt %q: %v", req.StartsAt, err)
		handlers.RespondErrorCode(w, http.StatusBadRequest, createBooking.CodeInvalidPayload, msgInvalidStartsAt)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		code := createBooking.ErrorCode(err)
		status := errorStatuses[code]

		message := errorMessages[code]
		if code == createBooking.CodeInvalidPayload {
			message = err.Error()
		}

		if status >= http.StatusInternalServerError {
			h.logger.Error("POST /tenants/{tenant}/bookings - Failed to create booking: tenant=%s, service_id=%d, error=%v",
				tenantRef, req.ServiceID, err)
		} else {
			h.logger.Warn("POST /tenants/{tenant}/bookings - Rejected with %s: tenant=%s, service_id=%d, error=%v",
				code, tenantRef, req.ServiceID, err)
		}
		handlers.RespondErrorCode(w, status, code, message)
		return
	}

	h.logger.Info("POST /tenants/{tenant}/bookings - Booking created: booking_id=%d, tenant_id=%d, benefit=%s",
		result.Booking.ID, result.Booking.TenantID, result.Benefit.Kind)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
