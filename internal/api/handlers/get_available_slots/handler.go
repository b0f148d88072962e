package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-ReservationEngine/internal/usecase/get_available_slots"
)

const (
	msgInvalidQuery    = "некорректные параметры: serviceId и date (YYYY-MM-DD) обязательны"
	msgTenantNotFound  = "арендатор не найден"
	msgServiceNotFound = "услуга не найдена"
	msgStaffNotFound   = "сотрудник не найден или не оказывает услугу"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/tenants/{tenant}/available-slots
// Query params: serviceId (required), date (required, YYYY-MM-DD), staffId, extraSlots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantRef := mux.Vars(r)["tenant"]

	useCaseReq, err := ToUseCaseRequest(tenantRef, r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /tenants/{tenant}/available-slots - Invalid query: tenant=%s, error=%v", tenantRef, err)
		handlers.RespondErrorCode(w, http.StatusBadRequest, "INVALID_PAYLOAD", msgInvalidQuery)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /tenants/{tenant}/available-slots - Invalid input: tenant=%s, error=%v", tenantRef, err)
			handlers.RespondErrorCode(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())

		case errors.Is(err, getAvailableSlots.ErrTenantNotFound):
			h.logger.Warn("GET /tenants/{tenant}/available-slots - Tenant not found: tenant=%s", tenantRef)
			handlers.RespondErrorCode(w, http.StatusNotFound, "TENANT_NOT_FOUND", msgTenantNotFound)

		case errors.Is(err, getAvailableSlots.ErrServiceNotFound):
			h.logger.Warn("GET /tenants/{tenant}/available-slots - Service not found: tenant=%s, service_id=%d",
				tenantRef, useCaseReq.ServiceID)
			handlers.RespondErrorCode(w, http.StatusNotFound, "SERVICE_NOT_FOUND", msgServiceNotFound)

		case errors.Is(err, getAvailableSlots.ErrStaffNotFound):
			h.logger.Warn("GET /tenants/{tenant}/available-slots - Staff not found: tenant=%s, service_id=%d",
				tenantRef, useCaseReq.ServiceID)
			handlers.RespondErrorCode(w, http.StatusNotFound, "STAFF_NOT_FOUND", msgStaffNotFound)

		default:
			h.logger.Error("GET /tenants/{tenant}/available-slots - Failed to get slots: tenant=%s, service_id=%d, error=%v",
				tenantRef, useCaseReq.ServiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /tenants/{tenant}/available-slots - Slots retrieved: tenant_id=%d, service_id=%d, slots_count=%d",
		result.TenantID, result.ServiceID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
