package get_tenant_config

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/tenants"
)

const msgTenantNotFound = "арендатор не найден"

type Handler struct {
	tenants TenantResolver
	logger  Logger
}

func NewHandler(tenants TenantResolver, logger Logger) *Handler {
	return &Handler{
		tenants: tenants,
		logger:  logger,
	}
}

// Handle GET /api/v1/tenants/{tenant}/config
// Публичный endpoint: клиенты строят по нему календарь записи
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["tenant"]

	tenant, err := h.tenants.Resolve(r.Context(), ref)
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) || errors.Is(err, tenants.ErrInvalidReference) {
			h.logger.Warn("GET /tenants/{tenant}/config - Tenant not found: tenant=%s", ref)
			handlers.RespondErrorCode(w, http.StatusNotFound, "TENANT_NOT_FOUND", msgTenantNotFound)
			return
		}
		h.logger.Error("GET /tenants/{tenant}/config - Failed to get tenant: tenant=%s, error=%v", ref, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /tenants/{tenant}/config - Config retrieved: tenant_id=%d", tenant.ID)
	handlers.RespondJSON(w, http.StatusOK, FromDomainTenant(tenant))
}
