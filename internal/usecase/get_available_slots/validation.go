package get_available_slots

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if strings.TrimSpace(req.TenantRef) == "" {
		return fmt.Errorf("%w: tenant is required", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceId must be positive", ErrInvalidInput)
	}

	if req.StaffID != nil && *req.StaffID <= 0 {
		return fmt.Errorf("%w: staffId must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.ExtraSlots < 0 || req.ExtraSlots > domain.MaxExtraSlots {
		return fmt.Errorf("%w: extraSlots must be between 0 and %d", ErrInvalidInput, domain.MaxExtraSlots)
	}

	return nil
}
