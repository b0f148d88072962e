package get_available_slots

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-ReservationEngine/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date            string          `json:"date"`
	TenantID        int64           `json:"tenantId"`
	ServiceID       int64           `json:"serviceId"`
	Timezone        string          `json:"timezone"`
	DurationMinutes int             `json:"durationMinutes"`
	Slots           []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartsAt  string `json:"startsAt"` // RFC 3339 в часовом поясе арендатора
	StartTime string `json:"startTime"`
	StaffID   int64  `json:"staffId"`
	StaffName string `json:"staffName"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartsAt:  slot.StartsAt.Format(time.RFC3339),
			StartTime: slot.StartsAt.Format(domain.TimeFormat),
			StaffID:   slot.StaffID,
			StaffName: slot.StaffName,
		}
	}

	return &AvailableSlotsResponse{
		Date:            resp.Date,
		TenantID:        resp.TenantID,
		ServiceID:       resp.ServiceID,
		Timezone:        resp.Timezone,
		DurationMinutes: resp.DurationMinutes,
		Slots:           slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров.
// serviceId и date обязательны, staffId и extraSlots - нет
func ToUseCaseRequest(tenantRef string, query url.Values) (*getAvailableSlots.Request, error) {
	serviceID, err := strconv.ParseInt(query.Get("serviceId"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("serviceId: %w", err)
	}

	date, err := time.Parse(domain.DateFormat, query.Get("date"))
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}

	req := &getAvailableSlots.Request{
		TenantRef: tenantRef,
		ServiceID: serviceID,
		Date:      date,
	}

	if raw := query.Get("staffId"); raw != "" {
		staffID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("staffId: %w", err)
		}
		req.StaffID = &staffID
	}

	if raw := query.Get("extraSlots"); raw != "" {
		extra, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("extraSlots: %w", err)
		}
		req.ExtraSlots = extra
	}

	return req, nil
}
