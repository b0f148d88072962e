package availability

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Query запрос свободных слотов
type Query struct {
	Tenant     *domain.Tenant
	ServiceID  int64
	StaffID    *int64 // nil - любой сотрудник, оказывающий услугу
	Date       time.Time
	ExtraSlots int

	// IgnoreHoldsOf удержания этого разговора не скрывают слоты (сам разговор их и создал)
	IgnoreHoldsOf string
}

// Result свободные слоты и данные, использованные для расчёта
type Result struct {
	Service  *domain.Service
	Staff    []domain.StaffMember
	Location *time.Location
	Slots    []domain.AvailableSlot
}
