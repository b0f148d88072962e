package get_available_slots

import (
	"time"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	TenantRef  string    // ID или slug арендатора
	ServiceID  int64     // ID услуги
	StaffID    *int64    // nil - любой сотрудник
	Date       time.Time // Дата (время игнорируется, день берется в часовом поясе арендатора)
	ExtraSlots int       // Дополнительные интервалы времени к длительности услуги
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date            string // Дата в формате YYYY-MM-DD
	TenantID        int64
	ServiceID       int64
	Timezone        string
	DurationMinutes int    // Полная длительность записи с учетом extraSlots
	Slots           []Slot // Отсортированы по времени, затем по сотруднику
}

// Slot модель свободного слота
type Slot struct {
	StartsAt  time.Time // В часовом поясе арендатора
	StaffID   int64
	StaffName string
}
