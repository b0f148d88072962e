package process_message

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Результаты обработки для метрик
const (
	ResultProcessed = "processed"
	ResultDuplicate = "duplicate"
	ResultReset     = "reset"
	ResultInvalid   = "invalid"
	ResultConflict  = "conflict"
	ResultBooked    = "booked"
	ResultError     = "error"
)

// Config параметры диалога
type Config struct {
	IdleTimeout     time.Duration
	MaxOfferedSlots int
	DefaultLocation *time.Location
}

// Request входящее сообщение
type Request struct {
	TenantRef    string
	ContactPhone string
	MessageID    string
	Text         string
}

// Response ответ контроллера. ShouldReply=false - сообщение проигнорировано
type Response struct {
	ShouldReply bool
	ReplyText   string
	NextStep    domain.Step
	TenantID    int64
}

// turn результат обработки одного шага
type turn struct {
	reply   string
	payload domain.StepPayload
	result  string
}
