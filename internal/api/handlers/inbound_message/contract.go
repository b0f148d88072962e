package inbound_message

import (
	"context"

	processMessage "github.com/m04kA/SMC-ReservationEngine/internal/usecase/process_message"
)

type ProcessMessageUseCase interface {
	Execute(ctx context.Context, req *processMessage.Request) (*processMessage.Response, error)
}

// ReplySender отправка ответа через провайдера сообщений
type ReplySender interface {
	SendText(ctx context.Context, tenantID int64, to, text string) (string, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
