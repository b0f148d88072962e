package process_message

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/holds"
	"github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
)

// TenantResolver поиск арендатора по ID или slug
type TenantResolver interface {
	Resolve(ctx context.Context, ref string) (*domain.Tenant, error)
}

// MessageLog глобальный журнал обработанных входящих сообщений
type MessageLog interface {
	Register(ctx context.Context, tenantID int64, messageID string) (bool, error)
	Forget(ctx context.Context, tenantID int64, messageID string) error
}

// ConversationRepository хранилище состояния разговоров
type ConversationRepository interface {
	Get(ctx context.Context, tenantID int64, contactID string) (*domain.ConversationState, error)
	Save(ctx context.Context, state *domain.ConversationState) error
}

// CatalogRepository интерфейс чтения каталога
type CatalogRepository interface {
	ListActiveServices(ctx context.Context, tenantID int64) ([]domain.Service, error)
	GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error)
	GetStaff(ctx context.Context, tenantID, staffID int64) (*domain.StaffMember, error)
}

// Availability поиск сотрудников и свободного времени
type Availability interface {
	EligibleStaff(ctx context.Context, tenantID, serviceID int64, staffID *int64) ([]domain.StaffMember, error)
	GetSlots(ctx context.Context, q availability.Query) (*availability.Result, error)
}

// HoldService удержания слотов разговора
type HoldService interface {
	Create(ctx context.Context, req holds.CreateRequest) (*domain.ReservationHold, error)
	Convert(ctx context.Context, holdID uuid.UUID, bookingID int64) error
	Release(ctx context.Context, holdID uuid.UUID) error
	ReleaseConversation(ctx context.Context, conversationKey string) error
}

// BookingCreator создание бронирования тем же путем, что и через API
type BookingCreator interface {
	Execute(ctx context.Context, req *create_booking.Request) (*create_booking.Response, error)
}

// KeyLocker взаимное исключение внутри процесса по ключу
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Metrics счетчики обработки сообщений
type Metrics interface {
	ConversationMessage(result string)
}

type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
