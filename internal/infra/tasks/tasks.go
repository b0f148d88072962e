package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeHoldExpire задача перевода удержания в expired
const TypeHoldExpire = "hold:expire"

var (
	ErrEnqueue        = errors.New("tasks: failed to enqueue task")
	ErrInvalidPayload = errors.New("tasks: invalid payload")
)

// HoldExpirePayload полезная нагрузка задачи истечения удержания
type HoldExpirePayload struct {
	HoldID uuid.UUID `json:"hold_id"`
}

// NewHoldExpireTask создает задачу, которая выполнится в момент fireAt
func NewHoldExpireTask(holdID uuid.UUID, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(HoldExpirePayload{HoldID: holdID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeHoldExpire, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("hold-expire:" + holdID.String()),
		asynq.MaxRetry(3),
		asynq.Retention(time.Hour),
	}
	return task, opts, nil
}

// Enqueuer постановка задач в очередь (*asynq.Client)
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler планировщик отложенных задач движка
type Scheduler struct {
	client Enqueuer
}

// NewScheduler создает новый экземпляр планировщика
func NewScheduler(client Enqueuer) *Scheduler {
	return &Scheduler{client: client}
}

// ScheduleHoldExpiry ставит задачу истечения удержания на момент at
func (s *Scheduler) ScheduleHoldExpiry(ctx context.Context, holdID uuid.UUID, at time.Time) error {
	task, opts, err := NewHoldExpireTask(holdID, at)
	if err != nil {
		return fmt.Errorf("%w: build hold expire task: %v", ErrEnqueue, err)
	}
	if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	return nil
}

// HoldExpirer сервис, переводящий удержание в expired
type HoldExpirer interface {
	Expire(ctx context.Context, holdID uuid.UUID) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Handler обработчик задач движка для asynq.Server
type Handler struct {
	holds  HoldExpirer
	logger Logger
}

// NewHandler создает новый экземпляр обработчика задач
func NewHandler(holds HoldExpirer, logger Logger) *Handler {
	return &Handler{holds: holds, logger: logger}
}

// Mux регистрирует обработчики по типам задач
func (h *Handler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeHoldExpire, h.HandleHoldExpire)
	return mux
}

// HandleHoldExpire переводит удержание в expired, если оно еще активно
func (h *Handler) HandleHoldExpire(ctx context.Context, task *asynq.Task) error {
	var p HoldExpirePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		h.logger.Error("HandleHoldExpire: invalid payload: %v", err)
		return fmt.Errorf("%w: %v: %w", ErrInvalidPayload, err, asynq.SkipRetry)
	}

	if err := h.holds.Expire(ctx, p.HoldID); err != nil {
		h.logger.Error("HandleHoldExpire: hold=%s: %v", p.HoldID, err)
		return err
	}
	return nil
}
