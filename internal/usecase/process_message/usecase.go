package process_message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	convRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/conversation"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/tenants"
)

const (
	defaultIdleTimeout     = 30 * time.Minute
	defaultMaxOfferedSlots = 20
)

var tracer = otel.Tracer("process_message")

// UseCase пошаговый диалог записи через мессенджер.
// Сообщения одного разговора обрабатываются строго по очереди
type UseCase struct {
	tenants       TenantResolver
	messageLog    MessageLog
	conversations ConversationRepository
	catalog       CatalogRepository
	availability  Availability
	holds         HoldService
	bookings      BookingCreator
	locks         KeyLocker
	metrics       Metrics
	timeProvider  TimeProvider
	cfg           Config
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	tenants TenantResolver,
	messageLog MessageLog,
	conversations ConversationRepository,
	catalog CatalogRepository,
	availability Availability,
	holds HoldService,
	bookings BookingCreator,
	locks KeyLocker,
	metrics Metrics,
	timeProvider TimeProvider,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.MaxOfferedSlots <= 0 {
		cfg.MaxOfferedSlots = defaultMaxOfferedSlots
	}
	return &UseCase{
		tenants:       tenants,
		messageLog:    messageLog,
		conversations: conversations,
		catalog:       catalog,
		availability:  availability,
		holds:         holds,
		bookings:      bookings,
		locks:         locks,
		metrics:       metrics,
		timeProvider:  timeProvider,
		cfg:           cfg,
		logger:        logger,
	}
}

// session данные текущего хода, общие для всех шагов
type session struct {
	tenant  *domain.Tenant
	config  domain.TenantConfig
	loc     *time.Location
	key     string
	contact string
	now     time.Time
}

// Execute обрабатывает одно входящее сообщение и возвращает ответ.
// Повторная доставка уже обработанного сообщения возвращает ShouldReply=false без изменения состояния
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "process_message.Execute")
	defer span.End()

	resp, err := uc.execute(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("reply", resp.ShouldReply),
		attribute.String("step", string(resp.NextStep)),
	)
	return resp, nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	contact := domain.NormalizePhone(req.ContactPhone)
	if contact == "" || strings.TrimSpace(req.MessageID) == "" {
		return nil, fmt.Errorf("%w: contact and message id are required", ErrInvalidInput)
	}

	tenant, err := uc.tenants.Resolve(ctx, req.TenantRef)
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) || errors.Is(err, tenants.ErrInvalidReference) {
			uc.logger.Warn("ProcessMessage: tenant %q not found", req.TenantRef)
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: resolve tenant: %v", ErrInternal, err)
	}

	key := domain.ConversationKey(tenant.ID, contact)
	unlock, err := uc.locks.Lock(ctx, "conversation:"+key)
	if err != nil {
		return nil, failedTurn(tenant.ID, fmt.Errorf("%w: lock conversation %s: %v", ErrInternal, key, err))
	}
	defer unlock()

	state, err := uc.loadState(ctx, tenant.ID, contact)
	if err != nil {
		return nil, failedTurn(tenant.ID, err)
	}

	if state.LastMessageID == req.MessageID {
		return uc.duplicate(state, req.MessageID), nil
	}
	fresh, err := uc.messageLog.Register(ctx, tenant.ID, req.MessageID)
	if err != nil {
		uc.logger.Warn("ProcessMessage: message log unavailable, relying on conversation state: %v", err)
	} else if !fresh {
		return uc.duplicate(state, req.MessageID), nil
	}

	s := &session{
		tenant:  tenant,
		config:  tenant.Config.WithDefaults(),
		loc:     tenant.Location(uc.cfg.DefaultLocation),
		key:     key,
		contact: contact,
		now:     uc.timeProvider.Now(),
	}

	from := state.Step
	t := uc.handle(ctx, s, state, req.Text)

	state.Step = t.payload.Step()
	state.Payload = t.payload
	state.LastMessageID = req.MessageID
	state.UpdatedAt = s.now

	if err := uc.conversations.Save(ctx, state); err != nil {
		uc.logger.Error("ProcessMessage: failed to save conversation %s: %v", key, err)
		if ferr := uc.messageLog.Forget(ctx, tenant.ID, req.MessageID); ferr != nil {
			uc.logger.Warn("ProcessMessage: failed to forget message %s: %v", req.MessageID, ferr)
		}
		return nil, failedTurn(tenant.ID, fmt.Errorf("%w: save conversation: %v", ErrInternal, err))
	}

	uc.metrics.ConversationMessage(t.result)
	uc.logger.Info("ProcessMessage: conversation=%s message=%s %s -> %s (%s)", key, req.MessageID, from, state.Step, t.result)

	return &Response{
		ShouldReply: true,
		ReplyText:   t.reply,
		NextStep:    state.Step,
		TenantID:    tenant.ID,
	}, nil
}

func (uc *UseCase) loadState(ctx context.Context, tenantID int64, contact string) (*domain.ConversationState, error) {
	state, err := uc.conversations.Get(ctx, tenantID, contact)
	switch {
	case err == nil:
		return state, nil
	case errors.Is(err, convRepo.ErrStateNotFound):
	case errors.Is(err, convRepo.ErrPayload):
		uc.logger.Warn("ProcessMessage: unreadable state of %d:%s, starting over: %v", tenantID, contact, err)
	default:
		return nil, fmt.Errorf("%w: load conversation: %v", ErrInternal, err)
	}
	return &domain.ConversationState{
		TenantID:  tenantID,
		ContactID: contact,
		Step:      domain.StepMenu,
		Payload:   domain.MenuPayload{},
	}, nil
}

func (uc *UseCase) duplicate(state *domain.ConversationState, messageID string) *Response {
	uc.logger.Info("ProcessMessage: duplicate message %s for conversation %s ignored", messageID, state.Key())
	uc.metrics.ConversationMessage(ResultDuplicate)
	return &Response{ShouldReply: false, NextStep: state.Step, TenantID: state.TenantID}
}

// handle применяет сообщение к состоянию. Любая внутренняя ошибка переводит разговор в ERROR
func (uc *UseCase) handle(ctx context.Context, s *session, state *domain.ConversationState, text string) turn {
	if isResetKeyword(text) {
		uc.releaseHolds(ctx, s, state)
		return turn{reply: menuText(s.tenant), payload: domain.MenuPayload{}, result: ResultReset}
	}

	restart := false
	switch {
	case state.IsIdle(s.now, uc.cfg.IdleTimeout):
		uc.logger.Info("ProcessMessage: conversation %s idle since %s, starting over", s.key, state.UpdatedAt.Format(time.RFC3339))
		restart = true
	case state.Step == domain.StepDone, state.Step == domain.StepError:
		restart = true
	}
	if restart {
		uc.releaseHolds(ctx, s, state)
		state.Reset()
	}

	t, err := uc.dispatch(ctx, s, state.Payload, text)
	if err != nil {
		uc.logger.Error("ProcessMessage: conversation %s failed at %s: %v", s.key, state.Step, err)
		uc.releaseHolds(ctx, s, state)
		return turn{reply: textFailure, payload: domain.ErrorPayload{}, result: ResultError}
	}
	if restart && t.result == ResultProcessed {
		t.result = ResultReset
	}
	return t
}

func (uc *UseCase) dispatch(ctx context.Context, s *session, payload domain.StepPayload, text string) (turn, error) {
	switch p := payload.(type) {
	case domain.MenuPayload:
		return uc.onMenu(ctx, s, text)
	case domain.ChooseServicePayload:
		return uc.onChooseService(ctx, s, p, text)
	case domain.ChooseStaffPayload:
		return uc.onChooseStaff(ctx, s, p, text)
	case domain.ChooseDatePayload:
		return uc.onChooseDate(ctx, s, p, text)
	case domain.ChooseTimePayload:
		return uc.onChooseTime(ctx, s, p, text)
	case domain.ChoosePaymentPayload:
		return uc.onChoosePayment(p, text)
	case domain.AskNamePayload:
		return uc.onAskName(ctx, s, p, text)
	}
	return turn{}, fmt.Errorf("%w: payload %T", domain.ErrUnknownStep, payload)
}

// releaseHolds освобождает удержание разговора при сбросе. Ошибка не мешает сбросу
func (uc *UseCase) releaseHolds(ctx context.Context, s *session, state *domain.ConversationState) {
	if _, ok := state.HoldID(); !ok {
		return
	}
	if err := uc.holds.ReleaseConversation(ctx, s.key); err != nil {
		uc.logger.Warn("ProcessMessage: failed to release holds of %s: %v", s.key, err)
	}
}
