package inbound_message

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	processMessage "github.com/m04kA/SMC-ReservationEngine/internal/usecase/process_message"
)

type Handler struct {
	useCase ProcessMessageUseCase
	sender  ReplySender
	logger  Logger
}

func NewHandler(useCase ProcessMessageUseCase, sender ReplySender, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		sender:  sender,
		logger:  logger,
	}
}

// Handle POST /api/v1/webhooks/messaging/{tenant}
// Провайдер повторяет доставку при любом ответе кроме 2xx, поэтому ошибки не возвращаются наружу
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantRef := mux.Vars(r)["tenant"]

	var req InboundMessageRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /webhooks/messaging/{tenant} - Invalid body: tenant=%s, error=%v", tenantRef, err)
		handlers.RespondJSON(w, http.StatusOK, InboundMessageResponse{Status: statusIgnored})
		return
	}

	result, err := h.useCase.Execute(r.Context(), &processMessage.Request{
		TenantRef:    tenantRef,
		ContactPhone: req.From,
		MessageID:    req.MessageID,
		Text:         req.Text,
	})
	if err != nil {
		h.logger.Error("POST /webhooks/messaging/{tenant} - Failed to process message: tenant=%s, message_id=%s, error=%v",
			tenantRef, req.MessageID, err)
		var turnErr *processMessage.TurnError
		if errors.As(err, &turnErr) {
			if _, sendErr := h.sender.SendText(r.Context(), turnErr.TenantID, req.From, turnErr.Reply); sendErr != nil {
				h.logger.Error("POST /webhooks/messaging/{tenant} - Failed to send apology: tenant_id=%d, message_id=%s, error=%v",
					turnErr.TenantID, req.MessageID, sendErr)
			}
		}
		handlers.RespondJSON(w, http.StatusOK, InboundMessageResponse{Status: statusFailed})
		return
	}

	if !result.ShouldReply {
		handlers.RespondJSON(w, http.StatusOK, InboundMessageResponse{Status: statusIgnored, Step: string(result.NextStep)})
		return
	}

	if _, err := h.sender.SendText(r.Context(), result.TenantID, req.From, result.ReplyText); err != nil {
		h.logger.Error("POST /webhooks/messaging/{tenant} - Failed to send reply: tenant_id=%d, message_id=%s, error=%v",
			result.TenantID, req.MessageID, err)
		handlers.RespondJSON(w, http.StatusOK, InboundMessageResponse{Status: statusFailed, Step: string(result.NextStep)})
		return
	}

	h.logger.Info("POST /webhooks/messaging/{tenant} - Replied: tenant_id=%d, message_id=%s, step=%s",
		result.TenantID, req.MessageID, result.NextStep)
	handlers.RespondJSON(w, http.StatusOK, InboundMessageResponse{Status: statusReplied, Step: string(result.NextStep)})
}
