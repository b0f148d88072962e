package inbound_message

// InboundMessageRequest входящее сообщение от провайдера
type InboundMessageRequest struct {
	MessageID string `json:"messageId"`
	From      string `json:"from"` // телефон контакта в любом формате
	Text      string `json:"text"`
}

// InboundMessageResponse ответ провайдеру. Всегда 200, чтобы сообщение не доставлялось повторно
type InboundMessageResponse struct {
	Status string `json:"status"` // replied | ignored | failed
	Step   string `json:"step,omitempty"`
}

const (
	statusReplied = "replied"
	statusIgnored = "ignored"
	statusFailed  = "failed"
)
