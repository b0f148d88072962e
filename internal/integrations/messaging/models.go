package messaging

// OutboundMessage текстовое сообщение для отправки контакту
type OutboundMessage struct {
	TenantID int64  `json:"tenant_id"`
	To       string `json:"to"`
	Text     string `json:"text"`
}

// SendResponse ответ провайдера на отправку
type SendResponse struct {
	MessageID string `json:"message_id"`
}
