package get_tenant_config

import "github.com/m04kA/SMC-ReservationEngine/internal/domain"

// TenantConfigResponse публичные настройки записи арендатора
type TenantConfigResponse struct {
	TenantID               int64  `json:"tenantId"`
	Slug                   string `json:"slug"`
	Name                   string `json:"name"`
	Timezone               string `json:"timezone"`
	SlotDurationMinutes    int    `json:"slotDurationMinutes"`
	BufferMinutes          int    `json:"bufferMinutes"`
	ExtraSlotMinutes       int    `json:"extraSlotMinutes"`
	SubscriptionGraceHours int    `json:"subscriptionGraceHours"`
	OnlinePaymentEnabled   bool   `json:"onlinePaymentEnabled"`
}

// FromDomainTenant конвертирует арендатора в ответ. Незаданные значения заменяются значениями по умолчанию
func FromDomainTenant(t *domain.Tenant) *TenantConfigResponse {
	cfg := t.Config.WithDefaults()
	timezone := t.Timezone
	if timezone == "" {
		timezone = domain.DefaultTimezone
	}
	return &TenantConfigResponse{
		TenantID:               t.ID,
		Slug:                   t.Slug,
		Name:                   t.Name,
		Timezone:               timezone,
		SlotDurationMinutes:    cfg.SlotDurationMinutes,
		BufferMinutes:          cfg.BufferMinutes,
		ExtraSlotMinutes:       cfg.ExtraSlotMinutes,
		SubscriptionGraceHours: cfg.SubscriptionGraceHours,
		OnlinePaymentEnabled:   cfg.OnlinePaymentEnabled,
	}
}
