package domain

import "time"

// Customer end customer of a tenant, unique by normalized phone
type Customer struct {
	ID        int64
	TenantID  int64
	Name      string
	Phone     string // normalized, see NormalizePhone
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
