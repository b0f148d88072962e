package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownStep = errors.New("domain: unknown conversation step")

// Step state of a booking conversation
type Step string

const (
	StepMenu          Step = "MENU"
	StepChooseService Step = "CHOOSE_SERVICE"
	StepChooseStaff   Step = "CHOOSE_STAFF"
	StepChooseDate    Step = "CHOOSE_DATE"
	StepChooseTime    Step = "CHOOSE_TIME"
	StepChoosePayment Step = "CHOOSE_PAYMENT"
	StepAskName       Step = "ASK_NAME"
	StepDone          Step = "DONE"
	StepError         Step = "ERROR"
)

// ConversationState persisted state of one (tenant, contact) conversation
type ConversationState struct {
	TenantID      int64
	ContactID     string // normalized phone of the contact
	Step          Step
	Payload       StepPayload
	LastMessageID string
	UpdatedAt     time.Time
}

// Key identifies the conversation across the engine (locks, holds)
func (c *ConversationState) Key() string {
	return ConversationKey(c.TenantID, c.ContactID)
}

// ConversationKey builds the conversation identifier
func ConversationKey(tenantID int64, contactID string) string {
	return fmt.Sprintf("%d:%s", tenantID, contactID)
}

// IsIdle returns true if the conversation has not been touched for longer than timeout
func (c *ConversationState) IsIdle(now time.Time, timeout time.Duration) bool {
	return !c.UpdatedAt.IsZero() && now.Sub(c.UpdatedAt) > timeout
}

// Reset moves the conversation back to the menu and discards collected data
func (c *ConversationState) Reset() {
	c.Step = StepMenu
	c.Payload = MenuPayload{}
}

// HoldID returns the hold the conversation currently owns, if any
func (c *ConversationState) HoldID() (uuid.UUID, bool) {
	switch p := c.Payload.(type) {
	case ChoosePaymentPayload:
		return p.HoldID, p.HoldID != uuid.Nil
	case AskNamePayload:
		return p.HoldID, p.HoldID != uuid.Nil
	}
	return uuid.Nil, false
}

// StepPayload data collected up to a step. Each step has exactly one payload type
type StepPayload interface {
	Step() Step
}

type MenuPayload struct{}

func (MenuPayload) Step() Step { return StepMenu }

// ChooseServicePayload services offered, in the order they were listed
type ChooseServicePayload struct {
	ServiceIDs []int64 `json:"service_ids"`
}

func (ChooseServicePayload) Step() Step { return StepChooseService }

type ChooseStaffPayload struct {
	ServiceID int64   `json:"service_id"`
	StaffIDs  []int64 `json:"staff_ids"`
}

func (ChooseStaffPayload) Step() Step { return StepChooseStaff }

// ChooseDatePayload StaffID is nil when any staff member may be chosen
type ChooseDatePayload struct {
	ServiceID int64  `json:"service_id"`
	StaffID   *int64 `json:"staff_id,omitempty"`
}

func (ChooseDatePayload) Step() Step { return StepChooseDate }

// SlotOption one offered time
type SlotOption struct {
	StartsAt time.Time `json:"starts_at"`
	StaffID  int64     `json:"staff_id"`
}

type ChooseTimePayload struct {
	ServiceID int64        `json:"service_id"`
	StaffID   *int64       `json:"staff_id,omitempty"`
	Date      string       `json:"date"` // YYYY-MM-DD in tenant timezone
	Options   []SlotOption `json:"options"`
}

func (ChooseTimePayload) Step() Step { return StepChooseTime }

type ChoosePaymentPayload struct {
	ServiceID int64     `json:"service_id"`
	StaffID   int64     `json:"staff_id"`
	StartsAt  time.Time `json:"starts_at"`
	HoldID    uuid.UUID `json:"hold_id"`
}

func (ChoosePaymentPayload) Step() Step { return StepChoosePayment }

type AskNamePayload struct {
	ServiceID     int64         `json:"service_id"`
	StaffID       int64         `json:"staff_id"`
	StartsAt      time.Time     `json:"starts_at"`
	HoldID        uuid.UUID     `json:"hold_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

func (AskNamePayload) Step() Step { return StepAskName }

type DonePayload struct {
	BookingID int64 `json:"booking_id"`
}

func (DonePayload) Step() Step { return StepDone }

type ErrorPayload struct{}

func (ErrorPayload) Step() Step { return StepError }

// EncodePayload serializes a payload for storage
func EncodePayload(p StepPayload) ([]byte, error) {
	if p == nil {
		p = MenuPayload{}
	}
	return json.Marshal(p)
}

// DecodePayload restores the payload of a step
func DecodePayload(step Step, raw []byte) (StepPayload, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var (
		p   StepPayload
		err error
	)
	switch step {
	case StepMenu:
		p = MenuPayload{}
	case StepChooseService:
		var v ChooseServicePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case StepChooseStaff:
		var v ChooseStaffPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case StepChooseDate:
		var v ChooseDatePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case StepChooseTime:
		var v ChooseTimePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case StepChoosePayment:
		var v ChoosePaymentPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case StepAskName:
		var v AskNamePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case StepDone:
		var v DonePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case StepError:
		p = ErrorPayload{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", step, err)
	}
	return p, nil
}
