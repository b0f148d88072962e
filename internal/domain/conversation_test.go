package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadCodec(t *testing.T) {
	staff := int64(4)
	startsAt := time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)
	holdID := uuid.New()

	payloads := []StepPayload{
		MenuPayload{},
		ChooseServicePayload{ServiceIDs: []int64{1, 2}},
		ChooseStaffPayload{ServiceID: 1, StaffIDs: []int64{4, 5}},
		ChooseDatePayload{ServiceID: 1, StaffID: &staff},
		ChooseTimePayload{ServiceID: 1, Date: "2026-03-02", Options: []SlotOption{{StartsAt: startsAt, StaffID: 4}}},
		AskNamePayload{ServiceID: 1, StaffID: 4, StartsAt: startsAt, HoldID: holdID, PaymentMethod: PaymentOnline},
		DonePayload{BookingID: 99},
	}

	for _, p := range payloads {
		raw, err := EncodePayload(p)
		require.NoError(t, err)

		decoded, err := DecodePayload(p.Step(), raw)
		require.NoError(t, err)
		assert.Equal(t, p, decoded)
	}
}

func TestDecodePayload_UnknownStep(t *testing.T) {
	_, err := DecodePayload(Step("NOPE"), nil)
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestConversationState_IsIdle(t *testing.T) {
	now := time.Now()
	st := &ConversationState{UpdatedAt: now.Add(-31 * time.Minute)}
	assert.True(t, st.IsIdle(now, 30*time.Minute))

	st.UpdatedAt = now.Add(-29 * time.Minute)
	assert.False(t, st.IsIdle(now, 30*time.Minute))

	fresh := &ConversationState{}
	assert.False(t, fresh.IsIdle(now, 30*time.Minute))
}
