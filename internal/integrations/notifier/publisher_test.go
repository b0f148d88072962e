package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type recordingChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (c *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange = exchange
	c.key = key
	c.msg = msg
	return c.err
}

func TestBookingConfirmed_Publishes(t *testing.T) {
	ch := &recordingChannel{}
	p := NewPublisher(ch, "bookings", logger.NewNop())

	startsAt := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	err := p.BookingConfirmed(context.Background(), BookingConfirmed{
		TenantID:  1,
		BookingID: 99,
		StartsAt:  startsAt,
		Channel:   "messaging",
	})
	require.NoError(t, err)

	assert.Equal(t, "bookings", ch.exchange)
	assert.Equal(t, RoutingKeyBookingConfirmed, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.NotEmpty(t, ch.msg.MessageId)

	var event BookingConfirmed
	require.NoError(t, json.Unmarshal(ch.msg.Body, &event))
	assert.Equal(t, int64(99), event.BookingID)
	assert.Equal(t, ch.msg.MessageId, event.EventID.String())
	assert.True(t, event.StartsAt.Equal(startsAt))
}

func TestBookingConfirmed_PublishError(t *testing.T) {
	ch := &recordingChannel{err: errors.New("channel closed")}
	p := NewPublisher(ch, "bookings", logger.NewNop())

	err := p.BookingConfirmed(context.Background(), BookingConfirmed{BookingID: 1})
	assert.ErrorIs(t, err, ErrPublish)
}
