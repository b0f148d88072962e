package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel часть amqp.Channel, нужная для публикации
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher публикует события о записях в topic exchange RabbitMQ
type Publisher struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	log      Logger
}

// Dial подключается к брокеру и объявляет exchange
func Dial(url, exchange string, log Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrConnect, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: open channel: %v", ErrConnect, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: declare exchange: %v", ErrConnect, err)
	}

	p := NewPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

// NewPublisher создает издателя поверх открытого канала
func NewPublisher(ch Channel, exchange string, log Logger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, log: log}
}

// BookingConfirmed публикует событие о подтвержденной записи.
// EventID и OccurredAt заполняются, если не заданы
func (p *Publisher) BookingConfirmed(ctx context.Context, event BookingConfirmed) error {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrPublish, err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyBookingConfirmed, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID.String(),
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%w: booking_id=%d: %v", ErrPublish, event.BookingID, err)
	}

	p.log.Info("Published %s event_id=%s booking_id=%d", RoutingKeyBookingConfirmed, event.EventID, event.BookingID)
	return nil
}

// Close закрывает канал и соединение
func (p *Publisher) Close() error {
	if closer, ok := p.ch.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher заменяет брокер, когда RabbitMQ отключен: событие только пишется в лог
type LogPublisher struct {
	log Logger
}

// NewLogPublisher создает издателя, пишущего события в лог
func NewLogPublisher(log Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// BookingConfirmed пишет событие в лог
func (p *LogPublisher) BookingConfirmed(_ context.Context, event BookingConfirmed) error {
	p.log.Info("Notification dispatch disabled, booking_id=%d tenant_id=%d", event.BookingID, event.TenantID)
	return nil
}
