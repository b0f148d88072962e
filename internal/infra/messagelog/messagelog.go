package messagelog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLog возвращается при недоступности Redis
var ErrLog = errors.New("messagelog: redis error")

const keyPrefix = "inbound"

// Log глобальный журнал входящих сообщений.
// Запоминает id сообщения на ttl, повторная доставка того же id распознается как дубликат
type Log struct {
	client redis.Cmdable
	ttl    time.Duration
}

// New создает журнал поверх клиента Redis
func New(client redis.Cmdable, ttl time.Duration) *Log {
	return &Log{client: client, ttl: ttl}
}

// Register отмечает сообщение как принятое.
// Возвращает false, если сообщение с этим id уже было зарегистрировано
func (l *Log) Register(ctx context.Context, tenantID int64, messageID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, Key(tenantID, messageID), 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: Register - setnx: %v", ErrLog, err)
	}
	return ok, nil
}

// Forget удаляет отметку, чтобы сообщение можно было обработать повторно
func (l *Log) Forget(ctx context.Context, tenantID int64, messageID string) error {
	if err := l.client.Del(ctx, Key(tenantID, messageID)).Err(); err != nil {
		return fmt.Errorf("%w: Forget - del: %v", ErrLog, err)
	}
	return nil
}

// Key ключ сообщения в Redis
func Key(tenantID int64, messageID string) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, tenantID, messageID)
}
