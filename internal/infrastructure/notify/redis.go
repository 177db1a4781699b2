package notify

import (
	"context"
	"encoding/json"
	"time"

	"coinsentry/internal/application/port"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes fired-alert events to a pub/sub channel so other
// processes (dashboards, delivery workers) can consume them.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

type alertEvent struct {
	UserID   int64  `json:"user_id"`
	Text     string `json:"text"`
	Critical bool   `json:"critical"`
	TsMs     int64  `json:"ts_ms"`
}

func (p *RedisPublisher) Send(ctx context.Context, userID int64, text string, emphasis port.Emphasis) error {
	b, err := json.Marshal(alertEvent{
		UserID:   userID,
		Text:     text,
		Critical: emphasis == port.EmphasisCritical,
		TsMs:     time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, string(b)).Err()
}

var _ port.Notifier = (*RedisPublisher)(nil)
