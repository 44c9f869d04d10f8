// Package live fans freshly committed notifications out over Redis
// pub/sub so interested consumers (push senders, websockets) can react
// without polling. Entirely best effort: the engine's correctness never
// depends on a publish landing.
package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/canvass/internal/config"
	notificationdomain "github.com/smallbiznis/canvass/internal/notification/domain"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

type Hub struct {
	rdb     *redis.Client
	log     *zap.Logger
	channel string
}

// NewHub returns nil when no Redis address is configured; callers treat a
// nil hub as fan-out disabled.
func NewHub(cfg config.Config, log *zap.Logger) *Hub {
	if cfg.RedisAddr == "" {
		return nil
	}
	return &Hub{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}),
		log:     log.Named("notification.live"),
		channel: "canvass:notifications",
	}
}

type liveNotification struct {
	ID              string         `json:"id"`
	RecipientUserID string         `json:"recipient_user_id"`
	Kind            string         `json:"kind"`
	Payload         map[string]any `json:"payload,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

func (h *Hub) Publish(ctx context.Context, notification *notificationdomain.Notification) {
	if h == nil || notification == nil {
		return
	}

	body, err := json.Marshal(liveNotification{
		ID:              notification.ID.String(),
		RecipientUserID: notification.RecipientUserID,
		Kind:            notification.Kind,
		Payload:         notification.Payload,
		CreatedAt:       notification.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := h.rdb.Publish(ctx, h.channel, body).Err(); err != nil {
		h.log.Debug("live notification publish failed", zap.Error(err))
	}
}
