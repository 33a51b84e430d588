package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event types emitted by the roster core. Consumers (notifiers, dispatchers)
// subscribe to these facts; the core never delivers notifications itself.
const (
	TypeSubstitutionRequestCreated   = "substitution-request-created"
	TypeSubstitutionRequestResponded = "substitution-request-responded"
	TypeSwapExecuted                 = "swap-executed"
	TypeScalePublishedWithGaps       = "scale-published-with-gaps"
)

// Event is a fire-and-forget domain fact.
type Event struct {
	Type       string                 `json:"type"`
	TenantID   string                 `json:"tenant_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// Publisher makes domain facts observable to external dispatchers.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// RedisPublisher broadcasts events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher constructs a publisher bound to a channel.
func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel == "" {
		channel = "roster.events"
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Publish sends the event. Delivery failures are logged, never propagated.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.client == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("event marshal failed", zap.String("type", event.Type), zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("event publish failed", zap.String("type", event.Type), zap.Error(err))
	}
}

// LogPublisher records events to the application log only. Used when Redis
// publishing is disabled so emitted facts stay observable in development.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher constructs a log-backed publisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish writes the event to the log.
func (p *LogPublisher) Publish(_ context.Context, event Event) {
	p.logger.Info("domain_event",
		zap.String("type", event.Type),
		zap.String("tenant_id", event.TenantID),
		zap.Any("payload", event.Payload),
	)
}
