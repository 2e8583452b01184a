package user

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/devcommunity/pkg/logger"
)

// 用户事件的routing key
const (
	RoutingKeyUserCreated = "user.created"
	RoutingKeyUserDeleted = "user.deleted"
)

// EventPublisher 领域事件发布接口
// 实现：messaging.BreakerPublisher（RabbitMQ + 熔断器）、NopPublisher。
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
}

// NopPublisher 不发布任何事件（未启用消息队列时使用）
type NopPublisher struct{}

// Publish 直接返回nil
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// UserCreatedEvent 用户创建事件
type UserCreatedEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserDeletedEvent 用户删除事件
type UserDeletedEvent struct {
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publishEvent 发布事件
// 用户数据已经写入，事件发布失败只记录日志，不影响用例结果。
func publishEvent(ctx context.Context, p EventPublisher, log logrus.FieldLogger, routingKey string, event interface{}) {
	if err := p.Publish(ctx, routingKey, event); err != nil {
		logger.WithError(log, err).
			WithField("routing_key", routingKey).
			Warn("用户事件发布失败")
	}
}
