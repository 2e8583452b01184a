// Package messaging 用户事件发布的基础设施实现
package messaging

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/devcommunity/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/devcommunity/pkg/errors"
	"github.com/xiebiao/devcommunity/pkg/metrics"
)

// Publisher 底层消息发布（*mq.Publisher）
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// BreakerPublisher 带熔断保护的事件发布者
// RabbitMQ不可用时，熔断打开后的发布请求立即失败，不再等待连接超时。
type BreakerPublisher struct {
	next Publisher
	cb   *circuitbreaker.CircuitBreaker
}

// NewBreakerPublisher 创建带熔断的发布者
// 状态变化会同步到circuit_breaker_state指标并记录日志，cfg.OnStateChange仍会被调用。
func NewBreakerPublisher(next Publisher, name string, cfg circuitbreaker.Config, log logrus.FieldLogger) *BreakerPublisher {
	metrics.InitMetrics()

	userCallback := cfg.OnStateChange
	cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		log.WithFields(logrus.Fields{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("熔断器状态变化")
		if userCallback != nil {
			userCallback(name, from, to)
		}
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(circuitbreaker.StateClosed))
	return &BreakerPublisher{
		next: next,
		cb:   circuitbreaker.NewCircuitBreaker(name, cfg),
	}
}

// Publish 在熔断器保护下发布事件
func (p *BreakerPublisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	err := p.cb.Execute(func() error {
		return p.next.Publish(ctx, routingKey, event)
	})

	result := "success"
	switch {
	case errors.Is(err, circuitbreaker.ErrOpenState):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(p.cb.Name(), result).Inc()

	if err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeMQError, "publish user event failed")
	}
	return nil
}

// State 熔断器当前状态
func (p *BreakerPublisher) State() circuitbreaker.State {
	return p.cb.State()
}
