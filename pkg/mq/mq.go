// Package mq 基于RabbitMQ的事件发布/订阅
//
// 发布者把事件序列化为JSON发到Exchange，routing key即事件类型（如user.created）。
// Topic类型的Exchange允许消费者用通配符订阅（user.*）。
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/devcommunity/pkg/metrics"
)

// ErrClosed 通道已关闭
var ErrClosed = errors.New("mq: channel closed")

// channel 发布者用到的amqp.Channel方法
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher 消息发布者
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      logrus.FieldLogger
}

// NewPublisher 连接RabbitMQ并声明Exchange
// Exchange是持久化的，RabbitMQ重启后不会丢失。
func NewPublisher(url, exchange, exchangeType string, log logrus.FieldLogger) (*Publisher, error) {
	conn, ch, err := dial(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"exchange": exchange, "type": exchangeType}).Info("消息发布者已创建")
	p := newPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, log logrus.FieldLogger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, log: log}
}

// Publish 发布消息
// message序列化为JSON，消息持久化（DeliveryMode=Persistent），MessageId为uuid。
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         routingKey,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	metrics.MessagesPublishedTotal.WithLabelValues(p.exchange, routingKey, metrics.Result(err == nil)).Inc()
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"routing_key": routingKey,
		"message_id":  msg.MessageId,
	}).Debug("消息已发布")
	return nil
}

// Close 关闭发布者
func (p *Publisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// Handler 消息处理函数，返回错误时消息重新入队
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Consumer 消息消费者
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   logrus.FieldLogger
}

// NewConsumer 声明队列并按routingKeys绑定到Exchange
// queue为空时声明一个独占的临时队列，消费者断开后自动删除。
func NewConsumer(url, exchange, exchangeType, queue string, routingKeys []string, log logrus.FieldLogger) (*Consumer, error) {
	conn, ch, err := dial(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	temporary := queue == ""
	q, err := ch.QueueDeclare(
		queue,
		!temporary, // Durable
		temporary,  // AutoDelete
		temporary,  // Exclusive
		false,      // NoWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("绑定Queue失败: %w", err)
		}
	}

	log.WithFields(logrus.Fields{"queue": q.Name, "routing_keys": routingKeys}).Info("消息消费者已创建")
	return &Consumer{conn: conn, ch: ch, queue: q.Name, log: log}, nil
}

// Queue 实际队列名（临时队列由服务端命名）
func (c *Consumer) Queue() string {
	return c.queue
}

// Consume 消费消息直到ctx取消
// 手动确认：handler成功后Ack，失败Nack并重新入队。
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	// 每次只取一条，处理完再取下一条
	if err := c.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	return consumeLoop(ctx, c.queue, msgs, handler, c.log)
}

func consumeLoop(ctx context.Context, queue string, msgs <-chan amqp.Delivery, handler Handler, log logrus.FieldLogger) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return ErrClosed
			}

			entry := log.WithFields(logrus.Fields{"routing_key": msg.RoutingKey, "message_id": msg.MessageId})
			if err := handler(ctx, msg.RoutingKey, msg.Body); err != nil {
				entry.WithError(err).Warn("消息处理失败，重新入队")
				metrics.MessagesConsumedTotal.WithLabelValues(queue, metrics.Result(false)).Inc()
				if nackErr := msg.Nack(false, true); nackErr != nil {
					return fmt.Errorf("nack失败: %w", nackErr)
				}
				continue
			}

			metrics.MessagesConsumedTotal.WithLabelValues(queue, metrics.Result(true)).Inc()
			if err := msg.Ack(false); err != nil {
				return fmt.Errorf("ack失败: %w", err)
			}
		}
	}
}

// Close 关闭消费者
func (c *Consumer) Close() error {
	var errs []error
	if c.ch != nil {
		errs = append(errs, c.ch.Close())
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
	}
	return errors.Join(errs...)
}

func dial(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		exchangeType,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, ch, nil
}

func init() {
	metrics.InitMetrics()
}
