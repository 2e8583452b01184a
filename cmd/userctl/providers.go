package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	appuser "github.com/xiebiao/devcommunity/internal/application/user"
	"github.com/xiebiao/devcommunity/internal/domain/user"
	"github.com/xiebiao/devcommunity/internal/infrastructure/config"
	"github.com/xiebiao/devcommunity/internal/infrastructure/messaging"
	"github.com/xiebiao/devcommunity/internal/infrastructure/persistence/instrumented"
	"github.com/xiebiao/devcommunity/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/devcommunity/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/devcommunity/internal/infrastructure/persistence/postgres"
	"github.com/xiebiao/devcommunity/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/devcommunity/pkg/circuitbreaker"
	"github.com/xiebiao/devcommunity/pkg/mq"
)

// provideUserRepository 按storage.driver创建仓储
// 结构：[Redis缓存] → 指标/追踪 → 具体存储。cleanup按创建的逆序释放连接。
func provideUserRepository(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (user.Repository, func(), error) {
	base, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	var repo user.Repository = instrumented.NewUserRepository(base, cfg.Storage.Driver)

	if !cfg.Storage.Cache {
		return repo, cleanup, nil
	}

	client, err := redis.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cached := redis.NewCachedRepository(repo, redis.NewCache(client), cfg.Redis.UserTTL, cfg.Redis.KeyPrefix, log)
	return cached, func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("关闭Redis连接失败")
		}
		cleanup()
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (user.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.NewUserStore(), func() {}, nil

	case config.DriverMySQL:
		db, err := mysql.NewDB(cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		return mysql.NewUserRepository(db), func() {
			if err := mysql.Close(db); err != nil {
				log.WithError(err).Warn("关闭MySQL连接失败")
			}
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Storage.Driver)
}

func provideHasher(cfg *config.Config) user.Hasher {
	return user.NewBcryptHasher(cfg.Security.BcryptCost)
}

func provideFactory(repo user.Repository, hasher user.Hasher) *user.Factory {
	return user.NewFactory(repo, hasher)
}

// provideEventPublisher 启用RabbitMQ时返回带熔断器的发布者，否则不发布事件
func provideEventPublisher(cfg *config.Config, log logrus.FieldLogger) (appuser.EventPublisher, func(), error) {
	if !cfg.RabbitMQ.Enabled {
		return appuser.NopPublisher{}, func() {}, nil
	}

	pub, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.ExchangeType, log)
	if err != nil {
		return nil, nil, err
	}
	breaker := messaging.NewBreakerPublisher(pub, "user-events", circuitbreaker.Config{
		Timeout:     cfg.RabbitMQ.BreakerTimeout,
		ReadyToTrip: circuitbreaker.ConsecutiveFailures(cfg.RabbitMQ.BreakerFailures),
	}, log)
	return breaker, func() {
		if err := pub.Close(); err != nil {
			log.WithError(err).Warn("关闭消息发布者失败")
		}
	}, nil
}

func provideConsumerFactory(cfg *config.Config, log logrus.FieldLogger) consumerFactory {
	if !cfg.RabbitMQ.Enabled {
		return nil
	}
	rc := cfg.RabbitMQ
	return func(queue string) (eventConsumer, error) {
		return mq.NewConsumer(rc.URL, rc.Exchange, rc.ExchangeType, queue,
			[]string{appuser.RoutingKeyUserCreated, appuser.RoutingKeyUserDeleted}, log)
	}
}
