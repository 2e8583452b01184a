//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改后运行 `wire gen ./cmd/userctl` 重新生成wire_gen.go

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	appuser "github.com/xiebiao/devcommunity/internal/application/user"
	"github.com/xiebiao/devcommunity/internal/infrastructure/config"
)

// repositorySet 仓储及其依赖的基础设施
var repositorySet = wire.NewSet(
	provideUserRepository,
)

// domainSet 领域层
var domainSet = wire.NewSet(
	provideHasher,
	provideFactory,
)

// applicationSet 用例及事件发布
var applicationSet = wire.NewSet(
	provideEventPublisher,
	provideConsumerFactory,
	appuser.NewRegisterUseCase,
	appuser.NewDeleteUseCase,
	appuser.NewQueryUseCase,
	appuser.NewVerifyCredentialsUseCase,
)

// InitializeApp 组装命令行应用
// logger和tracing由main在此之前初始化，这里只负责业务依赖。
func InitializeApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, func(), error) {
	wire.Build(
		wire.Bind(new(logrus.FieldLogger), new(*logrus.Logger)),
		repositorySet,
		domainSet,
		applicationSet,
		NewApp,
	)
	return nil, nil, nil
}
