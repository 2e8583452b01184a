package user

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	"github.com/xiebiao/devcommunity/pkg/metrics"
	"github.com/xiebiao/devcommunity/pkg/tracing"
)

// DeleteUseCase 删除用户用例
type DeleteUseCase struct {
	factory   *user.Factory
	publisher EventPublisher
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewDeleteUseCase 创建删除用例
func NewDeleteUseCase(factory *user.Factory, publisher EventPublisher, log logrus.FieldLogger) *DeleteUseCase {
	metrics.InitMetrics()
	return &DeleteUseCase{
		factory:   factory,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Execute 删除用户，用户不存在时返回user.ErrUserNotFound
func (uc *DeleteUseCase) Execute(ctx context.Context, id string) (ok bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "DeleteUseCase.Execute")
	defer func() { tracing.EndSpan(span, err) }()

	ok, err = uc.factory.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	metrics.UsersDeletedTotal.Inc()
	uc.log.WithField("user_id", id).Info("用户已删除")

	publishEvent(ctx, uc.publisher, uc.log, RoutingKeyUserDeleted, UserDeletedEvent{
		UserID:     id,
		OccurredAt: uc.now().UTC(),
	})
	return ok, nil
}
