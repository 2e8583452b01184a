package user

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	apperrors "github.com/xiebiao/devcommunity/pkg/errors"
	"github.com/xiebiao/devcommunity/pkg/logger"
	"github.com/xiebiao/devcommunity/pkg/metrics"
	"github.com/xiebiao/devcommunity/pkg/tracing"
)

// RegisterUseCase 用户注册用例
// 在工厂创建用户之外，负责记录指标、发布user.created事件。
type RegisterUseCase struct {
	factory   *user.Factory
	publisher EventPublisher
	log       logrus.FieldLogger
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(factory *user.Factory, publisher EventPublisher, log logrus.FieldLogger) *RegisterUseCase {
	metrics.InitMetrics()
	return &RegisterUseCase{
		factory:   factory,
		publisher: publisher,
		log:       log,
	}
}

// Execute 执行注册
// 返回的错误是工厂的领域错误（校验、冲突）或基础设施错误，原样返回。
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (resp *RegisterResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "RegisterUseCase.Execute")
	defer func() { tracing.EndSpan(span, err) }()

	u, err := uc.factory.Create(ctx, user.CreateUserInput{
		Name:              req.Name,
		DateOfBirth:       req.DateOfBirth,
		Email:             req.Email,
		Gender:            user.Gender(req.Gender),
		MainLanguage:      req.MainLanguage,
		YearsOfExperience: req.YearsOfExperience,
		Password:          req.Password,
	})
	if err != nil {
		reason := apperrors.KindOf(err).String()
		metrics.UserRegistrationsFailedTotal.WithLabelValues(reason).Inc()

		entry := logger.WithError(uc.log, err).WithField("reason", reason)
		if reason == apperrors.KindInternal.String() {
			entry.Error("用户注册失败")
		} else {
			entry.Info("用户注册被拒绝")
		}
		return nil, err
	}

	metrics.UsersRegisteredTotal.Inc()
	uc.log.WithFields(logrus.Fields{
		"user_id":  u.ID,
		"trace_id": tracing.ExtractTraceID(ctx),
	}).Info("用户注册成功")

	publishEvent(ctx, uc.publisher, uc.log, RoutingKeyUserCreated, UserCreatedEvent{
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: u.CreatedAt,
	})

	return &RegisterResponse{User: toUserInfo(u)}, nil
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name              string
	DateOfBirth       string // YYYY-MM-DD
	Email             string
	Gender            string // MALE | FEMALE | OTHER
	MainLanguage      string
	YearsOfExperience int
	Password          string
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	User UserInfo `json:"user"`
}
