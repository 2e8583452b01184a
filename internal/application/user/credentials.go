package user

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	"github.com/xiebiao/devcommunity/pkg/logger"
	"github.com/xiebiao/devcommunity/pkg/metrics"
	"github.com/xiebiao/devcommunity/pkg/tracing"
)

// VerifyCredentialsUseCase 凭据校验用例
// 只回答邮箱和密码是否匹配，不签发token、不建立会话。
type VerifyCredentialsUseCase struct {
	factory *user.Factory
	log     logrus.FieldLogger
}

// NewVerifyCredentialsUseCase 创建凭据校验用例
func NewVerifyCredentialsUseCase(factory *user.Factory, log logrus.FieldLogger) *VerifyCredentialsUseCase {
	metrics.InitMetrics()
	return &VerifyCredentialsUseCase{factory: factory, log: log}
}

// Execute 校验凭据
// 用户不存在和密码错误都返回false，调用方无法区分两者。
func (uc *VerifyCredentialsUseCase) Execute(ctx context.Context, req VerifyCredentialsRequest) (valid bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "VerifyCredentialsUseCase.Execute")
	defer func() { tracing.EndSpan(span, err) }()

	valid, err = uc.factory.IsValidUserCredentials(ctx, req.Email, req.Password)
	switch {
	case err != nil:
		metrics.CredentialChecksTotal.WithLabelValues("error").Inc()
		logger.WithError(uc.log, err).Error("凭据校验失败")
		return false, err
	case valid:
		metrics.CredentialChecksTotal.WithLabelValues("valid").Inc()
	default:
		metrics.CredentialChecksTotal.WithLabelValues("invalid").Inc()
		uc.log.Debug("凭据不匹配")
	}
	return valid, nil
}

// VerifyCredentialsRequest 凭据校验请求
type VerifyCredentialsRequest struct {
	Email    string
	Password string
}
