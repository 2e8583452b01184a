package user

import (
	"context"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	"github.com/xiebiao/devcommunity/pkg/tracing"
)

// QueryUseCase 用户查询
// 查不到时返回nil, nil，与工厂的约定一致。
type QueryUseCase struct {
	factory *user.Factory
}

// NewQueryUseCase 创建查询用例
func NewQueryUseCase(factory *user.Factory) *QueryUseCase {
	return &QueryUseCase{factory: factory}
}

// List 全部用户
func (uc *QueryUseCase) List(ctx context.Context) (out []UserInfo, err error) {
	ctx, span := tracing.StartSpan(ctx, "QueryUseCase.List")
	defer func() { tracing.EndSpan(span, err) }()

	users, err := uc.factory.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	out = make([]UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, toUserInfo(u))
	}
	return out, nil
}

// GetByID 按ID查询
func (uc *QueryUseCase) GetByID(ctx context.Context, id string) (info *UserInfo, err error) {
	ctx, span := tracing.StartSpan(ctx, "QueryUseCase.GetByID")
	defer func() { tracing.EndSpan(span, err) }()

	return optionalUserInfo(uc.factory.GetUserByID(ctx, id))
}

// GetByEmail 按邮箱查询
func (uc *QueryUseCase) GetByEmail(ctx context.Context, email string) (info *UserInfo, err error) {
	ctx, span := tracing.StartSpan(ctx, "QueryUseCase.GetByEmail")
	defer func() { tracing.EndSpan(span, err) }()

	return optionalUserInfo(uc.factory.GetUserByEmail(ctx, email))
}

func optionalUserInfo(u *user.User, err error) (*UserInfo, error) {
	if err != nil || u == nil {
		return nil, err
	}
	info := toUserInfo(u)
	return &info, nil
}
