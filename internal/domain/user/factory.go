package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Factory 用户工厂
// 负责输入校验、创建用户，以及查询、删除、凭据校验。
// 除了仓储和哈希器的引用外不持有任何状态，可被并发调用（并发安全性取决于仓储实现）。
//
// 错误约定：
// - Create/Delete 在冲突、不存在时返回领域错误
// - 查询和凭据校验不返回领域错误：查不到返回nil，凭据不对返回false
// - 仓储或哈希器的基础设施错误原样向上传递
type Factory struct {
	repo   Repository
	hasher Hasher
	newID  func() string
	now    func() time.Time
}

// Option 工厂可选配置
type Option func(*Factory)

// WithIDGenerator 替换ID生成函数（默认uuid v4）
func WithIDGenerator(fn func() string) Option {
	return func(f *Factory) {
		if fn != nil {
			f.newID = fn
		}
	}
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFactory 创建用户工厂
func NewFactory(repo Repository, hasher Hasher, opts ...Option) *Factory {
	f := &Factory{
		repo:   repo,
		hasher: hasher,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create 创建用户
// 先完成全部字段校验，再检查邮箱唯一性，最后哈希密码并写入仓储。
// 任一步失败都不会留下部分数据。
func (f *Factory) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	dob, err := ValidateCreateInput(in)
	if err != nil {
		return nil, err
	}

	existing, err := f.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := f.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := newUser(f.newID(), in, dob, hash, f.now().UTC())

	// 预检查和写入之间存在时间窗口，仓储自身的唯一约束兜底，同样返回ErrUserAlreadyExists
	if err := f.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetAllUsers 返回全部用户，顺序不属于契约
func (f *Factory) GetAllUsers(ctx context.Context) ([]*User, error) {
	return f.repo.ListAll(ctx)
}

// GetUserByID 根据ID查询，不存在时返回nil, nil
func (f *Factory) GetUserByID(ctx context.Context, id string) (*User, error) {
	return absentIfNotFound(f.repo.FindByID(ctx, id))
}

// GetUserByEmail 根据邮箱查询，不存在时返回nil, nil
func (f *Factory) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return absentIfNotFound(f.repo.FindByEmail(ctx, email))
}

// Delete 删除用户
// 成功返回true；用户不存在时返回ErrUserNotFound，而不是false。
func (f *Factory) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := f.repo.RemoveByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, ErrUserNotFound
	}
	return true, nil
}

// IsValidUserCredentials 校验邮箱和密码
// 用户不存在、密码错误都返回false，不返回错误。
func (f *Factory) IsValidUserCredentials(ctx context.Context, email, password string) (bool, error) {
	u, err := f.GetUserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}
	return f.hasher.Verify(password, u.PasswordHash)
}

func absentIfNotFound(u *User, err error) (*User, error) {
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
