package user

import (
	"context"
)

// Repository 用户仓储接口（User Store）
// 接口定义在domain层，memory/mysql/postgres/redis等实现位于infrastructure层。
type Repository interface {
	// Insert 保存新用户
	// 邮箱已存在时返回ErrUserAlreadyExists
	Insert(ctx context.Context, u *User) error

	// FindByID 根据ID查找用户
	// 不存在时返回ErrUserNotFound
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail 根据邮箱查找用户
	// 不存在时返回ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ListAll 返回全部用户
	ListAll(ctx context.Context) ([]*User, error)

	// RemoveByID 物理删除用户
	// 不存在时返回false，不报错
	RemoveByID(ctx context.Context, id string) (bool, error)
}
