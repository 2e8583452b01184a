package mysql

import (
	"context"
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	apperrors "github.com/xiebiao/devcommunity/pkg/errors"
)

// mysqlErrDuplicateEntry Duplicate entry 'xxx' for key 'yyy'
const mysqlErrDuplicateEntry = 1062

// userRepository 用户仓储实现（MySQL）
// 邮箱唯一性最终由数据库唯一索引保证，冲突时返回user.ErrUserAlreadyExists。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// Insert 保存新用户
func (r *userRepository) Insert(ctx context.Context, u *user.User) error {
	model := toModel(u)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return user.ErrUserAlreadyExists
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "insert user failed")
	}
	return nil
}

// FindByID 根据ID查找
func (r *userRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	return toEntityOrError(&model, err)
}

// FindByEmail 根据邮箱查找
// 只需要一条记录，用Take避免按主键排序。
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&model).Error
	return toEntityOrError(&model, err)
}

// ListAll 按创建时间返回全部用户
func (r *userRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	var models []UserModel
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "list users failed")
	}

	users := make([]*user.User, 0, len(models))
	for i := range models {
		users = append(users, toEntity(&models[i]))
	}
	return users, nil
}

// RemoveByID 物理删除，没有匹配行时返回false
func (r *userRepository) RemoveByID(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserModel{})
	if result.Error != nil {
		return false, apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "delete user failed")
	}
	return result.RowsAffected > 0, nil
}

// =========================================
// 模型转换
// =========================================

func toModel(u *user.User) *UserModel {
	return &UserModel{
		ID:                u.ID,
		Name:              u.Name,
		DateOfBirth:       u.DateOfBirth,
		Email:             u.Email,
		Gender:            string(u.Gender),
		MainLanguage:      u.MainLanguage,
		YearsOfExperience: u.YearsOfExperience,
		PasswordHash:      u.PasswordHash,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func toEntity(m *UserModel) *user.User {
	return &user.User{
		ID:                m.ID,
		Name:              m.Name,
		DateOfBirth:       m.DateOfBirth.UTC(),
		Email:             m.Email,
		Gender:            user.Gender(m.Gender),
		MainLanguage:      m.MainLanguage,
		YearsOfExperience: m.YearsOfExperience,
		PasswordHash:      m.PasswordHash,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

func toEntityOrError(m *UserModel, err error) (*user.User, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "query user failed")
	}
	return toEntity(m), nil
}

// isDuplicateError 是否为唯一索引冲突
// 开启TranslateError后gorm返回ErrDuplicatedKey，直接使用驱动错误时检查错误码1062。
func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}
