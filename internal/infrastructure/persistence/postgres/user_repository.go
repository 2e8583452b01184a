package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	apperrors "github.com/xiebiao/devcommunity/pkg/errors"
)

// uniqueViolation PostgreSQL错误码23505
const uniqueViolation = "23505"

const userColumns = `id, name, date_of_birth, email, gender, main_language,
	years_of_experience, password_hash, created_at, updated_at`

// querier *pgxpool.Pool、pgx.Tx都实现了这些方法
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository 用户仓储实现（PostgreSQL）
// 文本比较默认区分大小写，email唯一约束与精确匹配的语义一致。
type UserRepository struct {
	db querier
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db querier) *UserRepository {
	return &UserRepository{db: db}
}

// Insert 保存新用户
func (r *UserRepository) Insert(ctx context.Context, u *user.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.Name, u.DateOfBirth, u.Email, string(u.Gender), u.MainLanguage,
		u.YearsOfExperience, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrUserAlreadyExists
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "insert user failed")
	}
	return nil
}

// FindByID 根据ID查找
// id列是UUID类型，格式不合法的id不可能存在，直接返回不存在，不交给数据库报类型错误。
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	if !isUUID(id) {
		return nil, user.ErrUserNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanOne(row)
}

// FindByEmail 根据邮箱查找
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanOne(row)
}

// ListAll 按创建时间返回全部用户
func (r *UserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "list users failed")
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "scan user failed")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "list users failed")
	}
	return users, nil
}

// RemoveByID 物理删除，没有匹配行时返回false
func (r *UserRepository) RemoveByID(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "delete user failed")
	}
	return tag.RowsAffected() > 0, nil
}

func scanOne(row pgx.Row) (*user.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "query user failed")
	}
	return u, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u      user.User
		gender string
	)
	err := row.Scan(&u.ID, &u.Name, &u.DateOfBirth, &u.Email, &gender, &u.MainLanguage,
		&u.YearsOfExperience, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Gender = user.Gender(gender)
	u.DateOfBirth = u.DateOfBirth.UTC()
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ user.Repository = (*UserRepository)(nil)
