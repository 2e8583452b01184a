package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	"github.com/xiebiao/devcommunity/pkg/metrics"
)

// CachedRepository 在用户仓储前加一层Redis读缓存
//
// 缓存两类key：
//   - <prefix>id:<id>       → 用户JSON
//   - <prefix>email:<email> → 用户ID
//
// 只缓存存在的用户，不缓存“不存在”，创建时的邮箱唯一性检查总能看到最新数据。
// 删除时先删库再删缓存。Redis故障时降级为直接读库，只记录日志。
type CachedRepository struct {
	next   user.Repository
	cache  Cache
	ttl    time.Duration
	prefix string
	log    logrus.FieldLogger
}

// NewCachedRepository 创建缓存仓储
func NewCachedRepository(next user.Repository, cache Cache, ttl time.Duration, prefix string, log logrus.FieldLogger) *CachedRepository {
	metrics.InitMetrics()
	return &CachedRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		prefix: prefix,
		log:    log,
	}
}

// cachedUser 缓存中的用户结构
// 凭据校验需要读PasswordHash，所以哈希也会写入缓存。
type cachedUser struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	DateOfBirth       time.Time `json:"date_of_birth"`
	Email             string    `json:"email"`
	Gender            string    `json:"gender"`
	MainLanguage      string    `json:"main_language"`
	YearsOfExperience int       `json:"years_of_experience"`
	PasswordHash      string    `json:"password_hash"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Insert 写库后写缓存
func (r *CachedRepository) Insert(ctx context.Context, u *user.User) error {
	if err := r.next.Insert(ctx, u); err != nil {
		return err
	}
	r.store(ctx, u)
	return nil
}

// FindByID 先读缓存，未命中再读库并回填
func (r *CachedRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	if u, ok := r.loadByID(ctx, id); ok {
		return u, nil
	}

	u, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, u)
	return u, nil
}

// FindByEmail 通过email→id索引读缓存
func (r *CachedRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if id, ok := r.get(ctx, r.emailKey(email)); ok {
		if u, ok := r.loadByID(ctx, string(id)); ok && u.Email == email {
			return u, nil
		}
	}

	u, err := r.next.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	r.store(ctx, u)
	return u, nil
}

// ListAll 不缓存
func (r *CachedRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	return r.next.ListAll(ctx)
}

// RemoveByID 删库后删除两类key
func (r *CachedRepository) RemoveByID(ctx context.Context, id string) (bool, error) {
	// 删除前查出邮箱，才能清理email索引
	var email string
	if u, err := r.next.FindByID(ctx, id); err == nil {
		email = u.Email
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return false, err
	}

	removed, err := r.next.RemoveByID(ctx, id)
	if err != nil {
		return false, err
	}

	keys := []string{r.idKey(id)}
	if email != "" {
		keys = append(keys, r.emailKey(email))
	}
	if err := r.cache.Del(ctx, keys...); err != nil {
		r.log.WithError(err).WithField("user_id", id).Warn("删除用户缓存失败")
	}
	return removed, nil
}

func (r *CachedRepository) loadByID(ctx context.Context, id string) (*user.User, bool) {
	data, ok := r.get(ctx, r.idKey(id))
	if !ok {
		return nil, false
	}

	var cu cachedUser
	if err := json.Unmarshal(data, &cu); err != nil {
		r.log.WithError(err).WithField("user_id", id).Warn("用户缓存数据损坏")
		return nil, false
	}
	return fromCached(&cu), true
}

// get 读取一个key，命中返回true；Redis错误视为未命中
func (r *CachedRepository) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
		return data, true
	case errors.Is(err, ErrCacheMiss):
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	default:
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		r.log.WithError(err).WithField("key", key).Warn("读取用户缓存失败")
	}
	return nil, false
}

func (r *CachedRepository) store(ctx context.Context, u *user.User) {
	data, err := json.Marshal(toCached(u))
	if err != nil {
		r.log.WithError(err).Warn("序列化用户缓存失败")
		return
	}
	if err := r.cache.Set(ctx, r.idKey(u.ID), data, r.ttl); err != nil {
		r.log.WithError(err).WithField("user_id", u.ID).Warn("写入用户缓存失败")
		return
	}
	if err := r.cache.Set(ctx, r.emailKey(u.Email), []byte(u.ID), r.ttl); err != nil {
		r.log.WithError(err).WithField("user_id", u.ID).Warn("写入邮箱索引缓存失败")
	}
}

func (r *CachedRepository) idKey(id string) string {
	return r.prefix + "id:" + id
}

func (r *CachedRepository) emailKey(email string) string {
	return r.prefix + "email:" + email
}

func toCached(u *user.User) *cachedUser {
	return &cachedUser{
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

func fromCached(c *cachedUser) *user.User {
	return &user.User{
		ID:                c.ID,
		Name:              c.Name,
		DateOfBirth:       c.DateOfBirth.UTC(),
		Email:             c.Email,
		Gender:            user.Gender(c.Gender),
		MainLanguage:      c.MainLanguage,
		YearsOfExperience: c.YearsOfExperience,
		PasswordHash:      c.PasswordHash,
		CreatedAt:         c.CreatedAt.UTC(),
		UpdatedAt:         c.UpdatedAt.UTC(),
	}
}

var _ user.Repository = (*CachedRepository)(nil)
