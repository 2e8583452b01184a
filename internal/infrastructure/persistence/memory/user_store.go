package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/devcommunity/internal/domain/user"
)

// UserStore 基于内存的用户仓储
// 按ID存储记录，另维护email→id索引，邮箱唯一性在Insert时于写锁内原子检查。
// 读写都复制实体，调用方修改返回值不会影响存储内容。
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]*user.User
	byEmail map[string]string
	order   []string
}

// NewUserStore 创建内存仓储
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*user.User),
		byEmail: make(map[string]string),
	}
}

// Insert 保存新用户
func (s *UserStore) Insert(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[u.Email]; ok {
		return user.ErrUserAlreadyExists
	}
	if _, ok := s.byID[u.ID]; ok {
		return user.ErrUserAlreadyExists
	}

	s.byID[u.ID] = clone(u)
	s.byEmail[u.Email] = u.ID
	s.order = append(s.order, u.ID)
	return nil
}

// FindByID 根据ID查找
func (s *UserStore) FindByID(ctx context.Context, id string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return clone(u), nil
}

// FindByEmail 根据邮箱查找（精确匹配）
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return clone(s.byID[id]), nil
}

// ListAll 按写入顺序返回全部用户
func (s *UserStore) ListAll(ctx context.Context) ([]*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*user.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.byID[id]))
	}
	return out, nil
}

// RemoveByID 物理删除
func (s *UserStore) RemoveByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return false, nil
	}

	delete(s.byID, id)
	delete(s.byEmail, u.Email)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Len 当前用户数
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func clone(u *user.User) *user.User {
	c := *u
	return &c
}

var _ user.Repository = (*UserStore)(nil)
