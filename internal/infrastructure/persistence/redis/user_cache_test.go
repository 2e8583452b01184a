package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	"github.com/xiebiao/devcommunity/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/devcommunity/pkg/logger"
)

type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	gets   int
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// countingRepo 统计穿透到底层仓储的查询次数
type countingRepo struct {
	*memory.UserStore
	byID    int
	byEmail int
}

func (r *countingRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	r.byID++
	return r.UserStore.FindByID(ctx, id)
}

func (r *countingRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.byEmail++
	return r.UserStore.FindByEmail(ctx, email)
}

func sampleUser(id, email string) *user.User {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return &user.User{
		ID:                id,
		Name:              "Linus",
		DateOfBirth:       time.Date(1969, 12, 28, 0, 0, 0, 0, time.UTC),
		Email:             email,
		Gender:            user.GenderMale,
		MainLanguage:      "C",
		YearsOfExperience: 30,
		PasswordHash:      "$2a$04$hash",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func newTestRepo() (*CachedRepository, *countingRepo, *fakeCache) {
	backend := &countingRepo{UserStore: memory.NewUserStore()}
	cache := newFakeCache()
	return NewCachedRepository(backend, cache, time.Minute, "test:user:", logger.Discard()), backend, cache
}

func TestCachedRepository_InsertPopulatesCache(t *testing.T) {
	repo, backend, cache := newTestRepo()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, sampleUser("u-1", "linus@example.com")))

	assert.True(t, cache.has("test:user:id:u-1"))
	assert.Equal(t, "u-1", string(cache.data["test:user:email:linus@example.com"]))
	assert.Equal(t, time.Minute, cache.ttls["test:user:id:u-1"])

	got, err := repo.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, sampleUser("u-1", "linus@example.com"), got)
	assert.Equal(t, 0, backend.byID)

	got, err = repo.FindByEmail(ctx, "linus@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, 0, backend.byEmail)
}

func TestCachedRepository_InsertDuplicateLeavesCacheUntouched(t *testing.T) {
	repo, _, cache := newTestRepo()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, sampleUser("u-1", "linus@example.com")))
	err := repo.Insert(ctx, sampleUser("u-2", "linus@example.com"))

	assert.ErrorIs(t, err, user.ErrUserAlreadyExists)
	assert.False(t, cache.has("test:user:id:u-2"))
	assert.Equal(t, "u-1", string(cache.data["test:user:email:linus@example.com"]))
}

func TestCachedRepository_ReadThrough(t *testing.T) {
	repo, backend, cache := newTestRepo()
	ctx := context.Background()
	require.NoError(t, backend.Insert(ctx, sampleUser("u-1", "linus@example.com")))

	got, err := repo.FindByEmail(ctx, "linus@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, 1, backend.byEmail)
	assert.True(t, cache.has("test:user:id:u-1"))

	_, err = repo.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 0, backend.byID, "第二次查询应命中缓存")
}

func TestCachedRepository_MissIsNotCached(t *testing.T) {
	repo, backend, cache := newTestRepo()
	ctx := context.Background()

	_, err := repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	assert.False(t, cache.has("test:user:email:nobody@example.com"))

	require.NoError(t, backend.Insert(ctx, sampleUser("u-9", "nobody@example.com")))
	got, err := repo.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-9", got.ID)
}

func TestCachedRepository_RemoveInvalidates(t *testing.T) {
	repo, _, cache := newTestRepo()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, sampleUser("u-1", "linus@example.com")))

	removed, err := repo.RemoveByID(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, cache.has("test:user:id:u-1"))
	assert.False(t, cache.has("test:user:email:linus@example.com"))

	_, err = repo.FindByID(ctx, "u-1")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	_, err = repo.FindByEmail(ctx, "linus@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	removed, err = repo.RemoveByID(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCachedRepository_CacheFailureFallsBack(t *testing.T) {
	repo, backend, cache := newTestRepo()
	ctx := context.Background()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")

	require.NoError(t, repo.Insert(ctx, sampleUser("u-1", "linus@example.com")))

	got, err := repo.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, 1, backend.byID)
}

func TestCachedRepository_CorruptEntryFallsBack(t *testing.T) {
	repo, backend, cache := newTestRepo()
	ctx := context.Background()
	require.NoError(t, backend.Insert(ctx, sampleUser("u-1", "linus@example.com")))
	cache.data["test:user:id:u-1"] = []byte("{not json")

	got, err := repo.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "linus@example.com", got.Email)
	assert.Equal(t, 1, backend.byID)
}

func TestCachedRepository_StaleEmailIndexIgnored(t *testing.T) {
	repo, backend, cache := newTestRepo()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, sampleUser("u-1", "linus@example.com")))
	// 索引指向的用户邮箱已经不一致
	cache.data["test:user:email:other@example.com"] = []byte("u-1")

	_, err := repo.FindByEmail(ctx, "other@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	assert.Equal(t, 1, backend.byEmail)
}

func TestCachedRepository_ListAllBypassesCache(t *testing.T) {
	repo, _, cache := newTestRepo()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, sampleUser("u-1", "a@example.com")))
	require.NoError(t, repo.Insert(ctx, sampleUser("u-2", "b@example.com")))
	before := cache.gets

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, before, cache.gets)
}
