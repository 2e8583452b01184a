//go:build integration

// Package integration 针对真实MySQL、PostgreSQL、Redis的集成测试
//
// 运行方式（需要先启动MySQL、PostgreSQL、Redis）：
//
//	go test -tags=integration -v ./test/integration/...
//
// 连接参数使用默认配置，可通过DEVCOMMUNITY_*环境变量覆盖。
package integration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	"github.com/xiebiao/devcommunity/internal/infrastructure/config"
)

var emailSeq atomic.Int64

// loadConfig 读取默认配置和环境变量覆盖
func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err, "加载配置失败")
	return cfg
}

// GenerateTestEmail 生成唯一的测试邮箱
// 时间戳加进程内序号，重复运行和并发子测试都不会冲突。
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d_%d@test.com", prefix, time.Now().UnixNano(), emailSeq.Add(1))
}

func validInput(email string) user.CreateUserInput {
	return user.CreateUserInput{
		Name:              "Integration Tester",
		DateOfBirth:       "1990-02-28",
		Email:             email,
		Gender:            user.GenderOther,
		MainLanguage:      "Go",
		YearsOfExperience: 7,
		Password:          "Integr4tion!",
	}
}

// runRepositoryContract 所有仓储实现共用的行为测试
func runRepositoryContract(t *testing.T, repo user.Repository) {
	factory := user.NewFactory(repo, user.NewBcryptHasher(bcrypt.MinCost))
	ctx := context.Background()

	t.Run("创建并查询", func(t *testing.T) {
		email := GenerateTestEmail("create")
		created, err := factory.Create(ctx, validInput(email))
		require.NoError(t, err)

		byID, err := factory.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, email, byID.Email)
		assert.Equal(t, "1990-02-28", byID.DateOfBirthString())
		assert.Equal(t, user.GenderOther, byID.Gender)
		assert.NotEqual(t, "Integr4tion!", byID.PasswordHash)
		assert.WithinDuration(t, created.CreatedAt, byID.CreatedAt, time.Millisecond)

		byEmail, err := factory.GetUserByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, created.ID, byEmail.ID)

		all, err := factory.GetAllUsers(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids(all), created.ID)
	})

	t.Run("不存在返回nil", func(t *testing.T) {
		u, err := factory.GetUserByID(ctx, "00000000-0000-4000-8000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, u)

		u, err = factory.GetUserByEmail(ctx, GenerateTestEmail("missing"))
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("重复邮箱", func(t *testing.T) {
		email := GenerateTestEmail("dup")
		_, err := factory.Create(ctx, validInput(email))
		require.NoError(t, err)

		_, err = factory.Create(ctx, validInput(email))
		assert.ErrorIs(t, err, user.ErrUserAlreadyExists)
	})

	t.Run("邮箱区分大小写", func(t *testing.T) {
		email := GenerateTestEmail("Case")
		_, err := factory.Create(ctx, validInput(email))
		require.NoError(t, err)

		u, err := factory.GetUserByEmail(ctx, "case"+email[len("Case"):])
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("删除", func(t *testing.T) {
		email := GenerateTestEmail("delete")
		created, err := factory.Create(ctx, validInput(email))
		require.NoError(t, err)

		ok, err := factory.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = factory.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, user.ErrUserNotFound)

		// 删除后邮箱可以重新注册
		_, err = factory.Create(ctx, validInput(email))
		assert.NoError(t, err)
	})

	t.Run("凭据校验", func(t *testing.T) {
		email := GenerateTestEmail("cred")
		_, err := factory.Create(ctx, validInput(email))
		require.NoError(t, err)

		ok, err := factory.IsValidUserCredentials(ctx, email, "Integr4tion!")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = factory.IsValidUserCredentials(ctx, email, "wrong")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("并发注册同一邮箱只有一个成功", func(t *testing.T) {
		email := GenerateTestEmail("race")
		const n = 8

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			conflicts atomic.Int32
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := factory.Create(ctx, validInput(email))
				switch {
				case err == nil:
					succeeded.Add(1)
				case assert.ErrorIs(t, err, user.ErrUserAlreadyExists):
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), succeeded.Load())
		assert.Equal(t, int32(n-1), conflicts.Load())
	})
}

func ids(users []*user.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}
