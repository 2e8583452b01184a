package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash1, err := h.Hash("Teste@123")
	require.NoError(t, err)
	hash2, err := h.Hash("Teste@123")
	require.NoError(t, err)

	assert.NotEqual(t, "Teste@123", hash1)
	assert.NotEqual(t, hash1, hash2, "每次哈希使用不同的盐")

	ok, err := h.Verify("Teste@123", hash1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", hash1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasherMalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	ok, err := h.Verify("Teste@123", "not-a-hash")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestNewBcryptHasherCostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestBcryptHasherLongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	long := "Teste@123" + strings.Repeat("a", 64) // 73字节
	// 前72字节相同，只有最后一位不同
	sibling := long[:72] + "b"

	hash, err := h.Hash(long)
	require.NoError(t, err)

	ok, err := h.Verify(long, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(sibling, hash)
	require.NoError(t, err)
	assert.False(t, ok, "超过72字节的部分也要参与校验")

	ok, err = h.Verify(long[:72], hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasherShortPasswordIsPlainBcrypt(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	exact := "Teste@123" + strings.Repeat("a", 63) // 正好72字节

	hash, err := h.Hash(exact)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(exact)))
}
