package user

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/devcommunity/pkg/errors"
)

// Hasher 密码哈希接口（Credential Hasher）
type Hasher interface {
	// Hash 计算明文的单向哈希
	Hash(plain string) (string, error)

	// Verify 校验明文与哈希是否匹配，不匹配返回false而不是错误
	Verify(plain, hash string) (bool, error)
}

// bcryptMaxInput bcrypt能处理的最大输入字节数，超出时GenerateFromPassword直接报错
const bcryptMaxInput = 72

// BcryptHasher 基于bcrypt的Hasher实现
// bcrypt自带随机盐，相同明文每次得到的哈希不同。
// 超过72字节的密码先做SHA-256再base64（44字节）后交给bcrypt，
// 72字节以内的密码原样输入，和普通bcrypt哈希兼容。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher 创建bcrypt哈希器，cost越界时使用bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash 计算bcrypt哈希
func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(bcryptInput(plain), h.cost)
	if err != nil {
		return "", apperrors.Wrap(err, "hash password failed")
	}
	return string(b), nil
}

// Verify 校验密码
func (h *BcryptHasher) Verify(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, apperrors.Wrap(err, "verify password failed")
}

// bcryptInput 长密码预哈希，保证超过72字节的每一位都参与校验
func bcryptInput(plain string) []byte {
	if len(plain) <= bcryptMaxInput {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
