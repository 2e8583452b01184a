package user

import (
	"time"
)

// DateLayout 出生日期的唯一合法格式（YYYY-MM-DD）
const DateLayout = "2006-01-02"

// Gender 性别枚举
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Valid 是否为已知枚举值
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// User 用户实体（聚合根）
// PasswordHash只保存Hasher产出的哈希值，明文密码不会出现在实体上。
// ID在创建时生成，之后不再变更。
type User struct {
	ID                string
	Name              string
	DateOfBirth       time.Time
	Email             string
	Gender            Gender
	MainLanguage      string
	YearsOfExperience int
	PasswordHash      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DateOfBirthString 以YYYY-MM-DD格式返回出生日期
func (u *User) DateOfBirthString() string {
	return u.DateOfBirth.Format(DateLayout)
}

// CreateUserInput 创建用户的输入（DTO）
// 按值传递，工厂不会修改调用方持有的数据。
type CreateUserInput struct {
	Name              string `validate:"required,max=100"`
	DateOfBirth       string
	Email             string `validate:"required,max=255"`
	Gender            Gender `validate:"required,oneof=MALE FEMALE OTHER"`
	MainLanguage      string `validate:"required,max=50"`
	YearsOfExperience int    `validate:"gte=0"`
	Password          string
}

// newUser 由已校验的输入构造实体
func newUser(id string, in CreateUserInput, dob time.Time, passwordHash string, now time.Time) *User {
	return &User{
		ID:                id,
		Name:              in.Name,
		DateOfBirth:       dob,
		Email:             in.Email,
		Gender:            in.Gender,
		MainLanguage:      in.MainLanguage,
		YearsOfExperience: in.YearsOfExperience,
		PasswordHash:      passwordHash,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
