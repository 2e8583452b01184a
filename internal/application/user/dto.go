package user

import (
	"time"

	"github.com/xiebiao/devcommunity/internal/domain/user"
)

// UserInfo 对外输出的用户信息
// 不包含密码哈希。
type UserInfo struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	DateOfBirth       string    `json:"date_of_birth"`
	Email             string    `json:"email"`
	Gender            string    `json:"gender"`
	MainLanguage      string    `json:"main_language"`
	YearsOfExperience int       `json:"years_of_experience"`
	CreatedAt         time.Time `json:"created_at"`
}

func toUserInfo(u *user.User) UserInfo {
	return UserInfo{
		ID:                u.ID,
		Name:              u.Name,
		DateOfBirth:       u.DateOfBirthString(),
		Email:             u.Email,
		Gender:            string(u.Gender),
		MainLanguage:      u.MainLanguage,
		YearsOfExperience: u.YearsOfExperience,
		CreatedAt:         u.CreatedAt,
	}
}
