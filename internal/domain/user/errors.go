package user

import (
	apperrors "github.com/xiebiao/devcommunity/pkg/errors"
)

// 用户领域错误定义
// 文案是对外契约的一部分，调用方和已有客户端按原文匹配，不要改动
// （包括ErrUserAlreadyExists中的拼写）。
var (
	// ErrInvalidDateOfBirth 出生日期格式不正确
	ErrInvalidDateOfBirth = apperrors.New(apperrors.ErrCodeInvalidDateOfBirth, "Date of birth must be in the format YYYY-MM-DD")

	// ErrPasswordTooShort 密码长度不足
	ErrPasswordTooShort = apperrors.New(apperrors.ErrCodePasswordTooShort, "Password must be at least 8 characters long")

	// ErrPasswordNoUppercase 密码缺少大写字母
	ErrPasswordNoUppercase = apperrors.New(apperrors.ErrCodePasswordNoUppercase, "Password must contain at least one uppercase letter")

	// ErrPasswordNoDigit 密码缺少数字
	ErrPasswordNoDigit = apperrors.New(apperrors.ErrCodePasswordNoDigit, "Password must contain at least one number")

	// ErrPasswordNoSpecial 密码缺少特殊字符
	ErrPasswordNoSpecial = apperrors.New(apperrors.ErrCodePasswordNoSpecial, "Password must contain at least one special character")

	// ErrUserAlreadyExists 邮箱已被注册
	ErrUserAlreadyExists = apperrors.New(apperrors.ErrCodeEmailDuplicate, "This user aready exists")

	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.New(apperrors.ErrCodeUserNotFound, "User does not exist")
)
