package user

import (
	"errors"
	"regexp"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/xiebiao/devcommunity/pkg/errors"
)

// MinPasswordLength 密码最短长度（按字符计）
const MinPasswordLength = 8

var (
	dateOfBirthPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// validator实例并发安全，且会缓存结构体元信息，全局复用一个
	validate = validator.New(validator.WithRequiredStructEnabled())

	fieldLabels = map[string]string{
		"Name":              "Name",
		"Email":             "Email",
		"Gender":            "Gender",
		"MainLanguage":      "Main language",
		"YearsOfExperience": "Years of experience",
	}
)

// ValidateCreateInput 按固定顺序校验创建输入，返回第一个失败的规则
// 顺序：出生日期 → 密码强度 → 其余必填字段。邮箱唯一性需要访问仓储，由Factory最后检查。
func ValidateCreateInput(in CreateUserInput) (time.Time, error) {
	dob, err := ParseDateOfBirth(in.DateOfBirth)
	if err != nil {
		return time.Time{}, err
	}
	if err := ValidatePasswordStrength(in.Password); err != nil {
		return time.Time{}, err
	}
	if err := validateRequiredFields(in); err != nil {
		return time.Time{}, err
	}
	return dob, nil
}

// ParseDateOfBirth 校验并解析YYYY-MM-DD格式的出生日期
// 除了格式，还要求是真实存在的日期（1988-13-40不合法），两种失败使用同一文案。
func ParseDateOfBirth(s string) (time.Time, error) {
	if !dateOfBirthPattern.MatchString(s) {
		return time.Time{}, ErrInvalidDateOfBirth
	}
	dob, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDateOfBirth
	}
	return dob, nil
}

// ValidatePasswordStrength 密码强度校验
// 规则依次为：长度≥8 → 大写字母 → 数字 → 特殊字符（非字母数字），遇到第一条不满足即返回。
func ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return ErrPasswordNoUppercase
	case !hasDigit:
		return ErrPasswordNoDigit
	case !hasSpecial:
		return ErrPasswordNoSpecial
	}
	return nil
}

func validateRequiredFields(in CreateUserInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.WrapCode(err, apperrors.ErrCodeInvalidParams, "invalid user input")
	}
	return apperrors.New(apperrors.ErrCodeInvalidParams, fieldMessage(verrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "oneof":
		return label + " must be one of " + fe.Param()
	case "gte":
		return label + " must be greater than or equal to " + fe.Param()
	case "max":
		return label + " must be at most " + fe.Param() + " characters long"
	default:
		return label + " is invalid"
	}
}
