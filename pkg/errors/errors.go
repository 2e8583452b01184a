package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// Code用于区分错误类型，Message是可直接展示给调用方的文案，
// Err是内部错误，只进日志，不对外暴露。
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Kind 根据错误码区间返回错误分类
func (e *AppError) Kind() Kind {
	return kindOf(e.Code)
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装基础设施错误（数据库、缓存、消息队列），默认归为内部错误
func Wrap(err error, message string) *AppError {
	return WrapCode(err, ErrCodeInternal, message)
}

// WrapCode 以指定错误码包装底层错误
func WrapCode(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// - 400xx: 业务规则冲突
// - 404xx: 资源不存在
// - 409xx: 参数校验失败
// - 5xxxx: 服务端错误

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000
	ErrCodeDatabaseError = 50001
	ErrCodeRedisError    = 50002
	ErrCodeMQError       = 50003

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError  = 40000
	ErrCodeEmailDuplicate = 40003

	// 资源错误（40400-40499）
	ErrCodeNotFound     = 40400
	ErrCodeUserNotFound = 40401

	// 参数错误（40900-40999）
	ErrCodeInvalidParams       = 40900
	ErrCodeInvalidDateOfBirth  = 40910
	ErrCodePasswordTooShort    = 40911
	ErrCodePasswordNoUppercase = 40912
	ErrCodePasswordNoDigit     = 40913
	ErrCodePasswordNoSpecial   = 40914
)

var (
	ErrInternal      = New(ErrCodeInternal, "internal error")
	ErrDatabaseError = New(ErrCodeDatabaseError, "database error")
	ErrRedisError    = New(ErrCodeRedisError, "cache error")
	ErrInvalidParams = New(ErrCodeInvalidParams, "invalid parameters")
)

// =========================================
// 错误分类
// =========================================

// Kind 错误分类，调用方（CLI、上层服务）按分类决定如何呈现
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

func kindOf(code int) Kind {
	switch {
	case code >= 40900 && code < 41000:
		return KindValidation
	case code >= 40400 && code < 40500:
		return KindNotFound
	case code >= 40000 && code < 40100:
		return KindConflict
	default:
		return KindInternal
	}
}

// KindOf 提取错误分类，非AppError一律视为内部错误
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindInternal
}

// IsValidation 是否为参数校验错误
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

// IsConflict 是否为业务冲突错误
func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }

// IsNotFound 是否为资源不存在错误
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "internal error")
}

// Message 返回面向调用方的错误文案（不含错误码和内部错误）
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
