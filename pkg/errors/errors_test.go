package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"参数错误", New(ErrCodePasswordTooShort, "short"), KindValidation},
		{"业务冲突", New(ErrCodeEmailDuplicate, "dup"), KindConflict},
		{"资源不存在", New(ErrCodeUserNotFound, "missing"), KindNotFound},
		{"数据库错误", WrapCode(errors.New("boom"), ErrCodeDatabaseError, "db"), KindInternal},
		{"普通error", errors.New("plain"), KindInternal},
		{"被fmt包装", fmt.Errorf("ctx: %w", New(ErrCodeUserNotFound, "missing")), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsValidation(New(ErrCodeInvalidDateOfBirth, "x")))
	assert.True(t, IsConflict(New(ErrCodeEmailDuplicate, "x")))
	assert.True(t, IsNotFound(New(ErrCodeUserNotFound, "x")))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsValidation(errors.New("x")))
}

func TestMessage(t *testing.T) {
	err := WrapCode(errors.New("driver: connection refused"), ErrCodeDatabaseError, "query user failed")

	assert.Equal(t, "query user failed", Message(err))
	assert.Equal(t, "[50001] query user failed: driver: connection refused", err.Error())
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Empty(t, Message(nil))
}

func TestUnwrap(t *testing.T) {
	root := errors.New("root cause")
	err := Wrap(root, "wrapped")

	assert.ErrorIs(t, err, root)
	assert.Equal(t, ErrCodeInternal, GetAppError(root).Code)
	assert.Same(t, err, GetAppError(err))
}
