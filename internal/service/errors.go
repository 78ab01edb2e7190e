package service

import (
	"errors"
)

// ValidationError 输入校验失败，Field 指出第一个不合法的字段
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// TransitionError 生命周期流转被拒绝
type TransitionError struct {
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

var (
	// ErrPasswordMismatch 报表密码错误
	ErrPasswordMismatch = errors.New("密码错误")
	// ErrOldPasswordMismatch 改密时原密码错误
	ErrOldPasswordMismatch = errors.New("原密码错误")
)
