package common

import (
	"errors"
	"fmt"
)

// AppError 应用级错误结构
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewError 创建新错误
func NewError(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// HasCode 判断错误链上是否有指定错误码
func HasCode(err error, code string) bool {
	var appErr *AppError
	for errors.As(err, &appErr) {
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// 错误码常量
const (
	// ErrCodeMalformedRecord 单条记录无法标准化，丢弃该条，批次继续
	ErrCodeMalformedRecord = "MALFORMED_RECORD"
	// ErrCodeBackendFailure 模型后端失败，触发该项目的规则兜底
	ErrCodeBackendFailure = "BACKEND_FAILURE"
	// ErrCodePersistence 存储层失败，对整次运行是致命的
	ErrCodePersistence = "PERSISTENCE_ERROR"
	// ErrCodeConfiguration 配置无效，启动即失败
	ErrCodeConfiguration = "CONFIG_ERROR"
	ErrCodeSource        = "SOURCE_ERROR"
	ErrCodeNotification  = "NOTIFICATION_ERROR"
)
