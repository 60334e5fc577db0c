package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrorCode 错误代码类型
type ErrorCode string

const (
	// CodeTransport 网络或 HTTP 传输失败
	CodeTransport ErrorCode = "TRANSPORT"
	// CodeHTTPStatus 远端返回了非成功状态码
	CodeHTTPStatus ErrorCode = "HTTP_STATUS"
	// CodeDecode 响应体无法解析
	CodeDecode ErrorCode = "DECODE"
	// CodeDataMissing 行情表中找不到对应实体
	CodeDataMissing ErrorCode = "DATA_MISSING"
	// CodeDataInvalid 必填数值字段无法转换
	CodeDataInvalid ErrorCode = "DATA_INVALID"
	// CodeConfig 配置错误，启动时致命
	CodeConfig ErrorCode = "CONFIG"
	// CodeUnavailable 数据源不可用（禁用或熔断）
	CodeUnavailable ErrorCode = "UNAVAILABLE"
	// CodeUnexpected 未归类的错误
	CodeUnexpected ErrorCode = "UNEXPECTED"
)

// Kind 是错误的粗粒度分类，用于周期报告与日志。
type Kind string

const (
	KindTransport  Kind = "transport"
	KindData       Kind = "data"
	KindConfig     Kind = "config"
	KindUnexpected Kind = "unexpected"
)

// BaseError 基础错误类型
type BaseError struct {
	Code      ErrorCode              `json:"code"`              // 错误的分类代码
	Message   string                 `json:"message"`           // 人类可读的错误信息
	Cause     error                  `json:"-"`                 // 导致此错误的原始错误
	Context   map[string]interface{} `json:"context,omitempty"` // 额外的上下文信息
	Timestamp time.Time              `json:"timestamp"`
}

// New 创建新的基础错误
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]interface{}),
	}
}

// Newf 使用格式化信息创建错误
func Newf(code ErrorCode, format string, args ...interface{}) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装现有错误
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	e := New(code, message)
	e.Cause = cause
	return e
}

// Error 实现 error 接口
func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 支持错误包装
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码比较
func (e *BaseError) Is(target error) bool {
	if t, ok := target.(*BaseError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext 为错误附加一个键值对形式的上下文信息。
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// CodeOf 返回错误链上第一个 BaseError 的代码，没有则为 CodeUnexpected。
func CodeOf(err error) ErrorCode {
	var be *BaseError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeUnexpected
}

// KindOf 将任意错误归类。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var be *BaseError
	if errors.As(err, &be) {
		switch be.Code {
		case CodeTransport, CodeHTTPStatus, CodeDecode, CodeUnavailable:
			return KindTransport
		case CodeDataMissing, CodeDataInvalid:
			return KindData
		case CodeConfig:
			return KindConfig
		}
		if be.Cause != nil {
			return KindOf(be.Cause)
		}
		return KindUnexpected
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "network is unreachable"),
		strings.Contains(msg, "eof"):
		return KindTransport
	}

	return KindUnexpected
}

// IsData 判断是否为单个实体的数据错误（应跳过实体而非失败整个阶段）。
func IsData(err error) bool {
	return KindOf(err) == KindData
}
