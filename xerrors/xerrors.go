// Package xerrors 提供标准化错误处理工具。
package xerrors

import (
	"errors"
	"fmt"
)

// Wrap 用上下文信息包装错误，保留错误链。
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 用格式化的上下文信息包装错误。
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// WithTag 用分类标签包装错误。
// 标签是机器可读的离散值，供路由与告警逻辑做分支判断。
func WithTag(err error, tag string) error {
	if err == nil {
		return nil
	}
	return &TaggedError{Tag: tag, Cause: err}
}

// TaggedError 带有机器可读标签的错误。
type TaggedError struct {
	Tag   string
	Cause error
}

func (e *TaggedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %v", e.Tag, e.Cause)
	}
	return fmt.Sprintf("[%s]", e.Tag)
}

func (e *TaggedError) Unwrap() error {
	return e.Cause
}

// GetTag 从错误链中提取标签，不存在时返回空字符串。
func GetTag(err error) string {
	var tagged *TaggedError
	if errors.As(err, &tagged) {
		return tagged.Tag
	}
	return ""
}

// Must 如果 err 不为 nil，则 panic。仅用于初始化阶段。
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}

// 通用哨兵错误，供各组件的 validate() 使用
var ErrInvalidInput = errors.New("invalid input")

// 标准库函数再导出
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)
