package breaker

import (
	"fmt"
	"time"

	"github.com/datner/renu-sub001/xerrors"
)

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("breaker: config is nil")

	// ErrConfigInvalid 配置非法
	ErrConfigInvalid = xerrors.New("breaker: invalid config")

	// ErrOpenState 熔断器处于打开状态
	ErrOpenState = xerrors.New("breaker: circuit breaker is open")

	// ErrResultType Do 收到的结果类型与声明不符
	ErrResultType = xerrors.New("breaker: unexpected result type")
)

// OpenError 熔断拒绝错误
// 携带熔断器名称与冷却截止时间，errors.Is(err, ErrOpenState) 为 true。
type OpenError struct {
	BreakerName string
	Until       time.Time
}

// Error 实现 error 接口
func (e *OpenError) Error() string {
	return fmt.Sprintf("breaker[%s]: circuit breaker is open until %s", e.BreakerName, e.Until.Format(time.RFC3339))
}

// Is 支持 errors.Is(err, ErrOpenState) 匹配
func (e *OpenError) Is(target error) bool {
	return target == ErrOpenState
}

// IsOpen 判断错误是否为熔断拒绝
func IsOpen(err error) bool {
	return xerrors.Is(err, ErrOpenState)
}

// nonRetryableError 标记错误为不可重试（内部类型）
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable 将错误标记为不可重试
// 熔断器遇到此类错误会立即打开并停止重试。nil 原样返回。
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

// IsRetryable 判断错误是否可重试
// 未经 NonRetryable 标记的错误默认可重试。
func IsRetryable(err error) bool {
	if err == nil {
		return true
	}
	var nre *nonRetryableError
	return !xerrors.As(err, &nre)
}
