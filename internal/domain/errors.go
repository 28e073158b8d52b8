package domain

import (
	"fmt"

	"github.com/datner/renu-sub001/xerrors"
)

// 哨兵错误
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = xerrors.New("domain: order not found")

	// ErrIntegrationNotFound 集成配置不存在
	ErrIntegrationNotFound = xerrors.New("domain: integration not found")

	// ErrInvalidTransition 非法状态迁移
	ErrInvalidTransition = xerrors.New("domain: invalid order state transition")

	// ErrTransactionIDSet 交易号已写入，不可覆盖
	ErrTransactionIDSet = xerrors.New("domain: transaction id already set")
)

// ClearingError 清算供应商调用错误（带标签变体）
//
// 供应商调用只会以此类错误失败，保证失败能携带供应商上下文
// 路由到熔断器和告警。
type ClearingError struct {
	Provider ClearingTag
	Message  string
	Cause    error
}

// Error 实现 error 接口
func (e *ClearingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("clearing[%s]: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("clearing[%s]: %s", e.Provider, e.Message)
}

// Unwrap 返回底层错误
func (e *ClearingError) Unwrap() error { return e.Cause }

// NewClearingError 构造清算错误
func NewClearingError(provider ClearingTag, message string, cause error) *ClearingError {
	return &ClearingError{Provider: provider, Message: message, Cause: cause}
}

// ManagementError 管理端供应商调用错误（带标签变体）
type ManagementError struct {
	Provider ManagementTag
	Message  string
	Cause    error
}

// Error 实现 error 接口
func (e *ManagementError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("management[%s]: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("management[%s]: %s", e.Provider, e.Message)
}

// Unwrap 返回底层错误
func (e *ManagementError) Unwrap() error { return e.Cause }

// NewManagementError 构造管理端错误
func NewManagementError(provider ManagementTag, message string, cause error) *ManagementError {
	return &ManagementError{Provider: provider, Message: message, Cause: cause}
}

// ClearingMismatchError 集成配置与调用点不匹配
//
// 这是部署/配置缺陷而非瞬时故障：快速失败，从不重试，始终告警。
type ClearingMismatchError struct {
	Needed ClearingTag
	Given  ClearingTag
}

// Error 实现 error 接口
func (e *ClearingMismatchError) Error() string {
	return fmt.Sprintf("clearing mismatch: call site requires %s, integration is configured for %s", e.Needed, e.Given)
}

// ValidationError 交易校验失败（清算供应商明确拒绝）
type ValidationError struct {
	Provider ClearingTag
	Message  string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation[%s]: %s", e.Provider, e.Message)
}
