package provider

import (
	"github.com/datner/renu-sub001/xerrors"
)

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("provider: config is nil")

	// ErrBindingMissing 注册表绑定不完整（存在未绑定的已知标签）
	ErrBindingMissing = xerrors.New("provider: registry binding missing")

	// ErrBindingTagMismatch 绑定实现自报的标签与注册键不一致
	ErrBindingTagMismatch = xerrors.New("provider: binding tag mismatch")

	// ErrIntegrationNil 集成配置为空
	ErrIntegrationNil = xerrors.New("provider: integration is nil")

	// ErrOrderNil 订单为空
	ErrOrderNil = xerrors.New("provider: order is nil")
)
