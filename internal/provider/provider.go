// Package provider 定义外部供应商的能力接口、闭合注册表与统一分发器。
//
// 供应商分为两类能力：
//   - Clearing：支付清算（生成支付页链接、校验交易）
//   - Management：门店管理/POS（上报订单、查询订单状态、拉取菜单）
//
// 注册表在构造时做完整性检查：每个已知标签都必须有绑定实现，
// 缺失即构造失败，保证运行时分发永远不会落空。
//
// 分发器是所有供应商调用的唯一入口，它提供：
//   - 配置错位防护：调用点要求的供应商与集成配置不一致时快速失败，
//     不发起任何网络调用
//   - 每个供应商独立熔断器，失败隔离互不影响
//   - 统一的调用指标与结构化日志
package provider

import (
	"context"

	"github.com/datner/renu-sub001/internal/domain"
)

// ========================================
// 接口定义 (Interface Definitions)
// ========================================

// Clearing 支付清算供应商能力接口
type Clearing interface {
	// Tag 返回供应商标签
	Tag() domain.ClearingTag

	// GetClearingPageLink 为订单生成托管支付页链接
	GetClearingPageLink(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (string, error)

	// ValidateTransaction 向供应商回查并校验订单对应的交易
	// 校验通过返回交易记录；供应商明确拒绝时返回 *domain.ValidationError
	ValidateTransaction(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (*domain.Transaction, error)
}

// Management 门店管理（POS）供应商能力接口
type Management interface {
	// Tag 返回供应商标签
	Tag() domain.ManagementTag

	// ReportOrder 将已确认的订单推送到门店管理系统
	ReportOrder(ctx context.Context, order *domain.Order, integration *domain.ManagementIntegration) error

	// GetOrderStatus 查询订单在管理系统侧的状态
	GetOrderStatus(ctx context.Context, order *domain.Order, integration *domain.ManagementIntegration) (domain.ProviderOrderStatus, error)

	// GetVenueMenu 拉取门店菜单
	GetVenueMenu(ctx context.Context, venueID string, integration *domain.ManagementIntegration) (*domain.Menu, error)
}
