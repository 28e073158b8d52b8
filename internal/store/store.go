// Package store 提供订单与集成配置的持久化访问。
//
// 对账管道只通过这里写库，且只写两个字段：订单状态与交易号。
// 状态写入用条件 UPDATE 实现乐观并发控制：携带期望的前置状态，
// 行没命中时回读判定是幂等重放还是非法迁移。
package store

import (
	"context"

	"github.com/datner/renu-sub001/internal/domain"
)

// OrderRepository 订单读写接口
type OrderRepository interface {
	// GetOrder 按 ID 加载订单，不存在返回 domain.ErrOrderNotFound
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// SetOrderState 将订单从 from 状态迁移到 to 状态
	//
	// 条件写：只有数据库当前状态等于 from 时才更新。
	// 订单已处于 to 状态视为幂等重放，返回 nil；
	// 处于其它状态返回 domain.ErrInvalidTransition。
	SetOrderState(ctx context.Context, id string, from, to domain.OrderState) error

	// SetTransactionID 写入清算交易号（只允许写一次）
	//
	// 重复写入相同交易号视为幂等重放，返回 nil；
	// 尝试覆盖为不同交易号返回 domain.ErrTransactionIDSet。
	SetTransactionID(ctx context.Context, id string, transactionID string) error
}

// IntegrationRepository 集成配置读取接口（本核心只读）
type IntegrationRepository interface {
	// GetClearingIntegration 按 ID 加载清算集成配置
	// 不存在返回 domain.ErrIntegrationNotFound
	GetClearingIntegration(ctx context.Context, id string) (*domain.ClearingIntegration, error)

	// GetManagementIntegrationByVenue 按门店加载管理端集成配置
	GetManagementIntegrationByVenue(ctx context.Context, venueID string) (*domain.ManagementIntegration, error)
}
