// Package domain 定义订单网关的核心领域模型。
//
// 包含订单与订单状态机、供应商标签枚举、集成配置记录，
// 以及带标签的领域错误类型。所有类型均不做 I/O。
package domain

import (
	"time"
)

// OrderState 订单状态枚举
type OrderState string

const (
	// OrderStateUnconfirmed 初始状态，等待支付确认
	OrderStateUnconfirmed OrderState = "UNCONFIRMED"
	// OrderStateConfirmed 支付确认完成
	OrderStateConfirmed OrderState = "CONFIRMED"
	// OrderStateCancelled 订单取消
	OrderStateCancelled OrderState = "CANCELLED"
	// OrderStatePaidFor 已付款（管理端确认收款）
	OrderStatePaidFor OrderState = "PAID_FOR"
	// OrderStateDelivered 已交付
	OrderStateDelivered OrderState = "DELIVERED"
	// OrderStateDead 终止状态（管理员手动终止）
	OrderStateDead OrderState = "DEAD"
)

// Valid 判断状态是否属于已知枚举
func (s OrderState) Valid() bool {
	switch s {
	case OrderStateUnconfirmed, OrderStateConfirmed, OrderStateCancelled,
		OrderStatePaidFor, OrderStateDelivered, OrderStateDead:
		return true
	default:
		return false
	}
}

// CanTransition 判断状态迁移是否合法
//
// Webhook 驱动的迁移只能从 Unconfirmed 出发；Delivered 由独立的
// 管理端操作触达；Dead 可以从任何非终态进入。相同状态的重复写入
// 视为合法（幂等）。
func (s OrderState) CanTransition(to OrderState) bool {
	if s == to {
		return true
	}
	switch s {
	case OrderStateUnconfirmed:
		return to == OrderStateConfirmed || to == OrderStateCancelled ||
			to == OrderStatePaidFor || to == OrderStateDelivered || to == OrderStateDead
	case OrderStateConfirmed, OrderStatePaidFor:
		return to == OrderStateDelivered || to == OrderStateDead
	case OrderStateCancelled, OrderStateDelivered, OrderStateDead:
		return false
	default:
		return false
	}
}

// Terminal 判断状态是否为此管道的终态
func (s OrderState) Terminal() bool {
	switch s {
	case OrderStateCancelled, OrderStateDelivered, OrderStateDead:
		return true
	default:
		return false
	}
}

// OrderItem 订单明细项
type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"` // 最小货币单位（agorot）
	Comment  string `json:"comment,omitempty"`
}

// Order 订单记录
//
// 对账管道是 State 和 TransactionID 的唯一写入方；
// Items 对本核心只读。
type Order struct {
	ID            string      `gorm:"primaryKey;size:64" json:"id"`
	VenueID       string      `gorm:"index;size:64" json:"venue_id"`
	State         OrderState  `gorm:"size:32;index" json:"state"`
	TransactionID string      `gorm:"size:128" json:"transaction_id,omitempty"`
	Items         []OrderItem `gorm:"serializer:json" json:"items"`
	Total         int64       `json:"total"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
