package domain

// Transaction 清算供应商确认的交易
type Transaction struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // 最小货币单位（agorot）
	Currency string `json:"currency"`
}

// MenuItem 菜单项
type MenuItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category,omitempty"`
}

// Menu 门店菜单，由管理端供应商提供
type Menu struct {
	VenueID string     `json:"venue_id"`
	Items   []MenuItem `json:"items"`
}

// ProviderOrderStatus 管理端供应商上报的订单状态码
type ProviderOrderStatus string

const (
	ProviderStatusFailed      ProviderOrderStatus = "FAILED"
	ProviderStatusUnreachable ProviderOrderStatus = "UNREACHABLE"
	ProviderStatusAwaiting    ProviderOrderStatus = "AWAITING_TO_BE_RECEIVED"
)

// MapProviderStatus 将供应商状态码映射为订单状态（全函数）
//
// 未知状态码落入安全默认分支 Confirmed 而不是报错：
// 对未知码优先保证可用性。返回值 known 供调用方记录未映射的码。
func MapProviderStatus(status ProviderOrderStatus) (state OrderState, known bool) {
	switch status {
	case ProviderStatusFailed, ProviderStatusUnreachable:
		return OrderStateCancelled, true
	case ProviderStatusAwaiting:
		return OrderStateUnconfirmed, true
	default:
		return OrderStateConfirmed, false
	}
}
