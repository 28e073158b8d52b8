package provider

// 供应商调用指标
const (
	// MetricCallsTotal 供应商调用总数（含 outcome 标签）
	MetricCallsTotal = "provider_calls_total"

	// MetricCallDuration 供应商调用耗时（秒）
	MetricCallDuration = "provider_call_duration_seconds"

	// MetricMismatchTotal 配置错位快速失败次数
	MetricMismatchTotal = "provider_mismatch_total"
)

// 指标标签
const (
	LabelProvider  = "provider"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
)

// 操作名
const (
	OpGetClearingPageLink = "get_clearing_page_link"
	OpValidateTransaction = "validate_transaction"
	OpReportOrder         = "report_order"
	OpGetOrderStatus      = "get_order_status"
	OpGetVenueMenu        = "get_venue_menu"
)
