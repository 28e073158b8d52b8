package reconcile

// 对账管道指标
const (
	// MetricCallbacksTotal 回调处理总数（含 outcome 标签）
	MetricCallbacksTotal = "reconcile_callbacks_total"

	// MetricReplaysTotal 重复回调次数
	MetricReplaysTotal = "reconcile_replays_total"

	// MetricHandoffFailuresTotal 管理端交接失败次数
	MetricHandoffFailuresTotal = "reconcile_handoff_failures_total"

	// MetricDuration 单次回调处理耗时（秒）
	MetricDuration = "reconcile_duration_seconds"
)

// 指标标签
const (
	LabelOutcome  = "outcome"
	LabelProvider = "provider"
)
