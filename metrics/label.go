package metrics

// Label 指标标签结构体
// 用于为指标添加维度信息，实现指标的细粒度分组和筛选
//
// 标签命名规范：
//   - 使用小写字母和下划线：status_class 而不是 statusClass
//   - 控制标签数量：每个指标的标签数量不宜过多（建议 < 10个）
//   - 标签值相对稳定：避免高基数标签，如订单ID、请求ID等
type Label struct {
	// Key 标签键，表示指标的维度名称
	// 必须符合 Prometheus 标签命名规范
	Key string

	// Value 标签值，表示该维度的具体值
	// 注意：高基数（大量唯一值）的标签会影响性能
	Value string
}

// L 便捷构造函数，创建一个 Label 实例
//
// 使用示例：
//
//	counter.Inc(ctx, metrics.L("provider", "PAY_PLUS"))
func L(key, value string) Label {
	return Label{
		Key:   key,
		Value: value,
	}
}
