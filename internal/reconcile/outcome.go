package reconcile

// Outcome 回调处理结论，驱动 HTTP 层的应答
type Outcome int

const (
	// OutcomeProcessed 处理完成，订单状态已对账
	OutcomeProcessed Outcome = iota

	// OutcomeReplay 重复回调，此前已处理过
	OutcomeReplay

	// OutcomePaymentFailed 供应商上报支付失败，已告警，订单不做变更
	OutcomePaymentFailed

	// OutcomeMalformed 报文非法，已告警
	OutcomeMalformed

	// OutcomeError 处理失败，应答非 2xx 让供应商稍后重试
	OutcomeError
)

// String 返回结论的字符串表示
func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeReplay:
		return "replay"
	case OutcomePaymentFailed:
		return "payment_failed"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Ack 判断是否对供应商确认回调（HTTP 2xx）
//
// 确认意味着供应商不再重试：只有处理完成、重复回调和
// 支付失败（重试同样报文不会有不同结果）三种情况可以确认。
func (o Outcome) Ack() bool {
	switch o {
	case OutcomeProcessed, OutcomeReplay, OutcomePaymentFailed:
		return true
	default:
		return false
	}
}
