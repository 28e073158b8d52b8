package alert

import (
	"context"

	"github.com/datner/renu-sub001/clog"
)

// logNotifier 纯日志告警实现，用于本地开发或 NATS 不可用的部署
type logNotifier struct {
	logger clog.Logger
}

// NewLog 创建日志告警通知器
func NewLog(logger clog.Logger) Notifier {
	if logger == nil {
		logger = clog.Discard()
	}
	return &logNotifier{logger: logger.WithNamespace("alert")}
}

// Notify 以日志形式输出告警
func (n *logNotifier) Notify(ctx context.Context, a *Alert) {
	if a == nil {
		return
	}
	n.logger.Warn("alert",
		clog.String("alert_id", a.ID),
		clog.String("severity", string(a.Severity)),
		clog.String("message", a.Message),
		clog.String("order_id", a.OrderID),
		clog.String("venue_id", a.VenueID),
		clog.String("provider", a.Provider),
		clog.String("cause", a.Cause))
}

// discardNotifier 空实现
type discardNotifier struct{}

func (discardNotifier) Notify(ctx context.Context, a *Alert) {}

// Discard 返回丢弃所有告警的 Notifier，用于测试
func Discard() Notifier {
	return discardNotifier{}
}
