package alert

import (
	"context"
	"encoding/json"

	"github.com/sony/gobreaker/v2"

	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/connector"
	"github.com/datner/renu-sub001/xerrors"
)

// natsNotifier 基于 NATS 的告警通知实现（非导出）
//
// 发布端由 gobreaker 保护：NATS 持续不可用时停止尝试发布，
// 告警降级为日志输出。
type natsNotifier struct {
	cfg     *Config
	conn    connector.NATSConnector
	logger  clog.Logger
	breaker *gobreaker.CircuitBreaker[any]
}

// NewNATS 创建 NATS 告警通知器
func NewNATS(cfg *Config, conn connector.NATSConnector, opts ...Option) (Notifier, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	if conn == nil {
		return nil, xerrors.New("alert: nats connector is nil")
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	opt.applyDefaults()

	logger := opt.logger.With(clog.String("component", "alert"))

	maxFailures := cfg.BreakerMaxFailures
	brk := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "alert-nats",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("alert publisher breaker state changed",
				clog.String("from", from.String()),
				clog.String("to", to.String()))
		},
	})

	return &natsNotifier{
		cfg:     cfg,
		conn:    conn,
		logger:  logger,
		breaker: brk,
	}, nil
}

// Notify 发布告警事件
// 序列化或发布失败只记录日志，不影响调用方。
func (n *natsNotifier) Notify(ctx context.Context, a *Alert) {
	if a == nil {
		return
	}

	data, err := json.Marshal(a)
	if err != nil {
		n.logger.Error("failed to marshal alert", clog.Error(err), clog.String("alert_id", a.ID))
		return
	}

	_, err = n.breaker.Execute(func() (any, error) {
		client := n.conn.GetClient()
		if client == nil {
			return nil, connector.ErrClientNil
		}
		return nil, client.Publish(n.cfg.Subject, data)
	})
	if err != nil {
		// 降级：投递失败时把告警内容落到日志
		n.logger.Error("failed to publish alert",
			clog.Error(err),
			clog.String("alert_id", a.ID),
			clog.String("severity", string(a.Severity)),
			clog.String("message", a.Message),
			clog.String("order_id", a.OrderID))
		return
	}

	n.logger.Info("alert published",
		clog.String("alert_id", a.ID),
		clog.String("severity", string(a.Severity)),
		clog.String("message", a.Message))
}
