// Package alert 提供运营告警通知能力。
//
// 对账管道遇到异常（回调报文非法、供应商校验失败、集成配置错位）时
// 需要通知运营人员介入。告警投递本身绝不能影响主流程：
//   - Notify 不返回错误，投递失败只记录日志
//   - NATS 发布端由 sony/gobreaker 保护，消息系统故障时快速失败
//
// ## 基本使用
//
//	notifier, _ := alert.NewNATS(&alert.Config{
//	    Subject: "renu.alerts",
//	}, natsConn, alert.WithLogger(logger))
//
//	notifier.Notify(ctx, alert.New(alert.SeverityError, "transaction validation failed",
//	    alert.WithOrder(orderID, venueID),
//	    alert.WithProvider("PAY_PLUS"),
//	    alert.WithPayload(rawBody),
//	))
package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Severity 告警级别
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Alert 告警事件
type Alert struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Severity  Severity        `json:"severity"`
	Message   string          `json:"message"`
	OrderID   string          `json:"order_id,omitempty"`
	VenueID   string          `json:"venue_id,omitempty"`
	Provider  string          `json:"provider,omitempty"`
	Cause     string          `json:"cause,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Field 告警事件构造选项
type Field func(*Alert)

// WithOrder 关联订单与门店
func WithOrder(orderID, venueID string) Field {
	return func(a *Alert) {
		a.OrderID = orderID
		a.VenueID = venueID
	}
}

// WithProvider 关联供应商
func WithProvider(provider string) Field {
	return func(a *Alert) {
		a.Provider = provider
	}
}

// WithCause 附加底层错误信息
func WithCause(err error) Field {
	return func(a *Alert) {
		if err != nil {
			a.Cause = err.Error()
		}
	}
}

// WithPayload 附加原始报文
// 报文非法时整体附上，便于运营排查
func WithPayload(payload []byte) Field {
	return func(a *Alert) {
		a.Payload = json.RawMessage(payload)
	}
}

// New 构造告警事件，自动填充 ID 和时间戳
func New(severity Severity, message string, fields ...Field) *Alert {
	a := &Alert{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Severity:  severity,
		Message:   message,
	}
	for _, f := range fields {
		f(a)
	}
	return a
}

// Notifier 告警通知接口
//
// Notify 不返回错误：告警是尽力而为的旁路操作，
// 任何投递失败只能记录日志，绝不能中断调用方的主流程。
type Notifier interface {
	Notify(ctx context.Context, a *Alert)
}

// Config 告警通知配置
type Config struct {
	// Subject NATS 主题（默认："renu.alerts"）
	Subject string `json:"subject" yaml:"subject" mapstructure:"subject"`

	// BreakerTimeout 发布端熔断打开持续时间（默认：30s）
	BreakerTimeout time.Duration `json:"breaker_timeout" yaml:"breaker_timeout" mapstructure:"breaker_timeout"`

	// BreakerMaxFailures 发布端连续失败阈值（默认：5）
	BreakerMaxFailures uint32 `json:"breaker_max_failures" yaml:"breaker_max_failures" mapstructure:"breaker_max_failures"`
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.Subject == "" {
		c.Subject = "renu.alerts"
	}
	if c.BreakerTimeout == 0 {
		c.BreakerTimeout = 30 * time.Second
	}
	if c.BreakerMaxFailures == 0 {
		c.BreakerMaxFailures = 5
	}
}
