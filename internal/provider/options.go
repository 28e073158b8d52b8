package provider

import (
	"time"

	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/metrics"
)

// options 可选参数结构体
type options struct {
	logger clog.Logger
	meter  metrics.Meter
	clock  func() time.Time
}

// applyDefaults 应用默认值
func (o *options) applyDefaults() {
	if o.logger == nil {
		o.logger = clog.Discard()
	}
}

// Option 选项函数类型
type Option func(*options)

// WithLogger 设置日志记录器
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("provider")
		}
	}
}

// WithMeter 设置指标收集器
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithClock 设置时钟函数，主要用于测试熔断冷却
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}
