package server

import (
	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/metrics"
)

// options 可选参数结构体
type options struct {
	logger clog.Logger
	meter  metrics.Meter
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
			o.logger = logger.WithNamespace("server")
		}
	}
}

// WithMeter 设置指标收集器
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}
