// Package breaker 提供了熔断器组件，专注于外部供应商调用的故障隔离与自动恢复。
//
// breaker 是网关治理层的核心组件，它提供了：
// - 连续失败计数熔断：连续 N 次可重试失败后打开熔断器
// - 不可重试错误立即熔断（例如供应商返回明确的业务拒绝）
// - 冷却窗口结束后单次探测：探测失败立即重新打开
// - 指数退避重试（基于 cenkalti/backoff），熔断打开时立即停止重试
// - 每个供应商独立一个熔断器实例，互不影响
//
// ## 基本使用
//
//	brk, _ := breaker.New(&breaker.Config{
//		Name:        "dorix",
//		MaxFailures: 3,
//		Cooldown:    10 * time.Second,
//	}, breaker.WithLogger(logger))
//
//	result, err := breaker.Do(ctx, brk, func(ctx context.Context) (*Order, error) {
//		return client.ReportOrder(ctx, order)
//	})
//	if breaker.IsOpen(err) {
//		// 熔断中，快速失败
//	}
//
// ## 错误分类
//
// 默认所有错误都视为可重试。对于明确不应重试的错误（4xx 业务拒绝等），
// 调用方用 breaker.NonRetryable 包装，熔断器会立即打开并停止重试：
//
//	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
//		return nil, breaker.NonRetryable(fmt.Errorf("provider rejected: %d", resp.StatusCode))
//	}
package breaker

import (
	"context"
	"time"
)

// ========================================
// 接口定义 (Interface Definitions)
// ========================================

// Breaker 熔断器核心接口
type Breaker interface {
	// Execute 执行受熔断保护的函数，内部带指数退避重试
	// fn: 要执行的函数，每次重试都会重新调用
	// 返回: 函数执行结果和错误；熔断打开时返回 *OpenError
	Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error)

	// State 返回当前熔断器状态快照
	State() State

	// Name 返回熔断器名称
	Name() string
}

// Status 熔断器状态枚举
type Status int

const (
	// StatusClosed 闭合状态（正常放行）
	StatusClosed Status = iota
	// StatusOpen 打开状态（熔断中，快速失败）
	StatusOpen
)

// String 返回状态的字符串表示
func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusOpen:
		return "open"
	default:
		return "unknown"
	}
}

// State 熔断器状态快照
//
// 闭合时 Failures 表示当前连续可重试失败次数；
// 打开时 OpenedUntil 表示冷却窗口的截止时间。
type State struct {
	Status      Status    `json:"status"`
	Failures    int       `json:"failures"`
	OpenedUntil time.Time `json:"opened_until,omitzero"`
}

// ========================================
// 配置定义 (Configuration)
// ========================================

// Config 熔断器配置
type Config struct {
	// Name 熔断器名称，用于日志和指标标识（通常是供应商名）
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// MaxFailures 连续可重试失败阈值（默认：3）
	// 闭合状态下连续失败达到此值后熔断器打开
	MaxFailures int `json:"max_failures" yaml:"max_failures" mapstructure:"max_failures"`

	// Cooldown 打开状态持续时间（默认：10s）
	// 冷却结束后的首个请求作为探测放行，探测失败立即重新打开
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown" mapstructure:"cooldown"`

	// Retry 重试策略配置
	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// RetryConfig 指数退避重试配置
type RetryConfig struct {
	// InitialInterval 首次重试等待时间（默认：10ms）
	InitialInterval time.Duration `json:"initial_interval" yaml:"initial_interval" mapstructure:"initial_interval"`

	// Multiplier 退避倍数（默认：2.0）
	Multiplier float64 `json:"multiplier" yaml:"multiplier" mapstructure:"multiplier"`

	// MaxInterval 单次等待上限（默认：1s）
	MaxInterval time.Duration `json:"max_interval" yaml:"max_interval" mapstructure:"max_interval"`

	// MaxElapsedTime 整体重试时间上限（默认：30s）
	MaxElapsedTime time.Duration `json:"max_elapsed_time" yaml:"max_elapsed_time" mapstructure:"max_elapsed_time"`
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 3
	}
	if c.Cooldown == 0 {
		c.Cooldown = 10 * time.Second
	}
	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = 10 * time.Millisecond
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = 2.0
	}
	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = time.Second
	}
	if c.Retry.MaxElapsedTime == 0 {
		c.Retry.MaxElapsedTime = 30 * time.Second
	}
}

// validate 验证配置
func (c *Config) validate() error {
	c.setDefaults()
	if c.MaxFailures < 0 {
		return ErrConfigInvalid
	}
	if c.Cooldown < 0 {
		return ErrConfigInvalid
	}
	return nil
}

// ========================================
// 工厂函数 (Factory Functions)
// ========================================

// New 创建熔断器实例
//
// 参数:
//   - cfg: 熔断器配置
//   - opts: 可选参数 (Logger, Meter, Clock)
func New(cfg *Config, opts ...Option) (Breaker, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// 应用选项
	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	opt.applyDefaults()

	return newBreaker(cfg, &opt), nil
}

// Do 执行受熔断保护的函数，保留返回值类型
//
// Breaker.Execute 的泛型包装，避免调用方做 any 断言。
func Do[T any](ctx context.Context, b Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	result, err := b.Execute(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, ok := result.(T)
	if !ok {
		var zero T
		return zero, ErrResultType
	}
	return v, nil
}
