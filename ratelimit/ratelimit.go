// Package ratelimit 提供了单机限流组件。
//
// ratelimit 是网关治理层组件，它提供了：
// - 统一的 Limiter 接口
// - 基于 golang.org/x/time/rate 的内存令牌桶限流
// - 按 key 独立限流（IP、集成ID 等），空闲自动清理
// - 开箱即用的 Gin 中间件
//
// ## 基本使用
//
//	limiter, _ := ratelimit.NewStandalone(&ratelimit.StandaloneConfig{
//	    CleanupInterval: 1 * time.Minute,
//	    IdleTimeout:     5 * time.Minute,
//	}, ratelimit.WithLogger(logger))
//
//	allowed, _ := limiter.Allow(ctx, "ip:1.2.3.4", ratelimit.Limit{Rate: 10, Burst: 20})
//	if !allowed {
//	    return "rate limit exceeded"
//	}
//
// ## Gin 中间件
//
//	r := gin.New()
//	r.Use(ratelimit.GinMiddleware(limiter, nil, func(c *gin.Context) ratelimit.Limit {
//	    return ratelimit.Limit{Rate: 100, Burst: 200}
//	}))
package ratelimit

import (
	"context"
	"time"

	"github.com/datner/renu-sub001/clog"
)

// ========================================
// 接口定义 (Interface Definitions)
// ========================================

// Limit 定义限流规则（令牌桶算法）
type Limit struct {
	Rate  float64 // 令牌生成速率（每秒生成多少个令牌）
	Burst int     // 令牌桶容量（突发最大请求数）
}

// Limiter 限流器核心接口
type Limiter interface {
	// Allow 尝试获取 1 个令牌（非阻塞）
	// key: 限流标识（如 IP, IntegrationID）
	// limit: 限流规则
	// 返回: allowed（是否允许）, error（系统错误）
	Allow(ctx context.Context, key string, limit Limit) (bool, error)

	// AllowN 尝试获取 N 个令牌（非阻塞）
	AllowN(ctx context.Context, key string, limit Limit, n int) (bool, error)
}

// ========================================
// 配置定义 (Configuration)
// ========================================

// StandaloneConfig 单机限流配置
type StandaloneConfig struct {
	// CleanupInterval 清理过期限流器的间隔（默认：1 分钟）
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" mapstructure:"cleanup_interval"`

	// IdleTimeout 限流器空闲超时时间（默认：5 分钟）
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// setDefaults 设置默认值
func (c *StandaloneConfig) setDefaults() {
	if c.CleanupInterval == 0 {
		c.CleanupInterval = time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 5 * time.Minute
	}
}

// ========================================
// 工厂函数 (Factory Functions)
// ========================================

// NewStandalone 创建单机限流器
//
// 参数:
//   - cfg: 单机限流配置
//   - opts: 可选参数 (Logger, Meter)
func NewStandalone(cfg *StandaloneConfig, opts ...Option) (Limiter, error) {
	if cfg == nil {
		cfg = &StandaloneConfig{}
	}

	// 应用选项
	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	// 派生 Logger（添加 component 字段）
	logger := opt.logger
	if logger != nil {
		logger = logger.With(clog.String("component", "ratelimit"))
	}

	if logger != nil {
		logger.Info("creating standalone rate limiter")
	}

	return newStandalone(cfg, logger, opt.meter)
}
