// Package dedup 提供 Webhook 回调的重放识别能力。
//
// 支付供应商在网络抖动或超时重发时会重复投递同一笔交易回调。
// 对账管道在处理前通过 Seen() 判断交易是否已成功处理过，
// 处理成功后通过 Mark() 登记，重放请求直接确认而不再触发状态变更。
//
// 两种实现：
//   - Redis：多实例部署共享去重状态（SET NX）
//   - Memory：单机部署或测试场景，基于 otter 缓存
//
// 注意：Mark 只应在整条管道成功后调用。处理失败的回调不登记，
// 供应商的下一次重发因此可以重新触发处理。
package dedup

import (
	"context"
	"time"
)

// ========================================
// 存储接口 (Store Interface)
// ========================================

// Store 去重存储接口
type Store interface {
	// Seen 判断键是否已登记
	Seen(ctx context.Context, key string) (bool, error)

	// Mark 登记键，ttl 之后自动过期
	// 重复登记是幂等操作
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

// ========================================
// 配置定义 (Configuration)
// ========================================

// Config 去重存储配置
type Config struct {
	// Prefix Redis Key 前缀（默认："renu:dedup:"）
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// DefaultTTL 登记项默认保留时间（默认：24h）
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`

	// Capacity 内存实现的最大条目数（默认：100000）
	Capacity int `json:"capacity" yaml:"capacity" mapstructure:"capacity"`
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.Prefix == "" {
		c.Prefix = "renu:dedup:"
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = 24 * time.Hour
	}
	if c.Capacity <= 0 {
		c.Capacity = 100000
	}
}
