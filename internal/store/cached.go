package store

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/xerrors"
)

// CacheConfig 集成配置缓存配置
type CacheConfig struct {
	// Capacity 缓存容量（默认：10000）
	Capacity int `json:"capacity" yaml:"capacity" mapstructure:"capacity"`

	// TTL 条目有效期（默认：5m）
	// 集成配置极少变更，短 TTL 即可吸收 webhook 高峰的重复读。
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// setDefaults 设置默认值
func (c *CacheConfig) setDefaults() {
	if c.Capacity == 0 {
		c.Capacity = 10000
	}
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
}

// cachedIntegrations IntegrationRepository 的进程内缓存装饰器
// 只缓存命中结果，不缓存 not-found（新建集成立即可见）。
type cachedIntegrations struct {
	inner      IntegrationRepository
	clearing   *otter.Cache[string, *domain.ClearingIntegration]
	management *otter.Cache[string, *domain.ManagementIntegration]
}

// NewCachedIntegrations 创建缓存装饰器
func NewCachedIntegrations(inner IntegrationRepository, cfg *CacheConfig) (IntegrationRepository, error) {
	if inner == nil {
		return nil, xerrors.New("store: inner repository is nil")
	}
	if cfg == nil {
		cfg = &CacheConfig{}
	}
	cfg.setDefaults()

	clearing, err := otter.New(&otter.Options[string, *domain.ClearingIntegration]{
		MaximumSize:      cfg.Capacity,
		ExpiryCalculator: otter.ExpiryWriting[string, *domain.ClearingIntegration](cfg.TTL),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build clearing integration cache")
	}
	management, err := otter.New(&otter.Options[string, *domain.ManagementIntegration]{
		MaximumSize:      cfg.Capacity,
		ExpiryCalculator: otter.ExpiryWriting[string, *domain.ManagementIntegration](cfg.TTL),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build management integration cache")
	}

	return &cachedIntegrations{inner: inner, clearing: clearing, management: management}, nil
}

// GetClearingIntegration 优先读缓存
func (c *cachedIntegrations) GetClearingIntegration(ctx context.Context, id string) (*domain.ClearingIntegration, error) {
	if integration, ok := c.clearing.GetIfPresent(id); ok {
		return integration, nil
	}
	integration, err := c.inner.GetClearingIntegration(ctx, id)
	if err != nil {
		return nil, err
	}
	c.clearing.Set(id, integration)
	return integration, nil
}

// GetManagementIntegrationByVenue 优先读缓存
func (c *cachedIntegrations) GetManagementIntegrationByVenue(ctx context.Context, venueID string) (*domain.ManagementIntegration, error) {
	if integration, ok := c.management.GetIfPresent(venueID); ok {
		return integration, nil
	}
	integration, err := c.inner.GetManagementIntegrationByVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	c.management.Set(venueID, integration)
	return integration, nil
}
