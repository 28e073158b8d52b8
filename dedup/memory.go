package dedup

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/datner/renu-sub001/xerrors"
)

// memoryStore 内存去重存储实现（非导出）
type memoryStore struct {
	cache      *otter.Cache[string, struct{}]
	defaultTTL time.Duration
}

// NewMemory 创建内存去重存储
// 适合单实例部署或测试场景。
func NewMemory(cfg *Config) (Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	// 写入过期策略：过期时间从写入开始计算，读取不重置 TTL
	opts := &otter.Options[string, struct{}]{
		MaximumSize:      cfg.Capacity,
		ExpiryCalculator: otter.ExpiryWriting[string, struct{}](cfg.DefaultTTL),
	}

	cache, err := otter.New(opts)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build otter cache")
	}

	return &memoryStore{
		cache:      cache,
		defaultTTL: cfg.DefaultTTL,
	}, nil
}

// Seen 判断键是否已登记
func (ms *memoryStore) Seen(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrKeyEmpty
	}
	_, ok := ms.cache.GetIfPresent(key)
	return ok, nil
}

// Mark 登记键
func (ms *memoryStore) Mark(ctx context.Context, key string, ttl time.Duration) error {
	if key == "" {
		return ErrKeyEmpty
	}
	ms.cache.Set(key, struct{}{})
	if ttl > 0 && ttl != ms.defaultTTL {
		ms.cache.SetExpiresAfter(key, ttl)
	}
	return nil
}
