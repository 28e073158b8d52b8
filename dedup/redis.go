package dedup

import (
	"context"
	"time"

	"github.com/datner/renu-sub001/connector"
	"github.com/datner/renu-sub001/xerrors"
)

// redisStore Redis 去重存储实现（非导出）
type redisStore struct {
	conn   connector.RedisConnector
	prefix string
}

// NewRedis 创建 Redis 去重存储
func NewRedis(cfg *Config, redisConn connector.RedisConnector) (Store, error) {
	if redisConn == nil {
		return nil, ErrConnectorNil
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	return &redisStore{
		conn:   redisConn,
		prefix: cfg.Prefix,
	}, nil
}

// Seen 判断键是否已登记
func (rs *redisStore) Seen(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrKeyEmpty
	}

	n, err := rs.conn.GetClient().Exists(ctx, rs.prefix+key).Result()
	if err != nil {
		return false, xerrors.Wrap(err, "failed to check dedup key")
	}
	return n > 0, nil
}

// Mark 登记键
func (rs *redisStore) Mark(ctx context.Context, key string, ttl time.Duration) error {
	if key == "" {
		return ErrKeyEmpty
	}

	// SET NX：重复登记保留首次写入的 TTL
	if _, err := rs.conn.GetClient().SetNX(ctx, rs.prefix+key, "1", ttl).Result(); err != nil {
		return xerrors.Wrap(err, "failed to mark dedup key")
	}
	return nil
}
