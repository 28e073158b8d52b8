package config

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/datner/renu-sub001/xerrors"
)

// loader 实现 Loader 接口
type loader struct {
	v      *viper.Viper
	opts   *Options
	mu     sync.RWMutex
	loaded bool
	onChg  []func()
}

// newLoader 创建一个新的配置加载器（内部使用）
func newLoader(opts ...Option) (Loader, error) {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}

	return &loader{
		v:    viper.New(),
		opts: options,
	}, nil
}

// Load 初始化并从所有来源加载配置
func (l *loader) Load(ctx context.Context) error {
	l.v.SetConfigName(l.opts.Name)
	l.v.SetConfigType(l.opts.FileType)

	for _, path := range l.opts.Paths {
		l.v.AddConfigPath(path)
	}

	// 环境变量（最高优先级）先注册，确保能捕获所有覆盖
	l.v.SetEnvPrefix(l.opts.EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	// .env 文件（高优先级），缺失不是错误
	l.loadDotEnv()

	// 配置文件（最低优先级），缺失不是错误：允许纯环境变量部署
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return xerrors.Wrapf(err, "failed to read config file %s", l.opts.Name)
		}
	}

	if err := l.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	l.loaded = true
	l.mu.Unlock()

	// 文件监听自动启动
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		l.mu.RLock()
		callbacks := append([]func(){}, l.onChg...)
		l.mu.RUnlock()
		for _, fn := range callbacks {
			fn()
		}
	})
	l.v.WatchConfig()

	return nil
}

// loadDotEnv 尝试从搜索路径加载 .env 文件（内部使用）
func (l *loader) loadDotEnv() {
	_ = godotenv.Load()
	for _, path := range l.opts.Paths {
		_ = godotenv.Load(filepath.Join(path, ".env"))
	}
}

// Get 根据 key 获取配置值
func (l *loader) Get(key string) any {
	return l.v.Get(key)
}

// Unmarshal 将整个配置反序列化到结构体
func (l *loader) Unmarshal(v any) error {
	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()
	if !loaded {
		return ErrNotLoaded
	}
	return l.v.Unmarshal(v)
}

// UnmarshalKey 将特定配置 key 反序列化到结构体
func (l *loader) UnmarshalKey(key string, v any) error {
	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()
	if !loaded {
		return ErrNotLoaded
	}
	return l.v.UnmarshalKey(key, v)
}

// OnChange 注册配置文件变更回调
func (l *loader) OnChange(fn func()) {
	l.mu.Lock()
	l.onChg = append(l.onChg, fn)
	l.mu.Unlock()
}

// Validate 验证配置
//
// 空配置是合法的：所有键都可能来自环境变量。
func (l *loader) Validate() error {
	return nil
}
