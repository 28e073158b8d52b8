// renu-gateway 是订单对账网关的入口。
//
// 装配顺序：配置 → 日志 → 指标 → 连接器 → 仓储 → 供应商注册表 →
// 对账管道 → HTTP 服务。资源按 LIFO 顺序在退出时释放。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datner/renu-sub001/alert"
	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/config"
	"github.com/datner/renu-sub001/connector"
	"github.com/datner/renu-sub001/dedup"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/internal/provider"
	"github.com/datner/renu-sub001/internal/provider/creditguard"
	"github.com/datner/renu-sub001/internal/provider/dorix"
	"github.com/datner/renu-sub001/internal/provider/gama"
	"github.com/datner/renu-sub001/internal/provider/payplus"
	"github.com/datner/renu-sub001/internal/provider/presto"
	"github.com/datner/renu-sub001/internal/reconcile"
	"github.com/datner/renu-sub001/internal/server"
	"github.com/datner/renu-sub001/internal/store"
	"github.com/datner/renu-sub001/metrics"
	"github.com/datner/renu-sub001/ratelimit"

	"gorm.io/gorm"
)

// appConfig 网关全量配置
type appConfig struct {
	Log       clog.Config                `mapstructure:"log"`
	Metrics   metrics.Config             `mapstructure:"metrics"`
	Server    server.Config              `mapstructure:"server"`
	Database  databaseConfig             `mapstructure:"database"`
	Redis     connector.RedisConfig      `mapstructure:"redis"`
	NATS      natsConfig                 `mapstructure:"nats"`
	Alert     alert.Config               `mapstructure:"alert"`
	Dedup     dedup.Config               `mapstructure:"dedup"`
	RateLimit ratelimit.StandaloneConfig `mapstructure:"rate_limit"`
	Reconcile reconcile.Config           `mapstructure:"reconcile"`
	Cache     store.CacheConfig          `mapstructure:"cache"`
	Providers providersConfig            `mapstructure:"providers"`
}

// databaseConfig 数据库选择：生产走 MySQL，本地开发可切 SQLite
type databaseConfig struct {
	Driver string                 `mapstructure:"driver"` // mysql | sqlite
	MySQL  connector.MySQLConfig  `mapstructure:"mysql"`
	SQLite connector.SQLiteConfig `mapstructure:"sqlite"`
}

// natsConfig NATS 开关与连接配置
type natsConfig struct {
	Enabled bool                 `mapstructure:"enabled"`
	Conn    connector.NATSConfig `mapstructure:"conn"`
}

// providersConfig 供应商接入配置
type providersConfig struct {
	Registry    provider.Config    `mapstructure:"registry"`
	PayPlus     payplus.Config     `mapstructure:"payplus"`
	CreditGuard creditguard.Config `mapstructure:"creditguard"`
	Gama        gama.Config        `mapstructure:"gama"`
	Dorix       dorix.Config       `mapstructure:"dorix"`
	Presto      presto.Config      `mapstructure:"presto"`
}

func main() {
	loader := config.MustLoad(
		config.WithConfigName("config"),
		config.WithEnvPrefix("RENU"),
	)

	var cfg appConfig
	if err := loader.Unmarshal(&cfg); err != nil {
		panic(err)
	}

	logger := clog.Must(&cfg.Log)
	logger.Info("renu-gateway starting")

	// 配置热更新：运行时只允许调整日志级别
	loader.OnChange(func() {
		var next appConfig
		if err := loader.Unmarshal(&next); err != nil {
			logger.Warn("config reload failed", clog.Error(err))
			return
		}
		level, err := clog.ParseLevel(next.Log.Level)
		if err != nil {
			logger.Warn("invalid log level in reloaded config", clog.String("level", next.Log.Level))
			return
		}
		if err := logger.SetLevel(level); err != nil {
			logger.Warn("failed to apply log level", clog.Error(err))
			return
		}
		logger.Info("log level updated", clog.String("level", next.Log.Level))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 指标
	meter, err := metrics.New(&cfg.Metrics, metrics.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to init metrics", clog.Error(err))
	}
	defer meter.Shutdown(context.Background())

	// 数据库
	dbConn, err := newDatabase(&cfg.Database, logger, meter)
	if err != nil {
		logger.Fatal("failed to create database connector", clog.Error(err))
	}
	defer dbConn.Close()
	if err := dbConn.Connect(ctx); err != nil {
		logger.Fatal("failed to connect database", clog.Error(err))
	}

	repo, err := store.NewGorm(dbConn, logger)
	if err != nil {
		logger.Fatal("failed to create store", clog.Error(err))
	}
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Fatal("failed to migrate schema", clog.Error(err))
	}
	integrations, err := store.NewCachedIntegrations(repo, &cfg.Cache)
	if err != nil {
		logger.Fatal("failed to create integration cache", clog.Error(err))
	}

	// 去重存储：配了 Redis 用 Redis，否则进程内
	dedupStore, closeDedup, err := newDedup(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("failed to create dedup store", clog.Error(err))
	}
	defer closeDedup()

	// 告警通道：配了 NATS 走消息队列，否则降级为日志
	notifier, closeAlert, err := newNotifier(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("failed to create alert notifier", clog.Error(err))
	}
	defer closeAlert()

	// 供应商注册表与分发器
	registry, err := newRegistry(&cfg.Providers, logger, meter)
	if err != nil {
		logger.Fatal("failed to build provider registry", clog.Error(err))
	}
	dispatcher, err := provider.NewDispatcher(registry,
		provider.WithLogger(logger),
		provider.WithMeter(meter))
	if err != nil {
		logger.Fatal("failed to build dispatcher", clog.Error(err))
	}

	// 对账管道
	pipeline, err := reconcile.New(&cfg.Reconcile, reconcile.Deps{
		Orders:       repo,
		Integrations: integrations,
		Dispatcher:   dispatcher,
		Dedup:        dedupStore,
		Notifier:     notifier,
	}, reconcile.WithLogger(logger), reconcile.WithMeter(meter))
	if err != nil {
		logger.Fatal("failed to build pipeline", clog.Error(err))
	}

	// 限流器
	limiter, err := ratelimit.NewStandalone(&cfg.RateLimit, ratelimit.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to build rate limiter", clog.Error(err))
	}

	// HTTP 服务
	srv, err := server.New(&cfg.Server, server.Deps{
		Pipeline: pipeline,
		Registry: registry,
		Limiter:  limiter,
	}, server.WithLogger(logger), server.WithMeter(meter))
	if err != nil {
		logger.Fatal("failed to build server", clog.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", clog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", clog.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", clog.Error(err))
	}
	logger.Info("renu-gateway stopped")
}

// newDatabase 按驱动选择数据库连接器
func newDatabase(cfg *databaseConfig, logger clog.Logger, meter metrics.Meter) (connector.TypedConnector[*gorm.DB], error) {
	switch cfg.Driver {
	case "sqlite":
		return connector.NewSQLite(&cfg.SQLite, connector.WithLogger(logger))
	default:
		return connector.NewMySQL(&cfg.MySQL,
			connector.WithLogger(logger),
			connector.WithMeter(meter))
	}
}

// newDedup 构造去重存储，返回释放函数
func newDedup(ctx context.Context, cfg *appConfig, logger clog.Logger) (dedup.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Warn("redis not configured, using in-memory dedup store")
		s, err := dedup.NewMemory(&cfg.Dedup)
		return s, func() {}, err
	}

	conn, err := connector.NewRedis(&cfg.Redis, connector.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	s, err := dedup.NewRedis(&cfg.Dedup, conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return s, func() { conn.Close() }, nil
}

// newNotifier 构造告警通道，返回释放函数
func newNotifier(ctx context.Context, cfg *appConfig, logger clog.Logger) (alert.Notifier, func(), error) {
	if !cfg.NATS.Enabled {
		logger.Warn("nats not configured, alerts degrade to log output")
		return alert.NewLog(logger), func() {}, nil
	}

	conn, err := connector.NewNATS(&cfg.NATS.Conn, connector.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	n, err := alert.NewNATS(&cfg.Alert, conn, alert.WithLogger(logger))
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return n, func() { conn.Close() }, nil
}

// newRegistry 装配全部供应商并构建闭合注册表
func newRegistry(cfg *providersConfig, logger clog.Logger, meter metrics.Meter) (*provider.Registry, error) {
	pp, err := payplus.New(&cfg.PayPlus, logger)
	if err != nil {
		return nil, err
	}
	cg, err := creditguard.New(&cfg.CreditGuard, logger)
	if err != nil {
		return nil, err
	}
	gm, err := gama.New(&cfg.Gama, logger)
	if err != nil {
		return nil, err
	}
	dx, err := dorix.New(&cfg.Dorix, logger)
	if err != nil {
		return nil, err
	}
	pr, err := presto.New(&cfg.Presto, logger)
	if err != nil {
		return nil, err
	}

	bindings := provider.Bindings{
		Clearing: map[domain.ClearingTag]provider.Clearing{
			pp.Tag(): pp,
			cg.Tag(): cg,
			gm.Tag(): gm,
		},
		Management: map[domain.ManagementTag]provider.Management{
			dx.Tag(): dx,
			pr.Tag(): pr,
		},
	}
	return provider.NewRegistry(&cfg.Registry, bindings,
		provider.WithLogger(logger),
		provider.WithMeter(meter))
}
