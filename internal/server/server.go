// Package server 提供对账网关的 HTTP 入口。
//
// 路由：
//   - POST /webhooks/payplus/:integrationID  清算供应商支付回调
//   - GET  /healthz                          健康检查（附每个供应商的熔断状态）
//
// 应答契约：2xx 统一为 {"success":true}，非 2xx 统一为 {"success":false}。
// 供应商只看状态码决定是否重试，body 只为人读。
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/internal/provider"
	"github.com/datner/renu-sub001/internal/reconcile"
	"github.com/datner/renu-sub001/metrics"
	"github.com/datner/renu-sub001/ratelimit"
	"github.com/datner/renu-sub001/xerrors"
)

// ========================================
// 配置定义 (Configuration)
// ========================================

// Config HTTP 服务配置
type Config struct {
	// Addr 监听地址（默认：":8080"）
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Mode Gin 运行模式：debug/release/test（默认："release"）
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// ReadTimeout 请求读取超时（默认：10s）
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout 应答写入超时（默认：15s）
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`

	// MaxBodyBytes 回调请求体大小上限（默认：1MB）
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	// RateLimit webhook 端点限流规则（默认：50 QPS，突发 100）
	RateLimit ratelimit.Limit `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Mode == "" {
		c.Mode = gin.ReleaseMode
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.RateLimit.Rate == 0 {
		c.RateLimit = ratelimit.Limit{Rate: 50, Burst: 100}
	}
}

// Deps 服务依赖
type Deps struct {
	// Pipeline 回调对账管道
	Pipeline *reconcile.Pipeline

	// Registry 供应商注册表（健康检查读取熔断状态）
	Registry *provider.Registry

	// Limiter 限流器，可为 nil（不限流）
	Limiter ratelimit.Limiter
}

// validate 校验依赖完整性
func (d *Deps) validate() error {
	if d.Pipeline == nil {
		return xerrors.New("server: pipeline is nil")
	}
	if d.Registry == nil {
		return xerrors.New("server: registry is nil")
	}
	return nil
}

// ========================================
// 服务 (Server)
// ========================================

// Server 对账网关 HTTP 服务
type Server struct {
	cfg    *Config
	deps   Deps
	engine *gin.Engine
	http   *http.Server
	logger clog.Logger
}

// New 创建 HTTP 服务
func New(cfg *Config, deps Deps, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := deps.validate(); err != nil {
		return nil, err
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	opt.applyDefaults()

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		engine: engine,
		logger: opt.logger,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
	s.setupMiddleware(&opt)
	s.setupRoutes()
	return s, nil
}

// setupMiddleware 装配中间件链
func (s *Server) setupMiddleware(opt *options) {
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.accessLog())

	if opt.meter != nil {
		httpMetrics, err := metrics.NewHTTPServerMetrics(opt.meter, nil)
		if err != nil {
			s.logger.Warn("failed to build http metrics, continuing without",
				clog.Error(err))
		} else {
			s.engine.Use(metrics.GinHTTPMiddleware(httpMetrics))
		}
	}

	if s.deps.Limiter != nil {
		limit := s.cfg.RateLimit
		s.engine.Use(ratelimit.GinMiddleware(s.deps.Limiter, nil, func(c *gin.Context) ratelimit.Limit {
			return limit
		}))
	}
}

// setupRoutes 装配路由
func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)

	webhooks := s.engine.Group("/webhooks")
	webhooks.POST("/payplus/:integrationID", s.handlePayPlusCallback)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
	})
	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false})
	})
}

// accessLog 访问日志中间件
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			clog.String("method", c.Request.Method),
			clog.String("path", c.Request.URL.Path),
			clog.Int("status", c.Writer.Status()),
			clog.Duration("elapsed", time.Since(start)))
	}
}

// Engine 返回底层 Gin 引擎（测试用）
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start 启动 HTTP 服务，阻塞直到服务退出
func (s *Server) Start() error {
	s.logger.Info("http server starting", clog.String("addr", s.cfg.Addr))
	if err := s.http.ListenAndServe(); err != nil && !xerrors.Is(err, http.ErrServerClosed) {
		return xerrors.Wrap(err, "server: listen")
	}
	return nil
}

// Shutdown 优雅关闭，等待在途请求完成
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}
