// Package httpx 提供供应商 HTTP 客户端的公共封装。
//
// 所有供应商实现共用同一套请求/响应处理：
//   - 显式超时（防止慢供应商拖垮 webhook 管道）
//   - JSON 编解码
//   - 错误分类：网络错误、超时与 5xx 视为可重试；
//     4xx 视为供应商明确拒绝，标记为不可重试，熔断器立即打开
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datner/renu-sub001/breaker"
	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/xerrors"
)

// 响应体读取上限，防止异常供应商返回超大响应
const maxResponseBytes = 1 << 20

// ========================================
// 配置定义 (Configuration)
// ========================================

// Config HTTP 客户端配置
type Config struct {
	// BaseURL 供应商 API 基地址
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Timeout 单次请求超时（默认：15s）
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Headers 附加到每个请求的固定头（认证头等）
	Headers map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
}

// validate 验证配置
func (c *Config) validate() error {
	c.setDefaults()
	if c.BaseURL == "" {
		return xerrors.New("httpx: base url is empty")
	}
	return nil
}

// ========================================
// 错误定义 (Errors)
// ========================================

// StatusError 供应商返回的非 2xx 响应
type StatusError struct {
	StatusCode int
	Body       []byte
}

// Error 实现 error 接口
func (e *StatusError) Error() string {
	return fmt.Sprintf("httpx: unexpected status %d: %s", e.StatusCode, truncate(e.Body, 256))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// ========================================
// 客户端 (Client)
// ========================================

// Client 供应商 HTTP 客户端
type Client struct {
	cfg    Config
	hc     *http.Client
	logger clog.Logger
}

// New 创建客户端
func New(cfg Config, logger clog.Logger) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = clog.Discard()
	}
	return &Client{
		cfg:    cfg,
		hc:     &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// PostJSON 发送 JSON POST 请求并解码响应
// out 为 nil 时丢弃响应体；headers 为每次请求附加的头（通常是按集成配置解析出的认证头）。
func (c *Client) PostJSON(ctx context.Context, path string, headers map[string]string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return breaker.NonRetryable(xerrors.Wrap(err, "httpx: marshal request"))
		}
		reader = bytes.NewReader(payload)
	}
	return c.do(ctx, http.MethodPost, path, headers, reader, out)
}

// GetJSON 发送 GET 请求并解码响应
func (c *Client) GetJSON(ctx context.Context, path string, headers map[string]string, out any) error {
	return c.do(ctx, http.MethodGet, path, headers, nil, out)
}

// do 执行请求并按状态码分类错误
func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return breaker.NonRetryable(xerrors.Wrap(err, "httpx: build request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		// 网络错误与超时：可重试
		return xerrors.Wrapf(err, "httpx: %s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return xerrors.Wrapf(err, "httpx: read response of %s %s", method, path)
	}

	c.logger.Debug("provider http request",
		clog.String("method", method),
		clog.String("path", path),
		clog.Int("status", resp.StatusCode),
		clog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return xerrors.Wrapf(err, "httpx: decode response of %s %s", method, path)
		}
		return nil
	}

	statusErr := &StatusError{StatusCode: resp.StatusCode, Body: raw}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// 供应商明确拒绝，不可重试
		return breaker.NonRetryable(statusErr)
	}
	return statusErr
}
