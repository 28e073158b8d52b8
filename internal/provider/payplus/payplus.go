// Package payplus 实现 PayPlus 清算供应商接入。
//
// PayPlus 是托管支付页模式：生成链接时把订单号写入 more_info，
// 支付完成后供应商回调 webhook，管道再通过 IPN 接口回查交易做校验。
package payplus

import (
	"context"
	"encoding/json"
	"math"

	"github.com/datner/renu-sub001/breaker"
	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/internal/provider/httpx"
	"github.com/datner/renu-sub001/xerrors"
)

// StatusApproved PayPlus 交易成功状态码
const StatusApproved = "000"

// vendorConfig 集成配置中的 PayPlus 私有字段
type vendorConfig struct {
	APIKey         string `json:"api_key"`
	SecretKey      string `json:"secret_key"`
	PaymentPageUID string `json:"payment_page_uid"`
}

// parseVendorConfig 解析并校验供应商私有配置
// 配置缺失是部署缺陷，标记为不可重试。
func parseVendorConfig(raw json.RawMessage) (*vendorConfig, error) {
	var vc vendorConfig
	if err := json.Unmarshal(raw, &vc); err != nil {
		return nil, breaker.NonRetryable(xerrors.Wrap(err, "payplus: parse vendor config"))
	}
	if vc.APIKey == "" || vc.SecretKey == "" || vc.PaymentPageUID == "" {
		return nil, breaker.NonRetryable(xerrors.New("payplus: vendor config missing credentials"))
	}
	return &vc, nil
}

// authHeaders 构造认证头
func (vc *vendorConfig) authHeaders() map[string]string {
	return map[string]string{
		"api-key":    vc.APIKey,
		"secret-key": vc.SecretKey,
	}
}

// Config PayPlus 接入配置
type Config struct {
	// HTTP 供应商 HTTP 客户端配置
	HTTP httpx.Config `json:"http" yaml:"http" mapstructure:"http"`

	// SuccessURL 支付成功跳转地址
	SuccessURL string `json:"success_url" yaml:"success_url" mapstructure:"success_url"`

	// FailureURL 支付失败跳转地址
	FailureURL string `json:"failure_url" yaml:"failure_url" mapstructure:"failure_url"`

	// CallbackURL webhook 回调地址
	CallbackURL string `json:"callback_url" yaml:"callback_url" mapstructure:"callback_url"`
}

// Provider PayPlus 清算实现
type Provider struct {
	cfg    *Config
	client *httpx.Client
	logger clog.Logger
}

// New 创建 PayPlus 供应商
func New(cfg *Config, logger clog.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, xerrors.New("payplus: config is nil")
	}
	if logger == nil {
		logger = clog.Discard()
	}
	logger = logger.WithNamespace("payplus")

	client, err := httpx.New(cfg.HTTP, logger)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client, logger: logger}, nil
}

// Tag 返回供应商标签
func (p *Provider) Tag() domain.ClearingTag {
	return domain.ClearingPayPlus
}

// generateLinkRequest 生成支付页请求体
type generateLinkRequest struct {
	PaymentPageUID      string  `json:"payment_page_uid"`
	Amount              float64 `json:"amount"`
	CurrencyCode        string  `json:"currency_code"`
	MoreInfo            string  `json:"more_info"`
	RefURLSuccess       string  `json:"refURL_success,omitempty"`
	RefURLFailure       string  `json:"refURL_failure,omitempty"`
	RefURLCallback      string  `json:"refURL_callback,omitempty"`
	SendFailureCallback bool    `json:"send_failure_callback"`
}

// generateLinkResponse 生成支付页响应体
type generateLinkResponse struct {
	Results struct {
		Status      string `json:"status"`
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"results"`
	Data struct {
		PaymentPageLink string `json:"payment_page_link"`
	} `json:"data"`
}

// GetClearingPageLink 生成托管支付页链接
// 订单号写入 more_info，webhook 回调时据此定位订单。
func (p *Provider) GetClearingPageLink(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (string, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return "", domain.NewClearingError(domain.ClearingPayPlus, "invalid integration", err)
	}

	req := &generateLinkRequest{
		PaymentPageUID:      vc.PaymentPageUID,
		Amount:              toMajorUnits(order.Total),
		CurrencyCode:        "ILS",
		MoreInfo:            order.ID,
		RefURLSuccess:       p.cfg.SuccessURL,
		RefURLFailure:       p.cfg.FailureURL,
		RefURLCallback:      p.cfg.CallbackURL,
		SendFailureCallback: true,
	}

	var resp generateLinkResponse
	if err := p.client.PostJSON(ctx, "/api/v1.0/PaymentPages/generateLink", vc.authHeaders(), req, &resp); err != nil {
		return "", domain.NewClearingError(domain.ClearingPayPlus, "generate payment link", err)
	}
	if resp.Data.PaymentPageLink == "" {
		return "", domain.NewClearingError(domain.ClearingPayPlus, "empty payment page link: "+resp.Results.Description, nil)
	}
	return resp.Data.PaymentPageLink, nil
}

// ipnRequest IPN 回查请求体
type ipnRequest struct {
	MoreInfo string `json:"more_info"`
}

// ipnResponse IPN 回查响应体
type ipnResponse struct {
	Data struct {
		TransactionUID string  `json:"transaction_uid"`
		StatusCode     string  `json:"status_code"`
		Amount         float64 `json:"amount"`
		Currency       string  `json:"currency"`
	} `json:"data"`
}

// ValidateTransaction 通过 IPN 接口回查交易并校验金额与状态
//
// 状态码非 000 或金额与订单不符视为供应商明确拒绝，
// 返回 *domain.ValidationError（不可重试，不触发网络级熔断计数误判）。
func (p *Provider) ValidateTransaction(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (*domain.Transaction, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return nil, domain.NewClearingError(domain.ClearingPayPlus, "invalid integration", err)
	}

	var resp ipnResponse
	if err := p.client.PostJSON(ctx, "/api/v1.0/PaymentPages/ipn", vc.authHeaders(), &ipnRequest{MoreInfo: order.ID}, &resp); err != nil {
		return nil, domain.NewClearingError(domain.ClearingPayPlus, "ipn lookup", err)
	}

	if resp.Data.StatusCode != StatusApproved {
		return nil, breaker.NonRetryable(&domain.ValidationError{
			Provider: domain.ClearingPayPlus,
			Message:  "transaction not approved, status " + resp.Data.StatusCode,
		})
	}
	if got := fromMajorUnits(resp.Data.Amount); got != order.Total {
		p.logger.Warn("transaction amount mismatch",
			clog.String("order_id", order.ID),
			clog.Int64("order_total", order.Total),
			clog.Int64("transaction_amount", got))
		return nil, breaker.NonRetryable(&domain.ValidationError{
			Provider: domain.ClearingPayPlus,
			Message:  "transaction amount does not match order total",
		})
	}

	return &domain.Transaction{
		ID:       resp.Data.TransactionUID,
		OrderID:  order.ID,
		Amount:   order.Total,
		Currency: resp.Data.Currency,
	}, nil
}

// toMajorUnits agorot 转主货币单位
func toMajorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// fromMajorUnits 主货币单位转 agorot
func fromMajorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}
