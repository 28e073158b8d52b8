// Package gama 实现 Gama 清算供应商接入。
package gama

import (
	"context"
	"encoding/json"

	"github.com/datner/renu-sub001/breaker"
	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/internal/provider/httpx"
	"github.com/datner/renu-sub001/xerrors"
)

// statusPaid Gama 交易成功状态
const statusPaid = "PAID"

// vendorConfig 集成配置中的 Gama 私有字段
type vendorConfig struct {
	GamaID string `json:"gama_id"`
	APIKey string `json:"api_key"`
}

func parseVendorConfig(raw json.RawMessage) (*vendorConfig, error) {
	var vc vendorConfig
	if err := json.Unmarshal(raw, &vc); err != nil {
		return nil, breaker.NonRetryable(xerrors.Wrap(err, "gama: parse vendor config"))
	}
	if vc.GamaID == "" || vc.APIKey == "" {
		return nil, breaker.NonRetryable(xerrors.New("gama: vendor config missing credentials"))
	}
	return &vc, nil
}

func (vc *vendorConfig) authHeaders() map[string]string {
	return map[string]string{"X-Gama-Key": vc.APIKey}
}

// Config Gama 接入配置
type Config struct {
	// HTTP 供应商 HTTP 客户端配置
	HTTP httpx.Config `json:"http" yaml:"http" mapstructure:"http"`
}

// Provider Gama 清算实现
type Provider struct {
	cfg    *Config
	client *httpx.Client
	logger clog.Logger
}

// New 创建 Gama 供应商
func New(cfg *Config, logger clog.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, xerrors.New("gama: config is nil")
	}
	if logger == nil {
		logger = clog.Discard()
	}
	logger = logger.WithNamespace("gama")

	client, err := httpx.New(cfg.HTTP, logger)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client, logger: logger}, nil
}

// Tag 返回供应商标签
func (p *Provider) Tag() domain.ClearingTag {
	return domain.ClearingGama
}

type createLinkRequest struct {
	GamaID    string `json:"gama_id"`
	Amount    int64  `json:"amount"` // agorot
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

type createLinkResponse struct {
	URL string `json:"url"`
}

// GetClearingPageLink 创建支付链接
func (p *Provider) GetClearingPageLink(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (string, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return "", domain.NewClearingError(domain.ClearingGama, "invalid integration", err)
	}

	req := &createLinkRequest{
		GamaID:    vc.GamaID,
		Amount:    order.Total,
		Currency:  "ILS",
		Reference: order.ID,
	}

	var resp createLinkResponse
	if err := p.client.PostJSON(ctx, "/api/payment-links", vc.authHeaders(), req, &resp); err != nil {
		return "", domain.NewClearingError(domain.ClearingGama, "create payment link", err)
	}
	if resp.URL == "" {
		return "", domain.NewClearingError(domain.ClearingGama, "empty payment link", nil)
	}
	return resp.URL, nil
}

type verifyResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// ValidateTransaction 按订单引用号回查交易
func (p *Provider) ValidateTransaction(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (*domain.Transaction, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return nil, domain.NewClearingError(domain.ClearingGama, "invalid integration", err)
	}

	var resp verifyResponse
	if err := p.client.GetJSON(ctx, "/api/transactions/by-reference/"+order.ID, vc.authHeaders(), &resp); err != nil {
		return nil, domain.NewClearingError(domain.ClearingGama, "verify transaction", err)
	}

	if resp.Status != statusPaid {
		return nil, breaker.NonRetryable(&domain.ValidationError{
			Provider: domain.ClearingGama,
			Message:  "transaction not paid, status " + resp.Status,
		})
	}
	if resp.Amount != order.Total {
		return nil, breaker.NonRetryable(&domain.ValidationError{
			Provider: domain.ClearingGama,
			Message:  "transaction amount does not match order total",
		})
	}

	return &domain.Transaction{
		ID:       resp.TransactionID,
		OrderID:  order.ID,
		Amount:   order.Total,
		Currency: resp.Currency,
	}, nil
}
