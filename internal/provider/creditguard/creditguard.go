// Package creditguard 实现 CreditGuard 清算供应商接入。
//
// CreditGuard 以终端号为维度鉴权，交易回查走 inquire 接口。
package creditguard

import (
	"context"
	"encoding/json"

	"github.com/datner/renu-sub001/breaker"
	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/internal/provider/httpx"
	"github.com/datner/renu-sub001/xerrors"
)

// statusApproved CreditGuard 交易成功状态
const statusApproved = "APPROVED"

// vendorConfig 集成配置中的 CreditGuard 私有字段
type vendorConfig struct {
	Terminal string `json:"terminal"`
	MID      string `json:"mid"`
	User     string `json:"user"`
	Password string `json:"password"`
}

func parseVendorConfig(raw json.RawMessage) (*vendorConfig, error) {
	var vc vendorConfig
	if err := json.Unmarshal(raw, &vc); err != nil {
		return nil, breaker.NonRetryable(xerrors.Wrap(err, "creditguard: parse vendor config"))
	}
	if vc.Terminal == "" || vc.User == "" || vc.Password == "" {
		return nil, breaker.NonRetryable(xerrors.New("creditguard: vendor config missing credentials"))
	}
	return &vc, nil
}

// Config CreditGuard 接入配置
type Config struct {
	// HTTP 供应商 HTTP 客户端配置
	HTTP httpx.Config `json:"http" yaml:"http" mapstructure:"http"`

	// RedirectURL 支付完成跳转地址
	RedirectURL string `json:"redirect_url" yaml:"redirect_url" mapstructure:"redirect_url"`
}

// Provider CreditGuard 清算实现
type Provider struct {
	cfg    *Config
	client *httpx.Client
	logger clog.Logger
}

// New 创建 CreditGuard 供应商
func New(cfg *Config, logger clog.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, xerrors.New("creditguard: config is nil")
	}
	if logger == nil {
		logger = clog.Discard()
	}
	logger = logger.WithNamespace("creditguard")

	client, err := httpx.New(cfg.HTTP, logger)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client, logger: logger}, nil
}

// Tag 返回供应商标签
func (p *Provider) Tag() domain.ClearingTag {
	return domain.ClearingCreditGuard
}

type initPageRequest struct {
	Terminal    string `json:"terminal"`
	MID         string `json:"mid"`
	User        string `json:"user"`
	Password    string `json:"password"`
	Amount      int64  `json:"amount"` // agorot
	Currency    string `json:"currency"`
	UniqueID    string `json:"unique_id"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type initPageResponse struct {
	Status  string `json:"status"`
	PageURL string `json:"page_url"`
	Message string `json:"message,omitempty"`
}

// GetClearingPageLink 初始化托管支付页
func (p *Provider) GetClearingPageLink(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (string, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return "", domain.NewClearingError(domain.ClearingCreditGuard, "invalid integration", err)
	}

	req := &initPageRequest{
		Terminal:    vc.Terminal,
		MID:         vc.MID,
		User:        vc.User,
		Password:    vc.Password,
		Amount:      order.Total,
		Currency:    "ILS",
		UniqueID:    order.ID,
		RedirectURL: p.cfg.RedirectURL,
	}

	var resp initPageResponse
	if err := p.client.PostJSON(ctx, "/xpo/api/initPage", nil, req, &resp); err != nil {
		return "", domain.NewClearingError(domain.ClearingCreditGuard, "init payment page", err)
	}
	if resp.PageURL == "" {
		return "", domain.NewClearingError(domain.ClearingCreditGuard, "empty page url: "+resp.Message, nil)
	}
	return resp.PageURL, nil
}

type inquireRequest struct {
	Terminal string `json:"terminal"`
	User     string `json:"user"`
	Password string `json:"password"`
	UniqueID string `json:"unique_id"`
}

type inquireResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// ValidateTransaction 回查交易并校验金额与状态
func (p *Provider) ValidateTransaction(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (*domain.Transaction, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return nil, domain.NewClearingError(domain.ClearingCreditGuard, "invalid integration", err)
	}

	req := &inquireRequest{
		Terminal: vc.Terminal,
		User:     vc.User,
		Password: vc.Password,
		UniqueID: order.ID,
	}

	var resp inquireResponse
	if err := p.client.PostJSON(ctx, "/xpo/api/inquire", nil, req, &resp); err != nil {
		return nil, domain.NewClearingError(domain.ClearingCreditGuard, "inquire transaction", err)
	}

	if resp.Status != statusApproved {
		return nil, breaker.NonRetryable(&domain.ValidationError{
			Provider: domain.ClearingCreditGuard,
			Message:  "transaction not approved, status " + resp.Status,
		})
	}
	if resp.Amount != order.Total {
		return nil, breaker.NonRetryable(&domain.ValidationError{
			Provider: domain.ClearingCreditGuard,
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
