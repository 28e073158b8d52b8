// Package presto 实现 Presto 门店管理（POS）供应商接入。
package presto

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/datner/renu-sub001/breaker"
	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/internal/provider/httpx"
	"github.com/datner/renu-sub001/xerrors"
)

// vendorConfig 集成配置中的 Presto 私有字段
type vendorConfig struct {
	StoreCode string `json:"store_code"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

func parseVendorConfig(raw json.RawMessage) (*vendorConfig, error) {
	var vc vendorConfig
	if err := json.Unmarshal(raw, &vc); err != nil {
		return nil, breaker.NonRetryable(xerrors.Wrap(err, "presto: parse vendor config"))
	}
	if vc.StoreCode == "" || vc.Username == "" || vc.Password == "" {
		return nil, breaker.NonRetryable(xerrors.New("presto: vendor config missing credentials"))
	}
	return &vc, nil
}

// Config Presto 接入配置
type Config struct {
	// HTTP 供应商 HTTP 客户端配置
	HTTP httpx.Config `json:"http" yaml:"http" mapstructure:"http"`
}

// Provider Presto 管理端实现
type Provider struct {
	cfg    *Config
	client *httpx.Client
	logger clog.Logger
}

// New 创建 Presto 供应商
func New(cfg *Config, logger clog.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, xerrors.New("presto: config is nil")
	}
	if logger == nil {
		logger = clog.Discard()
	}
	logger = logger.WithNamespace("presto")

	client, err := httpx.New(cfg.HTTP, logger)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client, logger: logger}, nil
}

// Tag 返回供应商标签
func (p *Provider) Tag() domain.ManagementTag {
	return domain.ManagementPresto
}

type lineItem struct {
	Description string `json:"description"`
	Qty         int    `json:"qty"`
	UnitPrice   int64  `json:"unit_price"`
	Remark      string `json:"remark,omitempty"`
}

type submitOrderRequest struct {
	StoreCode string     `json:"store_code"`
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	RefID     string     `json:"ref_id"`
	Lines     []lineItem `json:"lines"`
	Total     int64      `json:"total"`
}

// ReportOrder 将订单推送到 Presto POS
func (p *Provider) ReportOrder(ctx context.Context, order *domain.Order, integration *domain.ManagementIntegration) error {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return domain.NewManagementError(domain.ManagementPresto, "invalid integration", err)
	}

	lines := make([]lineItem, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, lineItem{
			Description: it.Name,
			Qty:         it.Quantity,
			UnitPrice:   it.Price,
			Remark:      it.Comment,
		})
	}

	req := &submitOrderRequest{
		StoreCode: vc.StoreCode,
		Username:  vc.Username,
		Password:  vc.Password,
		RefID:     order.ID,
		Lines:     lines,
		Total:     order.Total,
	}
	if err := p.client.PostJSON(ctx, "/api/orders/submit", nil, req, nil); err != nil {
		return domain.NewManagementError(domain.ManagementPresto, "report order", err)
	}
	return nil
}

type statusRequest struct {
	StoreCode string `json:"store_code"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	RefID     string `json:"ref_id"`
}

type statusResponse struct {
	State string `json:"state"`
}

// GetOrderStatus 查询订单在 Presto 侧的状态
func (p *Provider) GetOrderStatus(ctx context.Context, order *domain.Order, integration *domain.ManagementIntegration) (domain.ProviderOrderStatus, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return "", domain.NewManagementError(domain.ManagementPresto, "invalid integration", err)
	}

	req := &statusRequest{StoreCode: vc.StoreCode, Username: vc.Username, Password: vc.Password, RefID: order.ID}
	var resp statusResponse
	if err := p.client.PostJSON(ctx, "/api/orders/status", nil, req, &resp); err != nil {
		return "", domain.NewManagementError(domain.ManagementPresto, "get order status", err)
	}
	return normalizeState(resp.State), nil
}

// normalizeState Presto 状态名到标准状态码的映射
func normalizeState(s string) domain.ProviderOrderStatus {
	switch strings.ToUpper(s) {
	case "FAILED", "ERROR":
		return domain.ProviderStatusFailed
	case "UNREACHABLE", "NO_CONNECTION":
		return domain.ProviderStatusUnreachable
	case "AWAITING_TO_BE_RECEIVED", "QUEUED":
		return domain.ProviderStatusAwaiting
	default:
		return domain.ProviderOrderStatus(strings.ToUpper(s))
	}
}

type menuRequest struct {
	StoreCode string `json:"store_code"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type menuResponse struct {
	Products []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Price       int64  `json:"price"`
		Group       string `json:"group"`
	} `json:"products"`
}

// GetVenueMenu 拉取门店菜单
func (p *Provider) GetVenueMenu(ctx context.Context, venueID string, integration *domain.ManagementIntegration) (*domain.Menu, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return nil, domain.NewManagementError(domain.ManagementPresto, "invalid integration", err)
	}

	req := &menuRequest{StoreCode: vc.StoreCode, Username: vc.Username, Password: vc.Password}
	var resp menuResponse
	if err := p.client.PostJSON(ctx, "/api/menu/export", nil, req, &resp); err != nil {
		return nil, domain.NewManagementError(domain.ManagementPresto, "get venue menu", err)
	}

	menu := &domain.Menu{VenueID: venueID, Items: make([]domain.MenuItem, 0, len(resp.Products))}
	for _, pr := range resp.Products {
		menu.Items = append(menu.Items, domain.MenuItem{
			ID:       pr.Code,
			Name:     pr.Description,
			Price:    pr.Price,
			Category: pr.Group,
		})
	}
	return menu, nil
}
