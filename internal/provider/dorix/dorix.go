// Package dorix 实现 Dorix 门店管理（POS）供应商接入。
package dorix

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

// vendorConfig 集成配置中的 Dorix 私有字段
type vendorConfig struct {
	BranchID string `json:"branch_id"`
	APIKey   string `json:"api_key"`
}

func parseVendorConfig(raw json.RawMessage) (*vendorConfig, error) {
	var vc vendorConfig
	if err := json.Unmarshal(raw, &vc); err != nil {
		return nil, breaker.NonRetryable(xerrors.Wrap(err, "dorix: parse vendor config"))
	}
	if vc.BranchID == "" || vc.APIKey == "" {
		return nil, breaker.NonRetryable(xerrors.New("dorix: vendor config missing credentials"))
	}
	return &vc, nil
}

func (vc *vendorConfig) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + vc.APIKey}
}

// Config Dorix 接入配置
type Config struct {
	// HTTP 供应商 HTTP 客户端配置
	HTTP httpx.Config `json:"http" yaml:"http" mapstructure:"http"`
}

// Provider Dorix 管理端实现
type Provider struct {
	cfg    *Config
	client *httpx.Client
	logger clog.Logger
}

// New 创建 Dorix 供应商
func New(cfg *Config, logger clog.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, xerrors.New("dorix: config is nil")
	}
	if logger == nil {
		logger = clog.Discard()
	}
	logger = logger.WithNamespace("dorix")

	client, err := httpx.New(cfg.HTTP, logger)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client, logger: logger}, nil
}

// Tag 返回供应商标签
func (p *Provider) Tag() domain.ManagementTag {
	return domain.ManagementDorix
}

type orderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
	Notes    string `json:"notes,omitempty"`
}

type reportOrderRequest struct {
	BranchID string      `json:"branchId"`
	OrderID  string      `json:"externalId"`
	Items    []orderItem `json:"items"`
	Total    int64       `json:"totalAmount"`
}

// ReportOrder 将订单推送到 Dorix POS
func (p *Provider) ReportOrder(ctx context.Context, order *domain.Order, integration *domain.ManagementIntegration) error {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return domain.NewManagementError(domain.ManagementDorix, "invalid integration", err)
	}

	items := make([]orderItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, orderItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
			Notes:    it.Comment,
		})
	}

	req := &reportOrderRequest{
		BranchID: vc.BranchID,
		OrderID:  order.ID,
		Items:    items,
		Total:    order.Total,
	}
	if err := p.client.PostJSON(ctx, "/v1/order", vc.authHeaders(), req, nil); err != nil {
		return domain.NewManagementError(domain.ManagementDorix, "report order", err)
	}
	return nil
}

type orderStatusResponse struct {
	Status string `json:"status"`
}

// GetOrderStatus 查询订单在 Dorix 侧的状态
// Dorix 自有状态名归一化为标准状态码，未知值原样透传由上层做安全默认。
func (p *Provider) GetOrderStatus(ctx context.Context, order *domain.Order, integration *domain.ManagementIntegration) (domain.ProviderOrderStatus, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return "", domain.NewManagementError(domain.ManagementDorix, "invalid integration", err)
	}

	var resp orderStatusResponse
	path := "/v1/order/" + order.ID + "/status?branchId=" + vc.BranchID
	if err := p.client.GetJSON(ctx, path, vc.authHeaders(), &resp); err != nil {
		return "", domain.NewManagementError(domain.ManagementDorix, "get order status", err)
	}
	return normalizeStatus(resp.Status), nil
}

// normalizeStatus Dorix 状态名到标准状态码的映射
func normalizeStatus(s string) domain.ProviderOrderStatus {
	switch strings.ToUpper(s) {
	case "FAILED", "REJECTED":
		return domain.ProviderStatusFailed
	case "UNREACHABLE", "OFFLINE":
		return domain.ProviderStatusUnreachable
	case "AWAITING_TO_BE_RECEIVED", "PENDING":
		return domain.ProviderStatusAwaiting
	default:
		return domain.ProviderOrderStatus(strings.ToUpper(s))
	}
}

type menuResponse struct {
	Items []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Price    int64  `json:"price"`
		Category string `json:"category"`
	} `json:"items"`
}

// GetVenueMenu 拉取门店菜单
func (p *Provider) GetVenueMenu(ctx context.Context, venueID string, integration *domain.ManagementIntegration) (*domain.Menu, error) {
	vc, err := parseVendorConfig(integration.VendorData)
	if err != nil {
		return nil, domain.NewManagementError(domain.ManagementDorix, "invalid integration", err)
	}

	var resp menuResponse
	if err := p.client.GetJSON(ctx, "/v1/menu?branchId="+vc.BranchID, vc.authHeaders(), &resp); err != nil {
		return nil, domain.NewManagementError(domain.ManagementDorix, "get venue menu", err)
	}

	menu := &domain.Menu{VenueID: venueID, Items: make([]domain.MenuItem, 0, len(resp.Items))}
	for _, it := range resp.Items {
		menu.Items = append(menu.Items, domain.MenuItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Category: it.Category,
		})
	}
	return menu, nil
}
