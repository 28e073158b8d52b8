package provider

import (
	"context"
	"time"

	"github.com/datner/renu-sub001/breaker"
	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/metrics"
	"github.com/datner/renu-sub001/xerrors"
)

// ========================================
// 分发器 (Dispatcher)
// ========================================

// Dispatcher 供应商调用统一入口
//
// 每次调用前先做配置错位检查：调用点声明需要的供应商标签，
// 与集成配置记录的标签不一致时立即返回 *domain.ClearingMismatchError
// （或管理端对应错误），不发起任何网络调用，也不计入熔断失败。
type Dispatcher struct {
	registry *Registry
	logger   clog.Logger

	callsTotal    metrics.Counter
	callDuration  metrics.Histogram
	mismatchTotal metrics.Counter
}

// NewDispatcher 创建分发器
func NewDispatcher(registry *Registry, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, xerrors.New("provider: registry is nil")
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	opt.applyDefaults()

	d := &Dispatcher{
		registry: registry,
		logger:   opt.logger,
	}

	if opt.meter != nil {
		d.callsTotal, _ = opt.meter.Counter(MetricCallsTotal, "供应商调用总数")
		d.callDuration, _ = opt.meter.Histogram(MetricCallDuration, "供应商调用耗时", metrics.WithUnit("s"))
		d.mismatchTotal, _ = opt.meter.Counter(MetricMismatchTotal, "配置错位快速失败次数")
	}

	return d, nil
}

// Registry 返回底层注册表（健康检查需要读取熔断器状态）
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// ========================================
// 清算操作 (Clearing Operations)
// ========================================

// GetClearingPageLink 生成支付页链接
// needed 是调用点要求的清算供应商标签。
func (d *Dispatcher) GetClearingPageLink(ctx context.Context, needed domain.ClearingTag, order *domain.Order, integration *domain.ClearingIntegration) (string, error) {
	impl, brk, err := d.clearingFor(needed, order, integration)
	if err != nil {
		return "", err
	}

	start := time.Now()
	link, err := breaker.Do(ctx, brk, func(ctx context.Context) (string, error) {
		return impl.GetClearingPageLink(ctx, order, integration)
	})
	d.observe(ctx, string(needed), OpGetClearingPageLink, start, err)
	return link, err
}

// ValidateTransaction 回查并校验订单对应的交易
func (d *Dispatcher) ValidateTransaction(ctx context.Context, needed domain.ClearingTag, order *domain.Order, integration *domain.ClearingIntegration) (*domain.Transaction, error) {
	impl, brk, err := d.clearingFor(needed, order, integration)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	txn, err := breaker.Do(ctx, brk, func(ctx context.Context) (*domain.Transaction, error) {
		return impl.ValidateTransaction(ctx, order, integration)
	})
	d.observe(ctx, string(needed), OpValidateTransaction, start, err)
	return txn, err
}

// ========================================
// 管理端操作 (Management Operations)
// ========================================

// ReportOrder 将订单推送到门店管理系统
func (d *Dispatcher) ReportOrder(ctx context.Context, needed domain.ManagementTag, order *domain.Order, integration *domain.ManagementIntegration) error {
	impl, brk, err := d.managementFor(needed, order, integration)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = brk.Execute(ctx, func(ctx context.Context) (any, error) {
		return nil, impl.ReportOrder(ctx, order, integration)
	})
	d.observe(ctx, string(needed), OpReportOrder, start, err)
	return err
}

// GetOrderStatus 查询订单在管理系统侧的状态
func (d *Dispatcher) GetOrderStatus(ctx context.Context, needed domain.ManagementTag, order *domain.Order, integration *domain.ManagementIntegration) (domain.ProviderOrderStatus, error) {
	impl, brk, err := d.managementFor(needed, order, integration)
	if err != nil {
		return "", err
	}

	start := time.Now()
	status, err := breaker.Do(ctx, brk, func(ctx context.Context) (domain.ProviderOrderStatus, error) {
		return impl.GetOrderStatus(ctx, order, integration)
	})
	d.observe(ctx, string(needed), OpGetOrderStatus, start, err)
	return status, err
}

// ProbeOrderStatus 降级路径的订单状态回查
//
// 交接失败后该供应商的熔断器通常已经打开，常规调用会被直接拒绝；
// 这里绕过熔断、单次直连实现回查状态（实现自带请求超时），
// 错位防护与未知标签校验仍然生效。只供故障兜底使用。
func (d *Dispatcher) ProbeOrderStatus(ctx context.Context, needed domain.ManagementTag, order *domain.Order, integration *domain.ManagementIntegration) (domain.ProviderOrderStatus, error) {
	impl, _, err := d.managementFor(needed, order, integration)
	if err != nil {
		return "", err
	}

	start := time.Now()
	status, err := impl.GetOrderStatus(ctx, order, integration)
	d.observe(ctx, string(needed), OpGetOrderStatus, start, err)
	return status, err
}

// GetVenueMenu 拉取门店菜单
func (d *Dispatcher) GetVenueMenu(ctx context.Context, needed domain.ManagementTag, venueID string, integration *domain.ManagementIntegration) (*domain.Menu, error) {
	if integration == nil {
		return nil, ErrIntegrationNil
	}
	if integration.Provider != needed {
		return nil, d.managementMismatch(needed, integration.Provider)
	}
	impl, brk, err := d.managementBinding(needed)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	menu, err := breaker.Do(ctx, brk, func(ctx context.Context) (*domain.Menu, error) {
		return impl.GetVenueMenu(ctx, venueID, integration)
	})
	d.observe(ctx, string(needed), OpGetVenueMenu, start, err)
	return menu, err
}

// ========================================
// 内部方法 (Internal Methods)
// ========================================

// clearingFor 解析清算实现与熔断器，带错位防护
func (d *Dispatcher) clearingFor(needed domain.ClearingTag, order *domain.Order, integration *domain.ClearingIntegration) (Clearing, breaker.Breaker, error) {
	if order == nil {
		return nil, nil, ErrOrderNil
	}
	if integration == nil {
		return nil, nil, ErrIntegrationNil
	}
	if integration.Provider != needed {
		d.logger.Error("clearing integration mismatch, refusing to dispatch",
			clog.String("needed", string(needed)),
			clog.String("given", string(integration.Provider)),
			clog.String("order_id", order.ID))
		if d.mismatchTotal != nil {
			d.mismatchTotal.Inc(context.Background(), metrics.L(LabelProvider, string(needed)))
		}
		return nil, nil, &domain.ClearingMismatchError{Needed: needed, Given: integration.Provider}
	}
	return d.clearingBinding(needed)
}

// clearingBinding 查找清算绑定，未知标签视为配置错误
//
// 注册表对标签枚举闭合，命不中只可能是数据里带了枚举外的值。
func (d *Dispatcher) clearingBinding(needed domain.ClearingTag) (Clearing, breaker.Breaker, error) {
	impl, ok := d.registry.clearing[needed]
	if !ok {
		d.logger.Error("unknown clearing provider tag, refusing to dispatch",
			clog.String("needed", string(needed)))
		return nil, nil, domain.NewClearingError(needed, "no implementation registered", nil)
	}
	return impl, d.registry.breakers[string(needed)], nil
}

// managementFor 解析管理端实现与熔断器，带错位防护
func (d *Dispatcher) managementFor(needed domain.ManagementTag, order *domain.Order, integration *domain.ManagementIntegration) (Management, breaker.Breaker, error) {
	if order == nil {
		return nil, nil, ErrOrderNil
	}
	if integration == nil {
		return nil, nil, ErrIntegrationNil
	}
	if integration.Provider != needed {
		return nil, nil, d.managementMismatch(needed, integration.Provider)
	}
	return d.managementBinding(needed)
}

// managementBinding 查找管理端绑定，未知标签视为配置错误
func (d *Dispatcher) managementBinding(needed domain.ManagementTag) (Management, breaker.Breaker, error) {
	impl, ok := d.registry.management[needed]
	if !ok {
		d.logger.Error("unknown management provider tag, refusing to dispatch",
			clog.String("needed", string(needed)))
		return nil, nil, domain.NewManagementError(needed, "no implementation registered", nil)
	}
	return impl, d.registry.breakers[string(needed)], nil
}

// managementMismatch 记录并构造管理端错位错误
func (d *Dispatcher) managementMismatch(needed, given domain.ManagementTag) error {
	d.logger.Error("management integration mismatch, refusing to dispatch",
		clog.String("needed", string(needed)),
		clog.String("given", string(given)))
	if d.mismatchTotal != nil {
		d.mismatchTotal.Inc(context.Background(), metrics.L(LabelProvider, string(needed)))
	}
	return domain.NewManagementError(needed, "integration configured for "+string(given), nil)
}

// observe 记录调用指标与日志
func (d *Dispatcher) observe(ctx context.Context, provider, operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	if d.callsTotal != nil {
		d.callsTotal.Inc(ctx,
			metrics.L(LabelProvider, provider),
			metrics.L(LabelOperation, operation),
			metrics.L(LabelOutcome, outcome))
	}
	if d.callDuration != nil {
		d.callDuration.Record(ctx, elapsed.Seconds(),
			metrics.L(LabelProvider, provider),
			metrics.L(LabelOperation, operation))
	}

	if err != nil {
		d.logger.Warn("provider call failed",
			clog.String("provider", provider),
			clog.String("operation", operation),
			clog.Duration("elapsed", elapsed),
			clog.Error(err))
	} else {
		d.logger.Debug("provider call completed",
			clog.String("provider", provider),
			clog.String("operation", operation),
			clog.Duration("elapsed", elapsed))
	}
}
