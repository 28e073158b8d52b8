// Package reconcile 实现支付回调驱动的订单状态对账管道。
//
// 管道处理清算供应商的 webhook 回调，完成一次订单对账：
// 校验报文 → 去重 → 回查交易 → 写入交易号 → 交接门店管理系统 → 确认订单。
//
// 核心不变式：
//   - 去重登记只在处理完成后写入，失败的回调可以被供应商重试
//   - 管理端交接故障与支付确认隔离：钱已收到，订单不能因 POS 故障丢失，
//     交接失败时告警一次并回查供应商侧状态落库，仍然确认回调
//   - 告警是旁路操作，投递失败不影响主流程
package reconcile

import (
	"context"
	"time"

	"github.com/datner/renu-sub001/alert"
	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/dedup"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/internal/provider"
	"github.com/datner/renu-sub001/internal/store"
	"github.com/datner/renu-sub001/metrics"
	"github.com/datner/renu-sub001/xerrors"
)

// ========================================
// 配置定义 (Configuration)
// ========================================

// Config 对账管道配置
type Config struct {
	// DedupTTL 去重键有效期（默认：24h）
	// 供应商的回调重试窗口远小于该值即可
	DedupTTL time.Duration `json:"dedup_ttl" yaml:"dedup_ttl" mapstructure:"dedup_ttl"`
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.DedupTTL == 0 {
		c.DedupTTL = 24 * time.Hour
	}
}

// Deps 管道依赖
type Deps struct {
	Orders       store.OrderRepository
	Integrations store.IntegrationRepository
	Dispatcher   *provider.Dispatcher
	Dedup        dedup.Store
	Notifier     alert.Notifier
}

// validate 校验依赖完整性
func (d *Deps) validate() error {
	if d.Orders == nil || d.Integrations == nil || d.Dispatcher == nil || d.Dedup == nil || d.Notifier == nil {
		return xerrors.New("reconcile: incomplete dependencies")
	}
	return nil
}

// ========================================
// 管道 (Pipeline)
// ========================================

// Pipeline 回调对账管道
type Pipeline struct {
	cfg    *Config
	deps   Deps
	logger clog.Logger

	callbacksTotal  metrics.Counter
	replaysTotal    metrics.Counter
	handoffFailures metrics.Counter
	duration        metrics.Histogram
}

// New 创建对账管道
func New(cfg *Config, deps Deps, opts ...Option) (*Pipeline, error) {
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

	p := &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: opt.logger,
	}
	if opt.meter != nil {
		p.callbacksTotal, _ = opt.meter.Counter(MetricCallbacksTotal, "回调处理总数")
		p.replaysTotal, _ = opt.meter.Counter(MetricReplaysTotal, "重复回调次数")
		p.handoffFailures, _ = opt.meter.Counter(MetricHandoffFailuresTotal, "管理端交接失败次数")
		p.duration, _ = opt.meter.Histogram(MetricDuration, "单次回调处理耗时", metrics.WithUnit("s"))
	}
	return p, nil
}

// Process 处理一次清算供应商回调
//
// integrationID 来自回调 URL 路径，标识这笔回调属于哪个清算集成；
// raw 是原始请求体。返回的 Outcome 决定 HTTP 应答。
func (p *Pipeline) Process(ctx context.Context, integrationID string, raw []byte) Outcome {
	start := time.Now()
	outcome := p.process(ctx, integrationID, raw)

	if p.callbacksTotal != nil {
		p.callbacksTotal.Inc(ctx, metrics.L(LabelOutcome, outcome.String()))
	}
	if p.duration != nil {
		p.duration.Record(ctx, time.Since(start).Seconds())
	}
	return outcome
}

func (p *Pipeline) process(ctx context.Context, integrationID string, raw []byte) Outcome {
	// 1. 报文解析与校验
	cb, err := ParseCallback(raw)
	if err != nil {
		p.logger.Warn("rejecting malformed callback",
			clog.String("integration_id", integrationID),
			clog.Error(err))
		p.notify(ctx, alert.SeverityError, "malformed payment callback",
			alert.WithCause(err),
			alert.WithPayload(raw))
		return OutcomeMalformed
	}
	txn := &cb.Transaction

	// 2. 去重：同一笔交易的回调只处理一次
	dedupKey := integrationID + ":" + txn.UID
	seen, err := p.deps.Dedup.Seen(ctx, dedupKey)
	if err != nil {
		// 去重存储故障时宁可重复处理，也不丢回调
		p.logger.Error("dedup lookup failed, continuing",
			clog.String("key", dedupKey),
			clog.Error(err))
	}
	if seen {
		p.logger.Info("duplicate callback acknowledged",
			clog.String("transaction_uid", txn.UID),
			clog.String("order_id", txn.OrderID()))
		if p.replaysTotal != nil {
			p.replaysTotal.Inc(ctx)
		}
		return OutcomeReplay
	}

	// 3. 支付失败回调：告警后确认，不碰订单
	if !txn.Approved() {
		p.logger.Warn("provider reported failed payment",
			clog.String("order_id", txn.OrderID()),
			clog.String("status_code", txn.StatusCode))
		p.notify(ctx, alert.SeverityWarning, "payment failed at provider",
			alert.WithOrder(txn.OrderID(), ""),
			alert.WithProvider(string(domain.ClearingPayPlus)),
			alert.WithCause(xerrors.New("status code "+txn.StatusCode)))
		p.mark(ctx, dedupKey)
		return OutcomePaymentFailed
	}

	// 4. 加载订单与清算集成配置
	order, err := p.deps.Orders.GetOrder(ctx, txn.OrderID())
	if err != nil {
		p.logger.Error("order lookup failed",
			clog.String("order_id", txn.OrderID()),
			clog.Error(err))
		p.notify(ctx, alert.SeverityError, "callback for unknown order",
			alert.WithOrder(txn.OrderID(), ""),
			alert.WithCause(err),
			alert.WithPayload(raw))
		return OutcomeError
	}

	integration, err := p.deps.Integrations.GetClearingIntegration(ctx, integrationID)
	if err != nil {
		p.logger.Error("clearing integration lookup failed",
			clog.String("integration_id", integrationID),
			clog.Error(err))
		p.notify(ctx, alert.SeverityError, "callback for unknown integration",
			alert.WithOrder(order.ID, order.VenueID),
			alert.WithCause(err))
		return OutcomeError
	}

	// 5. 回查交易：分发器内置错位防护与熔断
	verified, err := p.deps.Dispatcher.ValidateTransaction(ctx, domain.ClearingPayPlus, order, integration)
	if err != nil {
		var mismatch *domain.ClearingMismatchError
		if xerrors.As(err, &mismatch) {
			p.notify(ctx, alert.SeverityCritical, "clearing integration mismatch",
				alert.WithOrder(order.ID, order.VenueID),
				alert.WithProvider(string(mismatch.Given)),
				alert.WithCause(err))
			return OutcomeError
		}
		p.notify(ctx, alert.SeverityError, "transaction validation failed",
			alert.WithOrder(order.ID, order.VenueID),
			alert.WithProvider(string(domain.ClearingPayPlus)),
			alert.WithCause(err))
		return OutcomeError
	}

	// 6. 写入交易号（只写一次，重放幂等）
	if err := p.deps.Orders.SetTransactionID(ctx, order.ID, verified.ID); err != nil {
		p.logger.Error("failed to persist transaction id",
			clog.String("order_id", order.ID),
			clog.Error(err))
		p.notify(ctx, alert.SeverityError, "failed to persist transaction id",
			alert.WithOrder(order.ID, order.VenueID),
			alert.WithCause(err))
		return OutcomeError
	}

	// 7. 交接门店管理系统（与支付确认隔离）
	state := p.handoff(ctx, order, raw)

	// 8. 落库最终状态
	if err := p.deps.Orders.SetOrderState(ctx, order.ID, order.State, state); err != nil {
		p.logger.Error("failed to persist order state",
			clog.String("order_id", order.ID),
			clog.String("state", string(state)),
			clog.Error(err))
		p.notify(ctx, alert.SeverityError, "failed to persist order state",
			alert.WithOrder(order.ID, order.VenueID),
			alert.WithCause(err))
		return OutcomeError
	}

	p.mark(ctx, dedupKey)
	p.logger.Info("order reconciled",
		clog.String("order_id", order.ID),
		clog.String("transaction_id", verified.ID),
		clog.String("state", string(state)))
	return OutcomeProcessed
}

// handoff 将已支付订单交接给门店管理系统，返回应落库的订单状态
//
// 交接失败不能让回调失败：钱已经收了。失败时告警一次，
// 然后回查供应商侧订单状态，按映射结果落库；回查也失败时
// 保守地确认订单，交给运营跟进。整个分支恰好产生一条告警。
func (p *Pipeline) handoff(ctx context.Context, order *domain.Order, raw []byte) domain.OrderState {
	integration, err := p.deps.Integrations.GetManagementIntegrationByVenue(ctx, order.VenueID)
	if err != nil {
		p.recordHandoffFailure(ctx, "")
		p.notify(ctx, alert.SeverityError, "management integration missing, order needs manual handoff",
			alert.WithOrder(order.ID, order.VenueID),
			alert.WithCause(err))
		return domain.OrderStateConfirmed
	}

	tag := integration.Provider
	err = p.deps.Dispatcher.ReportOrder(ctx, tag, order, integration)
	if err == nil {
		return domain.OrderStateConfirmed
	}
	p.recordHandoffFailure(ctx, string(tag))
	p.logger.Error("order handoff failed, falling back to status query",
		clog.String("order_id", order.ID),
		clog.String("provider", string(tag)),
		clog.Error(err))
	p.notify(ctx, alert.SeverityError, "order handoff to management provider failed",
		alert.WithOrder(order.ID, order.VenueID),
		alert.WithProvider(string(tag)),
		alert.WithCause(err))

	// 回查供应商侧状态，判定订单是否实际送达。
	// 交接失败往往已把该供应商的熔断器打开，常规调用会被拒绝，
	// 这里必须走绕过熔断的探测路径。
	status, err := p.deps.Dispatcher.ProbeOrderStatus(ctx, tag, order, integration)
	if err != nil {
		p.logger.Error("status fallback failed, confirming order for manual follow-up",
			clog.String("order_id", order.ID),
			clog.Error(err))
		return domain.OrderStateConfirmed
	}

	state, known := domain.MapProviderStatus(status)
	if !known {
		p.logger.Warn("unmapped provider order status",
			clog.String("order_id", order.ID),
			clog.String("status", string(status)))
	}
	return state
}

// notify 发送告警（旁路，绝不失败）
func (p *Pipeline) notify(ctx context.Context, severity alert.Severity, message string, fields ...alert.Field) {
	p.deps.Notifier.Notify(ctx, alert.New(severity, message, fields...))
}

// mark 登记去重键，失败只记录日志
func (p *Pipeline) mark(ctx context.Context, key string) {
	if err := p.deps.Dedup.Mark(ctx, key, p.cfg.DedupTTL); err != nil {
		p.logger.Error("failed to mark dedup key",
			clog.String("key", key),
			clog.Error(err))
	}
}

// recordHandoffFailure 记录交接失败指标
func (p *Pipeline) recordHandoffFailure(ctx context.Context, provider string) {
	if p.handoffFailures != nil {
		p.handoffFailures.Inc(ctx, metrics.L(LabelProvider, provider))
	}
}
