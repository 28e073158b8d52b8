package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/metrics"
)

// circuitBreaker 熔断器实现（非导出）
//
// 状态机只有两个状态：
//   - closed: 正常放行，failures 记录连续可重试失败次数
//   - open:   快速失败，openedUntil 之前的请求全部拒绝
//
// 冷却窗口结束后的首个请求作为探测放行。探测时 failures 被置为
// MaxFailures-1，因此探测失败会立即重新打开，探测成功则完全复位。
type circuitBreaker struct {
	cfg    *Config
	logger clog.Logger
	meter  metrics.Meter
	now    func() time.Time

	mu          sync.Mutex
	open        bool
	failures    int
	openedUntil time.Time
}

// newBreaker 创建熔断器实例（内部函数）
func newBreaker(cfg *Config, opt *options) Breaker {
	cb := &circuitBreaker{
		cfg:    cfg,
		logger: opt.logger.With(clog.String("breaker", cfg.Name)),
		meter:  opt.meter,
		now:    opt.clock,
	}

	cb.logger.Info("circuit breaker created",
		clog.Int("max_failures", cfg.MaxFailures),
		clog.Duration("cooldown", cfg.Cooldown))

	return cb
}

// Execute 执行受熔断保护的函数
func (cb *circuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	start := cb.now()

	if err := cb.admit(); err != nil {
		cb.countMetric(ctx, MetricRejectsTotal, "Rejected requests")
		return nil, err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = cb.cfg.Retry.InitialInterval
	expo.Multiplier = cb.cfg.Retry.Multiplier
	expo.MaxInterval = cb.cfg.Retry.MaxInterval

	operation := func() (any, error) {
		// 重试前重新检查状态：并发请求可能已经把熔断器打开
		if err := cb.admit(); err != nil {
			return nil, backoff.Permanent(err)
		}

		result, err := fn(ctx)
		if err == nil {
			cb.onSuccess()
			return result, nil
		}

		retryable := IsRetryable(err)
		opened := cb.onFailure(retryable)
		if !retryable || opened {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxElapsedTime(cb.cfg.Retry.MaxElapsedTime),
	)

	cb.recordMetrics(ctx, err, cb.now().Sub(start))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// State 返回当前状态快照
func (cb *circuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.open && cb.now().Before(cb.openedUntil) {
		return State{Status: StatusOpen, OpenedUntil: cb.openedUntil}
	}
	if cb.open {
		// 冷却已过但尚未有探测请求：对外呈现为闭合
		return State{Status: StatusClosed, Failures: cb.cfg.MaxFailures - 1}
	}
	return State{Status: StatusClosed, Failures: cb.failures}
}

// Name 返回熔断器名称
func (cb *circuitBreaker) Name() string {
	return cb.cfg.Name
}

// admit 决定请求是否放行
// 冷却窗口结束后将状态切回闭合（探测模式）并放行。
func (cb *circuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return nil
	}

	if cb.now().Before(cb.openedUntil) {
		return &OpenError{BreakerName: cb.cfg.Name, Until: cb.openedUntil}
	}

	// 冷却结束：切回闭合，留出单次失败余量作为探测
	cb.open = false
	cb.failures = cb.cfg.MaxFailures - 1
	cb.openedUntil = time.Time{}
	cb.logger.Info("circuit breaker probing after cooldown")
	cb.recordStateChange(StatusOpen, StatusClosed)

	return nil
}

// onSuccess 成功后完全复位失败计数
func (cb *circuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
}

// onFailure 记录一次失败，返回熔断器是否因此打开
func (cb *circuitBreaker) onFailure(retryable bool) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.open {
		return true
	}

	if !retryable {
		cb.trip()
		return true
	}

	cb.failures++
	if cb.failures >= cb.cfg.MaxFailures {
		cb.trip()
		return true
	}
	return false
}

// trip 打开熔断器，调用方必须持有锁
func (cb *circuitBreaker) trip() {
	cb.open = true
	cb.failures = 0
	cb.openedUntil = cb.now().Add(cb.cfg.Cooldown)

	cb.logger.Warn("circuit breaker opened",
		clog.Time("until", cb.openedUntil))
	cb.recordStateChange(StatusClosed, StatusOpen)
}

// recordStateChange 记录状态变更指标
func (cb *circuitBreaker) recordStateChange(from, to Status) {
	if cb.meter == nil {
		return
	}
	counter, err := cb.meter.Counter(MetricStateChanges, "Circuit breaker state changes")
	if err == nil && counter != nil {
		counter.Add(context.Background(), 1,
			metrics.L(LabelBreaker, cb.cfg.Name),
			metrics.L(LabelFromState, from.String()),
			metrics.L(LabelToState, to.String()))
	}
}

// countMetric 记录单个计数指标
func (cb *circuitBreaker) countMetric(ctx context.Context, name, desc string) {
	if cb.meter == nil {
		return
	}
	if counter, err := cb.meter.Counter(name, desc); err == nil && counter != nil {
		counter.Add(ctx, 1, metrics.L(LabelBreaker, cb.cfg.Name))
	}
}

// recordMetrics 记录请求级指标
func (cb *circuitBreaker) recordMetrics(ctx context.Context, err error, duration time.Duration) {
	if cb.meter == nil {
		return
	}

	cb.countMetric(ctx, MetricRequestsTotal, "Total requests")

	if histogram, e := cb.meter.Histogram(MetricRequestDuration, "Request duration", metrics.WithUnit("s")); e == nil && histogram != nil {
		histogram.Record(ctx, duration.Seconds(), metrics.L(LabelBreaker, cb.cfg.Name))
	}

	switch {
	case err == nil:
		cb.countMetric(ctx, MetricSuccessTotal, "Successful requests")
	case IsOpen(err):
		cb.countMetric(ctx, MetricRejectsTotal, "Rejected requests")
	default:
		cb.countMetric(ctx, MetricFailuresTotal, "Failed requests")
	}
}
