package breaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock 可手动拨动的时间源（测试辅助）
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testConfig 返回重试间隔极短的测试配置
func testConfig(name string) *Config {
	return &Config{
		Name:        name,
		MaxFailures: 3,
		Cooldown:    10 * time.Second,
		Retry: RetryConfig{
			InitialInterval: time.Millisecond,
			Multiplier:      2.0,
			MaxInterval:     5 * time.Millisecond,
			MaxElapsedTime:  time.Second,
		},
	}
}

// TestNewNilConfig 测试 nil 配置
func TestNewNilConfig(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrConfigNil) {
		t.Errorf("expected ErrConfigNil, got: %v", err)
	}
}

// TestDefaults 测试默认值填充
func TestDefaults(t *testing.T) {
	cfg := &Config{}
	if _, err := New(cfg); err != nil {
		t.Fatalf("New should not return error, got: %v", err)
	}
	if cfg.MaxFailures != 3 {
		t.Errorf("expected default max failures 3, got: %d", cfg.MaxFailures)
	}
	if cfg.Cooldown != 10*time.Second {
		t.Errorf("expected default cooldown 10s, got: %v", cfg.Cooldown)
	}
	if cfg.Retry.InitialInterval != 10*time.Millisecond {
		t.Errorf("expected default initial interval 10ms, got: %v", cfg.Retry.InitialInterval)
	}
	if cfg.Retry.MaxElapsedTime != 30*time.Second {
		t.Errorf("expected default max elapsed 30s, got: %v", cfg.Retry.MaxElapsedTime)
	}
}

// TestOpensAfterConsecutiveFailures 测试连续失败达到阈值后熔断打开
func TestOpensAfterConsecutiveFailures(t *testing.T) {
	clock := newFakeClock()
	brk, err := New(testConfig("test"), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New should not return error, got: %v", err)
	}

	boom := errors.New("boom")
	calls := 0
	_, err = brk.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got: %v", err)
	}
	// 重试在第三次失败（达到阈值）时停止
	if calls != 3 {
		t.Errorf("expected 3 attempts, got: %d", calls)
	}
	if state := brk.State(); state.Status != StatusOpen {
		t.Errorf("expected open state, got: %s", state.Status)
	}
}

// TestOpenRejectsWithoutInvoking 测试打开状态下请求被拒绝且不调用函数
func TestOpenRejectsWithoutInvoking(t *testing.T) {
	clock := newFakeClock()
	brk, _ := New(testConfig("test"), WithClock(clock.Now))

	// 打开熔断器
	_, _ = brk.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	})

	calls := 0
	_, err := brk.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, nil
	})
	if !IsOpen(err) {
		t.Fatalf("expected open error, got: %v", err)
	}
	if calls != 0 {
		t.Errorf("function should not be invoked while open, calls: %d", calls)
	}

	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatal("expected *OpenError")
	}
	if openErr.BreakerName != "test" {
		t.Errorf("expected breaker name test, got: %s", openErr.BreakerName)
	}
}

// TestNonRetryableOpensImmediately 测试不可重试错误立即熔断
func TestNonRetryableOpensImmediately(t *testing.T) {
	clock := newFakeClock()
	brk, _ := New(testConfig("test"), WithClock(clock.Now))

	rejected := errors.New("provider rejected")
	calls := 0
	_, err := brk.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, NonRetryable(rejected)
	})
	if !errors.Is(err, rejected) {
		t.Fatalf("expected rejected, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected single attempt for non-retryable error, got: %d", calls)
	}
	if state := brk.State(); state.Status != StatusOpen {
		t.Errorf("expected open state, got: %s", state.Status)
	}
}

// TestSuccessResetsFailures 测试成功后失败计数复位
func TestSuccessResetsFailures(t *testing.T) {
	clock := newFakeClock()
	brk, _ := New(testConfig("test"), WithClock(clock.Now))

	// 前两次失败，第三次成功：重试内部消化，熔断器保持闭合
	calls := 0
	result, err := brk.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute should not return error, got: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got: %v", result)
	}

	state := brk.State()
	if state.Status != StatusClosed {
		t.Errorf("expected closed state, got: %s", state.Status)
	}
	if state.Failures != 0 {
		t.Errorf("expected failures reset to 0, got: %d", state.Failures)
	}
}

// TestCooldownProbeFailureReopens 测试探测失败立即重新打开
func TestCooldownProbeFailureReopens(t *testing.T) {
	clock := newFakeClock()
	brk, _ := New(testConfig("test"), WithClock(clock.Now))

	// 打开熔断器
	_, _ = brk.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	})

	// 冷却窗口结束
	clock.Advance(11 * time.Second)

	calls := 0
	_, err := brk.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, errors.New("still down")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// 探测请求只放行一次，失败立即重新打开
	if calls != 1 {
		t.Errorf("expected single probe attempt, got: %d", calls)
	}
	if state := brk.State(); state.Status != StatusOpen {
		t.Errorf("expected reopened state, got: %s", state.Status)
	}
}

// TestCooldownProbeSuccessCloses 测试探测成功后熔断器复位
func TestCooldownProbeSuccessCloses(t *testing.T) {
	clock := newFakeClock()
	brk, _ := New(testConfig("test"), WithClock(clock.Now))

	_, _ = brk.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	})

	clock.Advance(11 * time.Second)

	result, err := brk.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Execute should not return error, got: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got: %v", result)
	}

	state := brk.State()
	if state.Status != StatusClosed {
		t.Errorf("expected closed state, got: %s", state.Status)
	}
	if state.Failures != 0 {
		t.Errorf("expected failures 0 after probe success, got: %d", state.Failures)
	}
}

// TestDoPreservesType 测试泛型包装保留返回值类型
func TestDoPreservesType(t *testing.T) {
	clock := newFakeClock()
	brk, _ := New(testConfig("test"), WithClock(clock.Now))

	type payload struct{ ID string }

	got, err := Do(context.Background(), brk, func(ctx context.Context) (*payload, error) {
		return &payload{ID: "abc"}, nil
	})
	if err != nil {
		t.Fatalf("Do should not return error, got: %v", err)
	}
	if got == nil || got.ID != "abc" {
		t.Errorf("expected payload abc, got: %+v", got)
	}
}

// TestIsRetryable 测试错误分类
func TestIsRetryable(t *testing.T) {
	if !IsRetryable(errors.New("net timeout")) {
		t.Error("plain errors should be retryable")
	}
	if IsRetryable(NonRetryable(errors.New("bad request"))) {
		t.Error("marked errors should not be retryable")
	}
	if NonRetryable(nil) != nil {
		t.Error("NonRetryable(nil) should be nil")
	}
	// 包装后仍可识别
	wrapped := NonRetryable(errors.New("inner"))
	if IsRetryable(wrapped) {
		t.Error("wrapped non-retryable should stay non-retryable")
	}
}

// typePunBreaker 返回与调用方声明不符的结果类型（测试辅助）
type typePunBreaker struct{}

func (b *typePunBreaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	return 42, nil
}
func (b *typePunBreaker) State() State { return State{} }
func (b *typePunBreaker) Name() string { return "type-pun" }

// TestDoResultTypeMismatch 测试结果类型不符时返回显式错误而非静默零值
func TestDoResultTypeMismatch(t *testing.T) {
	got, err := Do(context.Background(), &typePunBreaker{}, func(ctx context.Context) (string, error) {
		return "ignored", nil
	})
	if !errors.Is(err, ErrResultType) {
		t.Fatalf("expected ErrResultType, got: %v", err)
	}
	if got != "" {
		t.Errorf("expected zero value, got: %q", got)
	}
}
