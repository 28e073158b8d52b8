package ratelimit

import (
	"context"
	"testing"
)

// TestAllowWithinBurst 测试突发容量内请求放行
func TestAllowWithinBurst(t *testing.T) {
	limiter, err := NewStandalone(nil)
	if err != nil {
		t.Fatalf("NewStandalone should not return error, got: %v", err)
	}

	ctx := context.Background()
	limit := Limit{Rate: 1, Burst: 3}

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "test", limit)
		if err != nil {
			t.Fatalf("Allow should not return error, got: %v", err)
		}
		if !allowed {
			t.Errorf("request %d within burst should be allowed", i)
		}
	}

	// 桶已空，第 4 个请求被拒
	allowed, _ := limiter.Allow(ctx, "test", limit)
	if allowed {
		t.Error("request beyond burst should be rejected")
	}
}

// TestAllowEmptyKey 测试空键
func TestAllowEmptyKey(t *testing.T) {
	limiter, _ := NewStandalone(nil)
	if _, err := limiter.Allow(context.Background(), "", Limit{Rate: 1, Burst: 1}); err != ErrKeyEmpty {
		t.Errorf("expected ErrKeyEmpty, got: %v", err)
	}
}

// TestAllowInvalidLimit 测试无效规则
func TestAllowInvalidLimit(t *testing.T) {
	limiter, _ := NewStandalone(nil)
	if _, err := limiter.Allow(context.Background(), "k", Limit{}); err != ErrInvalidLimit {
		t.Errorf("expected ErrInvalidLimit, got: %v", err)
	}
}

// TestIndependentKeys 测试不同键独立限流
func TestIndependentKeys(t *testing.T) {
	limiter, _ := NewStandalone(nil)
	ctx := context.Background()
	limit := Limit{Rate: 1, Burst: 1}

	allowed, _ := limiter.Allow(ctx, "a", limit)
	if !allowed {
		t.Error("first request for key a should be allowed")
	}
	allowed, _ = limiter.Allow(ctx, "a", limit)
	if allowed {
		t.Error("second request for key a should be rejected")
	}
	// 不同键不受影响
	allowed, _ = limiter.Allow(ctx, "b", limit)
	if !allowed {
		t.Error("first request for key b should be allowed")
	}
}
