package dedup

import (
	"context"
	"testing"
	"time"
)

// TestMemorySeenAndMark 测试基础登记与查询
func TestMemorySeenAndMark(t *testing.T) {
	store, err := NewMemory(nil)
	if err != nil {
		t.Fatalf("NewMemory should not return error, got: %v", err)
	}

	ctx := context.Background()

	seen, err := store.Seen(ctx, "txn-1")
	if err != nil {
		t.Fatalf("Seen should not return error, got: %v", err)
	}
	if seen {
		t.Error("unmarked key should not be seen")
	}

	if err := store.Mark(ctx, "txn-1", time.Minute); err != nil {
		t.Fatalf("Mark should not return error, got: %v", err)
	}

	seen, _ = store.Seen(ctx, "txn-1")
	if !seen {
		t.Error("marked key should be seen")
	}

	// 其他键不受影响
	seen, _ = store.Seen(ctx, "txn-2")
	if seen {
		t.Error("different key should not be seen")
	}
}

// TestMemoryMarkIdempotent 测试重复登记幂等
func TestMemoryMarkIdempotent(t *testing.T) {
	store, _ := NewMemory(nil)
	ctx := context.Background()

	if err := store.Mark(ctx, "txn-1", time.Minute); err != nil {
		t.Fatalf("Mark should not return error, got: %v", err)
	}
	if err := store.Mark(ctx, "txn-1", time.Minute); err != nil {
		t.Fatalf("second Mark should not return error, got: %v", err)
	}

	seen, _ := store.Seen(ctx, "txn-1")
	if !seen {
		t.Error("key should remain seen after duplicate mark")
	}
}

// TestMemoryEmptyKey 测试空键
func TestMemoryEmptyKey(t *testing.T) {
	store, _ := NewMemory(nil)
	ctx := context.Background()

	if _, err := store.Seen(ctx, ""); err != ErrKeyEmpty {
		t.Errorf("expected ErrKeyEmpty, got: %v", err)
	}
	if err := store.Mark(ctx, "", time.Minute); err != ErrKeyEmpty {
		t.Errorf("expected ErrKeyEmpty, got: %v", err)
	}
}

// TestNewRedisNilConnector 测试 nil 连接器
func TestNewRedisNilConnector(t *testing.T) {
	if _, err := NewRedis(nil, nil); err != ErrConnectorNil {
		t.Errorf("expected ErrConnectorNil, got: %v", err)
	}
}
