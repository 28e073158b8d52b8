package xerrors

import (
	"testing"
)

// TestWrapNil 测试包装 nil 错误
func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "context"); err != nil {
		t.Fatalf("Wrap(nil) should return nil, got: %v", err)
	}
	if err := Wrapf(nil, "context %d", 1); err != nil {
		t.Fatalf("Wrapf(nil) should return nil, got: %v", err)
	}
}

// TestWrapPreservesChain 测试包装保留错误链
func TestWrapPreservesChain(t *testing.T) {
	base := New("base failure")
	wrapped := Wrap(base, "while doing work")

	if !Is(wrapped, base) {
		t.Fatal("wrapped error should match base via Is")
	}
	if wrapped.Error() != "while doing work: base failure" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

// TestWithTag 测试标签包装与提取
func TestWithTag(t *testing.T) {
	base := New("remote refused")
	tagged := WithTag(base, "ClearingError")

	if got := GetTag(tagged); got != "ClearingError" {
		t.Errorf("expected tag ClearingError, got: %s", got)
	}
	if !Is(tagged, base) {
		t.Fatal("tagged error should preserve the cause chain")
	}

	// 外层再包装一次，标签仍可提取
	rewrapped := Wrap(tagged, "pipeline")
	if got := GetTag(rewrapped); got != "ClearingError" {
		t.Errorf("expected tag through wrap, got: %s", got)
	}
}

// TestGetTagAbsent 测试无标签错误
func TestGetTagAbsent(t *testing.T) {
	if got := GetTag(New("plain")); got != "" {
		t.Errorf("expected empty tag, got: %s", got)
	}
	if got := GetTag(nil); got != "" {
		t.Errorf("expected empty tag for nil, got: %s", got)
	}
}

// TestMust 测试 Must 的 panic 行为
func TestMust(t *testing.T) {
	if v := Must(42, nil); v != 42 {
		t.Errorf("Must should pass through value, got: %d", v)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("Must with error should panic")
		}
	}()
	Must(0, New("boom"))
}
