package alert

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// TestNewFillsIDAndTimestamp 测试构造函数自动填充
func TestNewFillsIDAndTimestamp(t *testing.T) {
	a := New(SeverityError, "validation failed")
	if a.ID == "" {
		t.Error("expected non-empty id")
	}
	if a.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
	if a.Severity != SeverityError {
		t.Errorf("expected error severity, got: %s", a.Severity)
	}
}

// TestFields 测试构造选项
func TestFields(t *testing.T) {
	raw := []byte(`{"transaction":{}}`)
	a := New(SeverityWarning, "malformed callback",
		WithOrder("order-1", "venue-1"),
		WithProvider("PAY_PLUS"),
		WithCause(errors.New("missing status_code")),
		WithPayload(raw),
	)

	if a.OrderID != "order-1" || a.VenueID != "venue-1" {
		t.Errorf("unexpected order fields: %s/%s", a.OrderID, a.VenueID)
	}
	if a.Provider != "PAY_PLUS" {
		t.Errorf("unexpected provider: %s", a.Provider)
	}
	if a.Cause != "missing status_code" {
		t.Errorf("unexpected cause: %s", a.Cause)
	}
	if string(a.Payload) != string(raw) {
		t.Errorf("unexpected payload: %s", a.Payload)
	}
}

// TestAlertJSONRoundTrip 测试告警事件序列化
func TestAlertJSONRoundTrip(t *testing.T) {
	a := New(SeverityCritical, "integration mismatch", WithOrder("o", "v"))
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal should not return error, got: %v", err)
	}

	var decoded Alert
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal should not return error, got: %v", err)
	}
	if decoded.ID != a.ID || decoded.Message != a.Message {
		t.Error("round trip lost fields")
	}
}

// TestDiscard 测试空实现
func TestDiscard(t *testing.T) {
	// 不应 panic
	Discard().Notify(context.Background(), nil)
	Discard().Notify(context.Background(), New(SeverityInfo, "noop"))
}

// TestLogNotifierNilSafe 测试日志通知器的 nil 安全
func TestLogNotifierNilSafe(t *testing.T) {
	n := NewLog(nil)
	n.Notify(context.Background(), nil)
	n.Notify(context.Background(), New(SeverityInfo, "hello"))
}

// TestNewNATSNilConnector 测试 nil 连接器
func TestNewNATSNilConnector(t *testing.T) {
	if _, err := NewNATS(&Config{}, nil); err == nil {
		t.Error("expected error for nil connector")
	}
}
