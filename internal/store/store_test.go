package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/datner/renu-sub001/connector"
	"github.com/datner/renu-sub001/internal/domain"
)

// newTestStore 建一个 SQLite 内存库仓储
func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	conn, err := connector.NewSQLite(&connector.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	s, err := NewGorm(conn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AutoMigrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func seedOrder(t *testing.T, s *GormStore, order *domain.Order) {
	t.Helper()
	if err := s.conn.GetClient().Create(order).Error; err != nil {
		t.Fatal(err)
	}
}

// TestGetOrderNotFound 测试订单不存在
func TestGetOrderNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetOrder(context.Background(), "missing")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

// TestSetOrderState 测试条件状态迁移
func TestSetOrderState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedOrder(t, s, &domain.Order{ID: "order-1", VenueID: "venue-1", State: domain.OrderStateUnconfirmed, Total: 1000})

	if err := s.SetOrderState(ctx, "order-1", domain.OrderStateUnconfirmed, domain.OrderStateConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, err := s.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatal(err)
	}
	if order.State != domain.OrderStateConfirmed {
		t.Errorf("expected CONFIRMED, got: %s", order.State)
	}
}

// TestSetOrderStateIdempotent 测试重复写入相同状态
func TestSetOrderStateIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedOrder(t, s, &domain.Order{ID: "order-1", State: domain.OrderStateConfirmed})

	// 前置状态已经不匹配，但目标状态已达成：幂等成功
	if err := s.SetOrderState(ctx, "order-1", domain.OrderStateUnconfirmed, domain.OrderStateConfirmed); err != nil {
		t.Fatalf("replay should be idempotent, got: %v", err)
	}
	// from == to 直接短路
	if err := s.SetOrderState(ctx, "order-1", domain.OrderStateConfirmed, domain.OrderStateConfirmed); err != nil {
		t.Fatalf("same-state write should be idempotent, got: %v", err)
	}
}

// TestSetOrderStateConflict 测试并发冲突检测
func TestSetOrderStateConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedOrder(t, s, &domain.Order{ID: "order-1", State: domain.OrderStateCancelled})

	err := s.SetOrderState(ctx, "order-1", domain.OrderStateUnconfirmed, domain.OrderStateConfirmed)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

// TestSetOrderStateIllegalTransition 测试状态机校验先于数据库
func TestSetOrderStateIllegalTransition(t *testing.T) {
	s := newTestStore(t)
	err := s.SetOrderState(context.Background(), "order-1", domain.OrderStateDead, domain.OrderStateConfirmed)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

// TestSetTransactionID 测试交易号只写一次
func TestSetTransactionID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedOrder(t, s, &domain.Order{ID: "order-1", State: domain.OrderStateUnconfirmed})

	if err := s.SetTransactionID(ctx, "order-1", "txn-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 相同交易号重放：幂等
	if err := s.SetTransactionID(ctx, "order-1", "txn-1"); err != nil {
		t.Fatalf("replay with same id should be idempotent, got: %v", err)
	}
	// 不同交易号：拒绝覆盖
	err := s.SetTransactionID(ctx, "order-1", "txn-2")
	if !errors.Is(err, domain.ErrTransactionIDSet) {
		t.Fatalf("expected ErrTransactionIDSet, got: %v", err)
	}

	order, _ := s.GetOrder(ctx, "order-1")
	if order.TransactionID != "txn-1" {
		t.Errorf("transaction id should stay txn-1, got: %s", order.TransactionID)
	}
}

// TestIntegrationLookup 测试集成配置读取
func TestIntegrationLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	db := s.conn.GetClient()
	if err := db.Create(&domain.ClearingIntegration{
		ID:         "int-1",
		VenueID:    "venue-1",
		Provider:   domain.ClearingPayPlus,
		VendorData: json.RawMessage(`{"api_key":"k"}`),
	}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&domain.ManagementIntegration{
		ID:         "int-2",
		VenueID:    "venue-1",
		Provider:   domain.ManagementDorix,
		VendorData: json.RawMessage(`{"branch_id":"b"}`),
	}).Error; err != nil {
		t.Fatal(err)
	}

	ci, err := s.GetClearingIntegration(ctx, "int-1")
	if err != nil {
		t.Fatal(err)
	}
	if ci.Provider != domain.ClearingPayPlus {
		t.Errorf("unexpected provider: %s", ci.Provider)
	}

	mi, err := s.GetManagementIntegrationByVenue(ctx, "venue-1")
	if err != nil {
		t.Fatal(err)
	}
	if mi.Provider != domain.ManagementDorix {
		t.Errorf("unexpected provider: %s", mi.Provider)
	}

	if _, err := s.GetClearingIntegration(ctx, "missing"); !errors.Is(err, domain.ErrIntegrationNotFound) {
		t.Errorf("expected ErrIntegrationNotFound, got: %v", err)
	}
}

// TestCachedIntegrations 测试缓存装饰器命中后不再回源
func TestCachedIntegrations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	db := s.conn.GetClient()
	if err := db.Create(&domain.ClearingIntegration{
		ID:       "int-1",
		VenueID:  "venue-1",
		Provider: domain.ClearingGama,
	}).Error; err != nil {
		t.Fatal(err)
	}

	cached, err := NewCachedIntegrations(s, nil)
	if err != nil {
		t.Fatal(err)
	}

	first, err := cached.GetClearingIntegration(ctx, "int-1")
	if err != nil {
		t.Fatal(err)
	}

	// 源头删掉后缓存仍然命中
	if err := db.Delete(&domain.ClearingIntegration{}, "id = ?", "int-1").Error; err != nil {
		t.Fatal(err)
	}
	second, err := cached.GetClearingIntegration(ctx, "int-1")
	if err != nil {
		t.Fatalf("expected cache hit, got: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("unexpected cached value: %+v", second)
	}

	// not-found 不缓存
	if _, err := cached.GetClearingIntegration(ctx, "missing"); !errors.Is(err, domain.ErrIntegrationNotFound) {
		t.Errorf("expected ErrIntegrationNotFound, got: %v", err)
	}
}
