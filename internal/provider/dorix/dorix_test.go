package dorix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/internal/provider/httpx"
)

func testIntegration() *domain.ManagementIntegration {
	return &domain.ManagementIntegration{
		ID:         "int-2",
		VenueID:    "venue-1",
		Provider:   domain.ManagementDorix,
		VendorData: json.RawMessage(`{"branch_id": "branch-7", "api_key": "key-2"}`),
	}
}

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(&Config{HTTP: httpx.Config{BaseURL: srv.URL}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// TestReportOrder 测试订单上报
func TestReportOrder(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/order" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key-2" {
			t.Error("missing bearer token")
		}

		var req reportOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.BranchID != "branch-7" || req.OrderID != "order-1" {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Items) != 2 {
			t.Errorf("expected 2 items, got: %d", len(req.Items))
		}
		w.WriteHeader(http.StatusOK)
	}))

	order := &domain.Order{
		ID:    "order-1",
		Total: 5400,
		Items: []domain.OrderItem{
			{Name: "Falafel", Quantity: 2, Price: 1800},
			{Name: "Cola", Quantity: 1, Price: 1800, Comment: "no ice"},
		},
	}
	if err := p.ReportOrder(context.Background(), order, testIntegration()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestGetOrderStatusNormalization 测试状态归一化
func TestGetOrderStatusNormalization(t *testing.T) {
	cases := []struct {
		vendor string
		want   domain.ProviderOrderStatus
	}{
		{"REJECTED", domain.ProviderStatusFailed},
		{"FAILED", domain.ProviderStatusFailed},
		{"OFFLINE", domain.ProviderStatusUnreachable},
		{"PENDING", domain.ProviderStatusAwaiting},
		{"preparing", domain.ProviderOrderStatus("PREPARING")},
	}

	for _, c := range cases {
		status := c.vendor
		p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": status})
		}))

		got, err := p.GetOrderStatus(context.Background(), &domain.Order{ID: "order-1"}, testIntegration())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != c.want {
			t.Errorf("normalizeStatus(%q) = %s, want %s", c.vendor, got, c.want)
		}
	}
}

// TestGetVenueMenu 测试菜单拉取
func TestGetVenueMenu(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/menu" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("branchId") != "branch-7" {
			t.Error("missing branchId query")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "m-1", "name": "Falafel", "price": 1800, "category": "mains"},
			},
		})
	}))

	menu, err := p.GetVenueMenu(context.Background(), "venue-1", testIntegration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if menu.VenueID != "venue-1" || len(menu.Items) != 1 {
		t.Errorf("unexpected menu: %+v", menu)
	}
	if menu.Items[0].Name != "Falafel" || menu.Items[0].Price != 1800 {
		t.Errorf("unexpected item: %+v", menu.Items[0])
	}
}
