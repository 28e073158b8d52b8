package payplus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/datner/renu-sub001/breaker"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/internal/provider/httpx"
)

func testIntegration() *domain.ClearingIntegration {
	return &domain.ClearingIntegration{
		ID:       "int-1",
		VenueID:  "venue-1",
		Provider: domain.ClearingPayPlus,
		VendorData: json.RawMessage(`{
			"api_key": "key-1",
			"secret_key": "secret-1",
			"payment_page_uid": "page-1"
		}`),
	}
}

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(&Config{
		HTTP:        httpx.Config{BaseURL: srv.URL},
		CallbackURL: "https://gateway.example.com/webhooks/payplus/int-1",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// TestGetClearingPageLink 测试生成支付页链接
func TestGetClearingPageLink(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1.0/PaymentPages/generateLink" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("api-key") != "key-1" || r.Header.Get("secret-key") != "secret-1" {
			t.Error("missing auth headers")
		}

		var req generateLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.MoreInfo != "order-1" {
			t.Errorf("order id should be carried in more_info, got: %s", req.MoreInfo)
		}
		if req.Amount != 125.5 {
			t.Errorf("expected amount 125.5, got: %v", req.Amount)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{"status": "success", "code": "0"},
			"data":    map[string]any{"payment_page_link": "https://payplus.example.com/page-1"},
		})
	}))

	order := &domain.Order{ID: "order-1", Total: 12550}
	link, err := p.GetClearingPageLink(context.Background(), order, testIntegration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link != "https://payplus.example.com/page-1" {
		t.Errorf("unexpected link: %s", link)
	}
}

// TestValidateTransactionApproved 测试交易校验通过
func TestValidateTransactionApproved(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"transaction_uid": "txn-9",
				"status_code":     "000",
				"amount":          125.5,
				"currency":        "ILS",
			},
		})
	}))

	order := &domain.Order{ID: "order-1", Total: 12550}
	txn, err := p.ValidateTransaction(context.Background(), order, testIntegration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.ID != "txn-9" || txn.Amount != 12550 {
		t.Errorf("unexpected transaction: %+v", txn)
	}
}

// TestValidateTransactionAmountMismatch 测试金额不符被拒绝且不可重试
func TestValidateTransactionAmountMismatch(t *testing.T) {
	calls := 0
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"transaction_uid": "txn-9",
				"status_code":     "000",
				"amount":          99.0,
				"currency":        "ILS",
			},
		})
	}))

	order := &domain.Order{ID: "order-1", Total: 12550}
	_, err := p.ValidateTransaction(context.Background(), order, testIntegration())

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got: %v", err)
	}
	if breaker.IsRetryable(err) {
		t.Error("validation failure should be non-retryable")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got: %d", calls)
	}
}

// TestValidateTransactionRejectedStatus 测试非 000 状态码
func TestValidateTransactionRejectedStatus(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"transaction_uid": "txn-9", "status_code": "053", "amount": 125.5},
		})
	}))

	order := &domain.Order{ID: "order-1", Total: 12550}
	_, err := p.ValidateTransaction(context.Background(), order, testIntegration())

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got: %v", err)
	}
}

// TestServerErrorIsRetryable 测试 5xx 保持可重试
func TestServerErrorIsRetryable(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	order := &domain.Order{ID: "order-1", Total: 12550}
	_, err := p.ValidateTransaction(context.Background(), order, testIntegration())
	if err == nil {
		t.Fatal("expected error")
	}
	if !breaker.IsRetryable(err) {
		t.Error("5xx should stay retryable")
	}

	var cerr *domain.ClearingError
	if !errors.As(err, &cerr) || cerr.Provider != domain.ClearingPayPlus {
		t.Errorf("expected tagged clearing error, got: %v", err)
	}
}

// TestClientErrorIsNonRetryable 测试 4xx 标记为不可重试
func TestClientErrorIsNonRetryable(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	order := &domain.Order{ID: "order-1", Total: 12550}
	_, err := p.ValidateTransaction(context.Background(), order, testIntegration())
	if err == nil {
		t.Fatal("expected error")
	}
	if breaker.IsRetryable(err) {
		t.Error("4xx should be non-retryable")
	}
}

// TestInvalidVendorConfig 测试供应商配置缺失
func TestInvalidVendorConfig(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made with invalid vendor config")
	}))

	integration := testIntegration()
	integration.VendorData = json.RawMessage(`{"api_key": "key-1"}`)

	order := &domain.Order{ID: "order-1", Total: 12550}
	_, err := p.ValidateTransaction(context.Background(), order, integration)
	if err == nil {
		t.Fatal("expected error")
	}
	if breaker.IsRetryable(err) {
		t.Error("config defect should be non-retryable")
	}
}
