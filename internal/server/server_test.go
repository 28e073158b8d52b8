package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/datner/renu-sub001/alert"
	"github.com/datner/renu-sub001/breaker"
	"github.com/datner/renu-sub001/dedup"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/internal/provider"
	"github.com/datner/renu-sub001/internal/reconcile"
	"github.com/datner/renu-sub001/xerrors"
)

// ========================================
// 测试替身 (Test Doubles)
// ========================================

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func (f *memOrders) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *memOrders) SetOrderState(ctx context.Context, id string, from, to domain.OrderState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.State == to {
		return nil
	}
	if o.State != from || !from.CanTransition(to) {
		return domain.ErrInvalidTransition
	}
	o.State = to
	return nil
}

func (f *memOrders) SetTransactionID(ctx context.Context, id string, transactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.TransactionID != "" && o.TransactionID != transactionID {
		return domain.ErrTransactionIDSet
	}
	o.TransactionID = transactionID
	return nil
}

type memIntegrations struct {
	clearing   map[string]*domain.ClearingIntegration
	management map[string]*domain.ManagementIntegration
}

func (f *memIntegrations) GetClearingIntegration(ctx context.Context, id string) (*domain.ClearingIntegration, error) {
	i, ok := f.clearing[id]
	if !ok {
		return nil, domain.ErrIntegrationNotFound
	}
	return i, nil
}

func (f *memIntegrations) GetManagementIntegrationByVenue(ctx context.Context, venueID string) (*domain.ManagementIntegration, error) {
	i, ok := f.management[venueID]
	if !ok {
		return nil, domain.ErrIntegrationNotFound
	}
	return i, nil
}

type stubClearing struct {
	tag domain.ClearingTag
	txn *domain.Transaction
}

func (s *stubClearing) Tag() domain.ClearingTag { return s.tag }

func (s *stubClearing) GetClearingPageLink(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (string, error) {
	return "https://pay.example.com/" + order.ID, nil
}

func (s *stubClearing) ValidateTransaction(ctx context.Context, order *domain.Order, integration *domain.ClearingIntegration) (*domain.Transaction, error) {
	return s.txn, nil
}

type stubManagement struct {
	tag       domain.ManagementTag
	reportErr error
	status    domain.ProviderOrderStatus
}

func (s *stubManagement) Tag() domain.ManagementTag { return s.tag }

func (s *stubManagement) ReportOrder(ctx context.Context, order *domain.Order, integration *domain.ManagementIntegration) error {
	return s.reportErr
}

func (s *stubManagement) GetOrderStatus(ctx context.Context, order *domain.Order, integration *domain.ManagementIntegration) (domain.ProviderOrderStatus, error) {
	return s.status, nil
}

func (s *stubManagement) GetVenueMenu(ctx context.Context, venueID string, integration *domain.ManagementIntegration) (*domain.Menu, error) {
	return &domain.Menu{VenueID: venueID}, nil
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) Notify(ctx context.Context, a *alert.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
}

func (n *countingNotifier) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

// ========================================
// 测试夹具 (Fixtures)
// ========================================

type fixture struct {
	server *Server
	orders *memOrders
	alerts *countingNotifier
	dorix  *stubManagement
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orders := &memOrders{orders: map[string]*domain.Order{
		"order-1": {ID: "order-1", VenueID: "venue-1", State: domain.OrderStateUnconfirmed, Total: 12550},
	}}
	integrations := &memIntegrations{
		clearing: map[string]*domain.ClearingIntegration{
			"int-1": {ID: "int-1", VenueID: "venue-1", Provider: domain.ClearingPayPlus},
		},
		management: map[string]*domain.ManagementIntegration{
			"venue-1": {ID: "int-2", VenueID: "venue-1", Provider: domain.ManagementDorix},
		},
	}

	bindings := provider.Bindings{
		Clearing:   make(map[domain.ClearingTag]provider.Clearing),
		Management: make(map[domain.ManagementTag]provider.Management),
	}
	for _, tag := range domain.AllClearingTags() {
		bindings.Clearing[tag] = &stubClearing{tag: tag, txn: &domain.Transaction{ID: "txn-1", OrderID: "order-1", Amount: 12550, Currency: "ILS"}}
	}
	var dorix *stubManagement
	for _, tag := range domain.AllManagementTags() {
		m := &stubManagement{tag: tag}
		if tag == domain.ManagementDorix {
			dorix = m
		}
		bindings.Management[tag] = m
	}

	registry, err := provider.NewRegistry(&provider.Config{
		Breaker: breaker.Config{
			MaxFailures: 3,
			Cooldown:    10 * time.Second,
			Retry: breaker.RetryConfig{
				InitialInterval: time.Millisecond,
				MaxInterval:     5 * time.Millisecond,
				MaxElapsedTime:  50 * time.Millisecond,
			},
		},
	}, bindings)
	require.NoError(t, err)

	dispatcher, err := provider.NewDispatcher(registry)
	require.NoError(t, err)

	dedupStore, err := dedup.NewMemory(nil)
	require.NoError(t, err)

	alerts := &countingNotifier{}

	pipeline, err := reconcile.New(nil, reconcile.Deps{
		Orders:       orders,
		Integrations: integrations,
		Dispatcher:   dispatcher,
		Dedup:        dedupStore,
		Notifier:     alerts,
	})
	require.NoError(t, err)

	srv, err := New(&Config{Mode: gin.TestMode}, Deps{
		Pipeline: pipeline,
		Registry: registry,
	})
	require.NoError(t, err)

	return &fixture{server: srv, orders: orders, alerts: alerts, dorix: dorix}
}

func (f *fixture) post(path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.server.Engine().ServeHTTP(w, req)
	return w
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	f.server.Engine().ServeHTTP(w, req)
	return w
}

const approvedCallback = `{"transaction":{"status_code":"000","uid":"uid-1","more_info":"order-1","amount":125.5,"currency":"ILS"}}`

// ========================================
// 测试用例 (Test Cases)
// ========================================

// TestWebhookSuccess 测试回调成功路径的完整应答契约
func TestWebhookSuccess(t *testing.T) {
	f := newFixture(t)

	w := f.post("/webhooks/payplus/int-1", approvedCallback)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	order, err := f.orders.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStateConfirmed, order.State)
	require.Equal(t, "txn-1", order.TransactionID)
	require.Equal(t, 0, f.alerts.total())
}

// TestWebhookReplay 测试重复回调仍然 200
func TestWebhookReplay(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusOK, f.post("/webhooks/payplus/int-1", approvedCallback).Code)
	w := f.post("/webhooks/payplus/int-1", approvedCallback)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())
}

// TestWebhookMalformed 测试非法报文：400，零写入，一条告警
func TestWebhookMalformed(t *testing.T) {
	f := newFixture(t)

	w := f.post("/webhooks/payplus/int-1", `{"transaction":{"uid":"u"}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"success":false}`, w.Body.String())
	require.Equal(t, 1, f.alerts.total())

	order, err := f.orders.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStateUnconfirmed, order.State)
	require.Empty(t, order.TransactionID)
}

// TestWebhookHandoffFailureStillAcks 测试管理端故障时仍确认回调，恰好一条告警
func TestWebhookHandoffFailureStillAcks(t *testing.T) {
	f := newFixture(t)
	f.dorix.reportErr = breaker.NonRetryable(xerrors.New("pos down"))
	f.dorix.status = domain.ProviderStatusAwaiting

	w := f.post("/webhooks/payplus/int-1", approvedCallback)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Equal(t, 1, f.alerts.total())

	order, err := f.orders.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	require.Equal(t, "txn-1", order.TransactionID)
	require.Equal(t, domain.OrderStateUnconfirmed, order.State, "AWAITING maps back to unconfirmed")
}

// TestWebhookUnknownIntegration 测试未知集成：500 让供应商重试
func TestWebhookUnknownIntegration(t *testing.T) {
	f := newFixture(t)

	w := f.post("/webhooks/payplus/int-404", approvedCallback)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"success":false}`, w.Body.String())
}

// TestWebhookMethodNotAllowed 测试方法不匹配
func TestWebhookMethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	w := f.get("/webhooks/payplus/int-1")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.JSONEq(t, `{"success":false}`, w.Body.String())
}

// TestUnknownRoute 测试未知路由
func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)

	w := f.get("/nope")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"success":false}`, w.Body.String())
}

// TestHealthz 测试健康检查暴露熔断状态
func TestHealthz(t *testing.T) {
	f := newFixture(t)

	w := f.get("/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string                   `json:"status"`
		Breakers map[string]breaker.State `json:"breakers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Len(t, body.Breakers, len(domain.AllClearingTags())+len(domain.AllManagementTags()))
	for name, state := range body.Breakers {
		require.Equal(t, breaker.StatusClosed, state.Status, "breaker %s should start closed", name)
	}
}
