package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"frontdesk-order-services/internal/auth"
	"frontdesk-order-services/internal/billing"
	"frontdesk-order-services/internal/catalog"
	"frontdesk-order-services/internal/config"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/engine"
	"frontdesk-order-services/internal/http/handlers"
	"frontdesk-order-services/internal/store/memory"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "router-secret"

type apiFixture struct {
	server  *httptest.Server
	tableID int64
	tokens  map[auth.StaffRole]string
	links   *linkRecorder
}

type linkRecorder struct {
	mu       sync.Mutex
	outletID int64
	invoice  domain.Invoice
}

func (l *linkRecorder) DownloadURL(_ context.Context, outletID int64, invoice domain.Invoice, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outletID = outletID
	l.invoice = invoice
	return "https://files.example/" + invoice.Number + ".pdf", nil
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	st := memory.New()
	table := st.SeedTable(domain.Table{OutletID: 1, FloorID: 1, Label: "T1", Capacity: 4})

	gst := int64(1)
	menu := catalog.NewStatic()
	menu.AddItem(catalog.MenuItem{ID: 1, OutletID: 1, Name: "Veg Thali", Price: decimal.NewFromInt(400), TaxGroupID: &gst, Station: "kitchen"})
	menu.AddItem(catalog.MenuItem{ID: 2, OutletID: 1, Name: "Mojito", Price: decimal.NewFromInt(200), TaxGroupID: &gst, Station: "bar"})
	menu.SetCharges(1, domain.OrderDineIn, billing.Config{
		TaxGroups: map[int64]billing.TaxGroup{1: {ID: 1, Name: "GST 5%", Components: []billing.TaxComponent{
			{Name: "CGST", Rate: decimal.RequireFromString("2.5")},
			{Name: "SGST", Rate: decimal.RequireFromString("2.5")},
		}}},
		ServiceCharge: billing.Charge{Kind: billing.ChargePercentage, Value: decimal.NewFromInt(10)},
	})

	pinHash, err := bcrypt.GenerateFromPassword([]byte("4321"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	cfg := config.Config{Env: "test", JWTSecret: testSecret, VoidPINHash: string(pinHash), Currency: "INR"}

	eng := engine.New(st, menu, menu, &effects.Recorder{}, zap.NewNop(), engine.Options{})
	links := &linkRecorder{}
	router := NewRouter(Deps{
		Handler: &handlers.Handler{Engine: eng, Logger: zap.NewNop(), Config: cfg, Invoices: links},
		Logger:  zap.NewNop(),
		Config:  cfg,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	f := &apiFixture{server: srv, tableID: table.ID, tokens: map[auth.StaffRole]string{}, links: links}
	outlet := "1"
	for i, role := range []auth.StaffRole{auth.RoleCaptain, auth.RoleCashier, auth.RoleKitchen} {
		token, err := auth.IssueAccessToken(auth.Claims{UserID: fmt.Sprint(i + 1), Role: role, OutletID: &outlet}, testSecret, time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		f.tokens[role] = token
	}
	return f
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func (f *apiFixture) call(t *testing.T, role auth.StaffRole, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, ok := f.tokens[role]; ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func expectStatus(t *testing.T, got, want int, env envelope) {
	t.Helper()
	if got != want {
		t.Fatalf("expected status %d, got %d (%s %s)", want, got, env.Error, string(env.Data))
	}
}

type orderPayload struct {
	Order struct {
		ID          int64  `json:"id"`
		Status      string `json:"status"`
		TotalAmount string `json:"totalAmount"`
		DueAmount   string `json:"dueAmount"`
	} `json:"order"`
	Invoice struct {
		ID         int64  `json:"id"`
		GrandTotal string `json:"grandTotal"`
	} `json:"invoice"`
	PaymentStatus string `json:"paymentStatus"`
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, string(env.Data))
	}
}

func (f *apiFixture) openOrder(t *testing.T) int64 {
	t.Helper()
	status, env := f.call(t, auth.RoleCaptain, http.MethodPost, fmt.Sprintf("/api/tables/%d/session", f.tableID), map[string]any{"guestCount": 2}, nil)
	expectStatus(t, status, http.StatusCreated, env)

	status, env = f.call(t, auth.RoleCaptain, http.MethodPost, "/api/orders", map[string]any{
		"tableId":   f.tableID,
		"orderType": "dine_in",
		"items": []map[string]any{
			{"menuItemId": 1, "quantity": 2},
			{"menuItemId": 2, "quantity": 1, "specialInstructions": "no ice"},
		},
	}, nil)
	expectStatus(t, status, http.StatusCreated, env)

	var created orderPayload
	decodeData(t, env, &created)
	if created.Order.ID == 0 || created.Order.TotalAmount != "1000.00" {
		t.Fatalf("unexpected order: %+v", created.Order)
	}
	return created.Order.ID
}

func TestBillAndSettleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	orderID := f.openOrder(t)

	status, env := f.call(t, auth.RoleCaptain, http.MethodPost, fmt.Sprintf("/api/orders/%d/kot", orderID), nil, nil)
	expectStatus(t, status, http.StatusCreated, env)
	var tickets []map[string]any
	decodeData(t, env, &tickets)
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}

	status, env = f.call(t, auth.RoleCashier, http.MethodPost, fmt.Sprintf("/api/orders/%d/bill", orderID), map[string]any{
		"discount": map[string]any{"type": "flat", "value": "100"},
	}, nil)
	expectStatus(t, status, http.StatusCreated, env)
	var bill orderPayload
	decodeData(t, env, &bill)
	if bill.Invoice.GrandTotal != "1035.00" || bill.Order.Status != string(domain.OrderBilled) {
		t.Fatalf("unexpected bill: %+v", bill)
	}

	status, env = f.call(t, auth.RoleKitchen, http.MethodPost, fmt.Sprintf("/api/orders/%d/payments", orderID), map[string]any{
		"invoiceId": bill.Invoice.ID, "mode": "cash", "amount": "1035",
	}, nil)
	expectStatus(t, status, http.StatusForbidden, env)

	status, env = f.call(t, auth.RoleCashier, http.MethodPost, fmt.Sprintf("/api/orders/%d/payments", orderID), map[string]any{
		"invoiceId": bill.Invoice.ID, "mode": "cash", "amount": "0",
	}, nil)
	expectStatus(t, status, http.StatusBadRequest, env)
	if env.Kind != "validation" {
		t.Fatalf("expected validation kind, got %q", env.Kind)
	}

	status, env = f.call(t, auth.RoleCashier, http.MethodPost, fmt.Sprintf("/api/orders/%d/payments", orderID), map[string]any{
		"invoiceId": bill.Invoice.ID, "mode": "cash", "amount": "1035",
	}, nil)
	expectStatus(t, status, http.StatusCreated, env)
	var paid orderPayload
	decodeData(t, env, &paid)
	if paid.PaymentStatus != string(domain.PaymentCompleted) || paid.Order.Status != string(domain.OrderPaid) {
		t.Fatalf("unexpected payment result: %+v", paid)
	}

	status, env = f.call(t, auth.RoleCaptain, http.MethodGet, fmt.Sprintf("/api/tables/%d", f.tableID), nil, nil)
	expectStatus(t, status, http.StatusOK, env)
	var table struct {
		Status string `json:"status"`
	}
	decodeData(t, env, &table)
	if table.Status != string(domain.TableAvailable) {
		t.Fatalf("expected table released, got %s", table.Status)
	}
}

func TestCancelOrderNeedsVoidPIN(t *testing.T) {
	f := newAPIFixture(t)
	orderID := f.openOrder(t)

	status, env := f.call(t, auth.RoleCaptain, http.MethodPost, fmt.Sprintf("/api/orders/%d/kot", orderID), nil, nil)
	expectStatus(t, status, http.StatusCreated, env)

	path := fmt.Sprintf("/api/orders/%d/cancel", orderID)
	status, env = f.call(t, auth.RoleCaptain, http.MethodPost, path, map[string]any{"reason": "guest left"}, nil)
	expectStatus(t, status, http.StatusForbidden, env)
	if env.Error != "VOID_PIN_REQUIRED" || env.Kind != "forbidden" {
		t.Fatalf("expected forbidden VOID_PIN_REQUIRED, got %s %s", env.Kind, env.Error)
	}

	status, env = f.call(t, auth.RoleCaptain, http.MethodPost, path, map[string]any{"reason": "guest left"}, map[string]string{"X-Void-Pin": "0000"})
	expectStatus(t, status, http.StatusForbidden, env)

	status, env = f.call(t, auth.RoleCaptain, http.MethodPost, path, map[string]any{"reason": "guest left"}, map[string]string{"X-Void-Pin": "4321"})
	expectStatus(t, status, http.StatusOK, env)
	var cancelled orderPayload
	decodeData(t, env, &cancelled)
	if cancelled.Order.Status != string(domain.OrderCancelled) {
		t.Fatalf("expected cancelled order, got %s", cancelled.Order.Status)
	}

	status, env = f.call(t, auth.RoleCaptain, http.MethodPost, fmt.Sprintf("/api/orders/%d/items", orderID), map[string]any{
		"items": []map[string]any{{"menuItemId": 1, "quantity": 1}},
	}, nil)
	expectStatus(t, status, http.StatusBadRequest, env)
	if env.Error != "ORDER_TERMINAL" {
		t.Fatalf("expected ORDER_TERMINAL, got %s", env.Error)
	}
}

func TestKitchenFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	orderID := f.openOrder(t)
	status, env := f.call(t, auth.RoleCaptain, http.MethodPost, fmt.Sprintf("/api/orders/%d/kot", orderID), nil, nil)
	expectStatus(t, status, http.StatusCreated, env)

	status, env = f.call(t, auth.RoleKitchen, http.MethodGet, "/api/kots?station=bar&active=true", nil, nil)
	expectStatus(t, status, http.StatusOK, env)
	var bar []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, env, &bar)
	if len(bar) != 1 || bar[0].Status != string(domain.KOTPending) {
		t.Fatalf("expected one pending bar ticket, got %+v", bar)
	}

	for _, step := range []struct {
		action string
		status domain.KOTStatus
	}{
		{"accept", domain.KOTAccepted},
		{"preparing", domain.KOTPreparing},
		{"ready", domain.KOTReady},
	} {
		status, env = f.call(t, auth.RoleKitchen, http.MethodPost, fmt.Sprintf("/api/kots/%d/%s", bar[0].ID, step.action), nil, nil)
		expectStatus(t, status, http.StatusOK, env)
		var ticket struct {
			Status string `json:"status"`
		}
		decodeData(t, env, &ticket)
		if ticket.Status != string(step.status) {
			t.Fatalf("expected %s after %s, got %s", step.status, step.action, ticket.Status)
		}
	}

	status, env = f.call(t, auth.RoleKitchen, http.MethodPost, fmt.Sprintf("/api/kots/%d/accept", bar[0].ID), nil, nil)
	expectStatus(t, status, http.StatusConflict, env)

	status, env = f.call(t, auth.RoleKitchen, http.MethodGet, "/api/kots/abc", nil, nil)
	expectStatus(t, status, http.StatusBadRequest, env)

	status, env = f.call(t, auth.RoleKitchen, http.MethodGet, fmt.Sprintf("/api/tables/%d", f.tableID), nil, nil)
	expectStatus(t, status, http.StatusForbidden, env)
}

func TestRejectsMissingToken(t *testing.T) {
	f := newAPIFixture(t)
	status, env := f.call(t, "", http.MethodGet, "/api/tables", nil, nil)
	expectStatus(t, status, http.StatusUnauthorized, env)
}

func TestInvoiceLinkOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	orderID := f.openOrder(t)
	path := fmt.Sprintf("/api/orders/%d/invoice/link", orderID)

	status, env := f.call(t, auth.RoleCashier, http.MethodGet, path, nil, nil)
	expectStatus(t, status, http.StatusNotFound, env)
	if env.Error != "INVOICE_NOT_FOUND" {
		t.Fatalf("expected INVOICE_NOT_FOUND before billing, got %s", env.Error)
	}

	status, env = f.call(t, auth.RoleCashier, http.MethodPost, fmt.Sprintf("/api/orders/%d/bill", orderID), map[string]any{}, nil)
	expectStatus(t, status, http.StatusCreated, env)
	var bill orderPayload
	decodeData(t, env, &bill)

	status, env = f.call(t, auth.RoleCashier, http.MethodGet, path, nil, nil)
	expectStatus(t, status, http.StatusOK, env)
	var link struct {
		InvoiceID int64  `json:"invoiceId"`
		URL       string `json:"url"`
	}
	decodeData(t, env, &link)
	f.links.mu.Lock()
	defer f.links.mu.Unlock()
	if link.InvoiceID != bill.Invoice.ID || f.links.invoice.ID != bill.Invoice.ID || f.links.outletID != 1 {
		t.Fatalf("expected link for invoice %d, got %+v", bill.Invoice.ID, link)
	}
	if link.URL != "https://files.example/"+f.links.invoice.Number+".pdf" {
		t.Fatalf("unexpected url %s", link.URL)
	}
}
