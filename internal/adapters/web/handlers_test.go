package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"retail-suite/internal/adapters/web"
	"retail-suite/internal/app"
	"retail-suite/internal/events"
	"retail-suite/internal/store/memory"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()
	svc := app.NewAppService(memory.New(), events.NewRecorder(), zap.NewNop(), "")
	h := web.NewHandler(svc, zap.NewNop(), web.Options{JWTSecret: "test-secret"})
	return &client{t: t, handler: h}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// registerAndLogin creates a company and authenticates as its owner.
func (c *client) registerAndLogin(name string) string {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/companies", map[string]any{
		"name":            name,
		"owner_name":      "Dewi",
		"opening_capital": "200",
		"owner_username":  "owner",
		"owner_password":  "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		c.t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	var reg struct {
		Company struct {
			CompanyCode string `json:"company_code"`
		} `json:"company"`
	}
	decode(c.t, rec, &reg)

	rec = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"company_code": reg.Company.CompanyCode,
		"username":     "owner",
		"password":     "correct-horse",
	})
	if rec.Code != http.StatusOK {
		c.t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "auth_token" {
			c.cookie = ck
		}
	}
	if c.cookie == nil {
		c.t.Fatal("login did not set auth_token cookie")
	}
	return reg.Company.CompanyCode
}

func TestHealthIsPublic(t *testing.T) {
	c := newClient(t)
	rec := c.do(http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
	if id := rec.Header().Get("X-Request-ID"); id == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	c := newClient(t)
	rec := c.do(http.MethodGet, "/api/companies/ABCD-1234/catalog", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	c.cookie = &http.Cookie{Name: "auth_token", Value: "not-a-jwt"}
	rec = c.do(http.MethodGet, "/api/auth/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	c := newClient(t)
	code := c.registerAndLogin("Sunrise Store")
	c.cookie = nil
	rec := c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"company_code": code,
		"username":     "owner",
		"password":     "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestOtherCompanyIsForbidden(t *testing.T) {
	c := newClient(t)
	other := newClient(t)
	other.handler = c.handler
	otherCode := other.registerAndLogin("Harbor Laundry")

	c.registerAndLogin("Sunrise Store")
	rec := c.do(http.MethodGet, "/api/companies/"+otherCode+"/catalog", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCheckoutFlow(t *testing.T) {
	c := newClient(t)
	code := c.registerAndLogin("Sunrise Store")
	base := "/api/companies/" + code

	rec := c.do(http.MethodPost, base+"/catalog", map[string]any{
		"kind":          "product",
		"sku":           "TEA-01",
		"name":          "Jasmine Tea",
		"unit_price":    "10.50",
		"unit_cost":     "6",
		"tracks_stock":  true,
		"opening_stock": 3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create entry: status %d body %s", rec.Code, rec.Body.String())
	}
	var entry struct {
		ID string `json:"id"`
	}
	decode(t, rec, &entry)

	items := []map[string]any{{"entry_id": entry.ID, "quantity": 2}}

	rec = c.do(http.MethodPost, base+"/checkout/quote", map[string]any{"items": items})
	if rec.Code != http.StatusOK {
		t.Fatalf("quote: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = c.do(http.MethodPost, base+"/checkout", map[string]any{
		"items":   items,
		"payment": map[string]any{"method": "cash", "tendered": "50"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: status %d body %s", rec.Code, rec.Body.String())
	}
	var sale struct {
		Transaction struct {
			Number string `json:"number"`
			Status string `json:"status"`
		} `json:"transaction"`
		Rounded struct {
			Total string `json:"total"`
		} `json:"rounded"`
	}
	decode(t, rec, &sale)
	if sale.Transaction.Status != "completed" {
		t.Errorf("status = %s, want completed", sale.Transaction.Status)
	}
	if got := decimal.RequireFromString(sale.Rounded.Total); !got.Equal(decimal.NewFromInt(21)) {
		t.Errorf("rounded total = %s, want 21", sale.Rounded.Total)
	}

	// Only one unit left.
	rec = c.do(http.MethodPost, base+"/checkout", map[string]any{"items": items})
	if rec.Code != http.StatusConflict {
		t.Fatalf("oversell: status %d, want 409", rec.Code)
	}
	var apiErr struct {
		Code string `json:"code"`
	}
	decode(t, rec, &apiErr)
	if apiErr.Code != "INSUFFICIENT_STOCK" {
		t.Errorf("error code = %s, want INSUFFICIENT_STOCK", apiErr.Code)
	}

	rec = c.do(http.MethodGet, base+"/transactions/"+sale.Transaction.Number, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get transaction: status %d", rec.Code)
	}

	rec = c.do(http.MethodPost, base+"/transactions/"+sale.Transaction.Number+"/cancel", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("cancel completed sale: status %d, want 409", rec.Code)
	}

	rec = c.do(http.MethodPost, base+"/transactions/"+sale.Transaction.Number+"/reverse", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reverse: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = c.do(http.MethodGet, base+"/transactions/"+sale.Transaction.Number, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("reversed transaction: status %d, want 404", rec.Code)
	}
}

func TestValidationAndBadInput(t *testing.T) {
	c := newClient(t)
	code := c.registerAndLogin("Sunrise Store")
	base := "/api/companies/" + code

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty cart", http.MethodPost, base + "/checkout", map[string]any{"items": []any{}}, http.StatusBadRequest},
		{"unknown capital movement", http.MethodPost, base + "/capital/gift", map[string]any{"amount": "1"}, http.StatusBadRequest},
		{"overdraw capital", http.MethodPost, base + "/capital/withdraw", map[string]any{"amount": "1000"}, http.StatusConflict},
		{"missing entry", http.MethodGet, base + "/catalog/does-not-exist", nil, http.StatusNotFound},
		{"bad date", http.MethodGet, base + "/reports/sales?from=yesterday", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, base + "/capital?limit=-1", nil, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := c.do(tc.method, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestCashierCannotMoveCapital(t *testing.T) {
	c := newClient(t)
	code := c.registerAndLogin("Sunrise Store")
	base := "/api/companies/" + code

	rec := c.do(http.MethodPost, base+"/users", map[string]any{
		"username": "kasir1",
		"password": "s3cret-pass",
		"role":     "cashier",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"company_code": code,
		"username":     "kasir1",
		"password":     "s3cret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("cashier login: status %d", rec.Code)
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "auth_token" {
			c.cookie = ck
		}
	}

	rec = c.do(http.MethodPost, base+"/capital/deposit", map[string]any{"amount": "10"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("cashier deposit: status %d, want 403", rec.Code)
	}
	rec = c.do(http.MethodGet, base+"/capital", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("cashier read capital: status %d, want 200", rec.Code)
	}
}
