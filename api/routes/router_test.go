package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	"github.com/angelmondragon/marketplace-ledger/pkg/auth"
	"github.com/angelmondragon/marketplace-ledger/pkg/config"
	"github.com/angelmondragon/marketplace-ledger/pkg/metrics"
)

type apiHarness struct {
	t       *testing.T
	cfg     *config.Config
	handler http.Handler
}

func newHarness(t *testing.T) *apiHarness {
	t.Helper()
	cfg := &config.Config{
		App:      config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT:      config.JWTConfig{Secret: "secret", Issuer: "marketplace-test", ExpirationMinutes: 60},
		Currency: config.CurrencyConfig{Code: "USD", Exponent: 2},
	}
	reg := prometheus.NewRegistry()
	ledger, err := marketplace.NewLedger(marketplace.NewMemoryStore(), marketplace.WithObserver(metrics.NewLedgerMetrics(reg)))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return &apiHarness{t: t, cfg: cfg, handler: NewRouter(cfg, nil, ledger, nil, nil, reg)}
}

func (h *apiHarness) do(caller uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != uuid.Nil {
		token, err := auth.MintAccessToken(h.cfg.JWT, time.Now(), caller)
		if err != nil {
			h.t.Fatalf("mint token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *apiHarness) expect(rec *httptest.ResponseRecorder, status int) {
	h.t.Helper()
	if rec.Code != status {
		h.t.Fatalf("expected status %d got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func (h *apiHarness) expectError(rec *httptest.ResponseRecorder, status int, code string) {
	h.t.Helper()
	h.expect(rec, status)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		h.t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != code {
		h.t.Fatalf("expected code %s got %s", code, envelope.Error.Code)
	}
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

type amountBody struct {
	Minor    uint64 `json:"minor"`
	Decimal  string `json:"decimal"`
	Currency string `json:"currency"`
}

type orderBody struct {
	Index    uint32     `json:"index"`
	Status   string     `json:"status"`
	Quantity uint32     `json:"quantity"`
	Total    amountBody `json:"total"`
	Seller   uuid.UUID  `json:"seller"`
	Buyer    uuid.UUID  `json:"buyer"`
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	h := newHarness(t)
	h.expect(h.do(uuid.Nil, http.MethodGet, "/health/live", ""), http.StatusOK)
	h.expect(h.do(uuid.Nil, http.MethodGet, "/health/ready", ""), http.StatusOK)

	h.do(uuid.New(), http.MethodGet, "/api/v1/users", "")
	rec := h.do(uuid.Nil, http.MethodGet, "/metrics", "")
	h.expect(rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "marketplace_ledger_operations_total") {
		t.Fatalf("expected ledger metrics to be exported, got:\n%s", rec.Body.String())
	}
}

func TestLedgerRoutesRequireToken(t *testing.T) {
	h := newHarness(t)
	h.expectError(h.do(uuid.Nil, http.MethodGet, "/api/v1/users", ""), http.StatusUnauthorized, "UNAUTHORIZED")
	h.expectError(h.do(uuid.Nil, http.MethodPost, "/api/v1/orders", `{"listing_index":0,"quantity":1}`), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestMarketplaceFlowOverHTTP(t *testing.T) {
	h := newHarness(t)
	seller, buyer := uuid.New(), uuid.New()

	h.expect(h.do(seller, http.MethodPost, "/api/v1/users", `{"name":"Ana","contact":"ana@example.com"}`), http.StatusCreated)
	h.expect(h.do(seller, http.MethodPost, "/api/v1/users/me/roles", `{"role":"seller"}`), http.StatusOK)
	h.expect(h.do(buyer, http.MethodPost, "/api/v1/users", `{"name":"Bo","contact":"bo@example.com"}`), http.StatusCreated)
	h.expect(h.do(buyer, http.MethodPost, "/api/v1/users/me/roles", `{"role":"buyer"}`), http.StatusOK)

	h.expectError(h.do(buyer, http.MethodPost, "/api/v1/users", `{"name":"Bo","contact":"other@example.com"}`), http.StatusConflict, "CONFLICT")
	h.expectError(h.do(buyer, http.MethodPost, "/api/v1/users/me/roles", `{"role":"admin"}`), http.StatusBadRequest, "VALIDATION_ERROR")

	me := decodeData[struct {
		ID    uuid.UUID `json:"id"`
		Roles []string  `json:"roles"`
	}](t, h.do(seller, http.MethodGet, "/api/v1/users/me", ""))
	if me.ID != seller || len(me.Roles) != 1 || me.Roles[0] != "seller" {
		t.Fatalf("unexpected current user %+v", me)
	}
	byContact := decodeData[struct {
		ID uuid.UUID `json:"id"`
	}](t, h.do(buyer, http.MethodGet, "/api/v1/users/by-contact?contact=bo%40example.com", ""))
	if byContact.ID != buyer {
		t.Fatalf("expected buyer by contact, got %s", byContact.ID)
	}

	h.expect(h.do(seller, http.MethodPost, "/api/v1/categories", `{"name":"  Libros "}`), http.StatusCreated)
	category := decodeData[struct {
		Index uint32 `json:"index"`
		Name  string `json:"name"`
	}](t, h.do(buyer, http.MethodGet, "/api/v1/categories/lookup?name=LIBROS", ""))
	if category.Index != 0 || category.Name != "libros" {
		t.Fatalf("unexpected category %+v", category)
	}

	h.expect(h.do(seller, http.MethodPost, "/api/v1/products", `{"name":"Rust Book","description":"desc","category":"Libros","stock":10}`), http.StatusCreated)
	h.expectError(h.do(buyer, http.MethodPost, "/api/v1/products", `{"name":"Go Book","description":"desc","category":"Libros","stock":1}`), http.StatusForbidden, "FORBIDDEN")

	listing := decodeData[struct {
		Index     uint32     `json:"index"`
		Stock     uint32     `json:"stock"`
		UnitPrice amountBody `json:"unit_price"`
		Active    bool       `json:"active"`
	}](t, h.do(seller, http.MethodPost, "/api/v1/listings", `{"product_index":0,"stock":5,"unit_price":"1.00"}`))
	if listing.Stock != 5 || listing.UnitPrice.Minor != 100 || listing.UnitPrice.Decimal != "1.00" || !listing.Active {
		t.Fatalf("unexpected listing %+v", listing)
	}
	product := decodeData[struct {
		Stock uint32 `json:"stock"`
	}](t, h.do(buyer, http.MethodGet, "/api/v1/products/0", ""))
	if product.Stock != 5 {
		t.Fatalf("expected product stock 5 got %d", product.Stock)
	}

	created := h.do(buyer, http.MethodPost, "/api/v1/orders", `{"listing_index":0,"quantity":2}`)
	h.expect(created, http.StatusCreated)
	order := decodeData[orderBody](t, created)
	if order.Status != "pending" || order.Total.Minor != 200 || order.Total.Decimal != "2.00" || order.Seller != seller || order.Buyer != buyer {
		t.Fatalf("unexpected order %+v", order)
	}

	h.expectError(h.do(buyer, http.MethodPost, "/api/v1/orders/0/receive", ""), http.StatusUnprocessableEntity, "STATE_CONFLICT")
	h.expectError(h.do(buyer, http.MethodPost, "/api/v1/orders/0/ship", ""), http.StatusForbidden, "FORBIDDEN")

	shipped := decodeData[orderBody](t, h.do(seller, http.MethodPost, "/api/v1/orders/0/ship", ""))
	if shipped.Status != "shipped" {
		t.Fatalf("expected shipped got %s", shipped.Status)
	}
	received := decodeData[orderBody](t, h.do(buyer, http.MethodPost, "/api/v1/orders/0/receive", ""))
	if received.Status != "received" {
		t.Fatalf("expected received got %s", received.Status)
	}
	h.expectError(h.do(buyer, http.MethodPost, "/api/v1/orders/0/cancel", `{"buyer_consent":true,"seller_consent":true}`), http.StatusUnprocessableEntity, "STATE_CONFLICT")

	h.expectError(h.do(buyer, http.MethodPost, "/api/v1/orders", `{"listing_index":0,"quantity":4}`), http.StatusUnprocessableEntity, "STATE_CONFLICT")
	h.expectError(h.do(buyer, http.MethodPost, "/api/v1/orders", `{"listing_index":0,"quantity":0}`), http.StatusBadRequest, "VALIDATION_ERROR")

	orders := decodeData[[]orderBody](t, h.do(buyer, http.MethodGet, "/api/v1/orders", ""))
	if len(orders) != 1 {
		t.Fatalf("failed orders must leave no trace, got %d orders", len(orders))
	}
}

func TestCancelRequiresBothConsents(t *testing.T) {
	h := newHarness(t)
	seller, buyer := uuid.New(), uuid.New()
	h.expect(h.do(seller, http.MethodPost, "/api/v1/users", `{"name":"S","contact":"s@example.com"}`), http.StatusCreated)
	h.expect(h.do(seller, http.MethodPost, "/api/v1/users/me/roles", `{"role":"seller"}`), http.StatusOK)
	h.expect(h.do(buyer, http.MethodPost, "/api/v1/users", `{"name":"B","contact":"b@example.com"}`), http.StatusCreated)
	h.expect(h.do(buyer, http.MethodPost, "/api/v1/users/me/roles", `{"role":"buyer"}`), http.StatusOK)
	h.expect(h.do(seller, http.MethodPost, "/api/v1/categories", `{"name":"Ropa"}`), http.StatusCreated)
	h.expect(h.do(seller, http.MethodPost, "/api/v1/products", `{"name":"Shirt","description":"","category":"ropa","stock":3}`), http.StatusCreated)
	h.expect(h.do(seller, http.MethodPost, "/api/v1/listings", `{"product_index":0,"stock":3,"unit_price":"9.99"}`), http.StatusCreated)
	h.expect(h.do(buyer, http.MethodPost, "/api/v1/orders", `{"listing_index":0,"quantity":1}`), http.StatusCreated)

	h.expectError(h.do(buyer, http.MethodPost, "/api/v1/orders/0/cancel", `{"buyer_consent":true}`), http.StatusBadRequest, "VALIDATION_ERROR")
	h.expectError(h.do(uuid.New(), http.MethodPost, "/api/v1/orders/0/cancel", `{"buyer_consent":true,"seller_consent":true}`), http.StatusForbidden, "FORBIDDEN")

	cancelled := decodeData[orderBody](t, h.do(seller, http.MethodPost, "/api/v1/orders/0/cancel", `{"buyer_consent":true,"seller_consent":true}`))
	if cancelled.Status != "cancelled" || cancelled.Total.Decimal != "9.99" {
		t.Fatalf("unexpected cancelled order %+v", cancelled)
	}

	listing := decodeData[struct {
		Stock uint32 `json:"stock"`
	}](t, h.do(buyer, http.MethodGet, "/api/v1/listings/0", ""))
	if listing.Stock != 2 {
		t.Fatalf("cancellation must not restore stock, got %d", listing.Stock)
	}
}

func TestRequestValidation(t *testing.T) {
	h := newHarness(t)
	caller := uuid.New()
	h.expectError(h.do(caller, http.MethodGet, "/api/v1/orders/abc", ""), http.StatusBadRequest, "VALIDATION_ERROR")
	h.expectError(h.do(caller, http.MethodGet, "/api/v1/users/not-a-uuid", ""), http.StatusBadRequest, "VALIDATION_ERROR")
	h.expectError(h.do(caller, http.MethodGet, "/api/v1/users/by-contact", ""), http.StatusBadRequest, "VALIDATION_ERROR")
	h.expectError(h.do(caller, http.MethodPost, "/api/v1/listings", `{"product_index":0,"stock":1,"unit_price":"1.005"}`), http.StatusBadRequest, "VALIDATION_ERROR")
	h.expectError(h.do(caller, http.MethodPost, "/api/v1/products", `{"name":"   ","category":"x","stock":1}`), http.StatusBadRequest, "VALIDATION_ERROR")
	h.expectError(h.do(caller, http.MethodGet, "/api/v1/orders/7", ""), http.StatusNotFound, "NOT_FOUND")
}

func TestNilLedgerReportsUnavailable(t *testing.T) {
	h := newHarness(t)
	h.handler = NewRouter(h.cfg, nil, nil, nil, nil, prometheus.NewRegistry())
	caller := uuid.New()

	h.expectError(h.do(caller, http.MethodGet, "/api/v1/users", ""), http.StatusInternalServerError, "INTERNAL_ERROR")
	h.expectError(h.do(caller, http.MethodPost, "/api/v1/orders", `{"listing_index":0,"quantity":1}`), http.StatusInternalServerError, "INTERNAL_ERROR")
}
