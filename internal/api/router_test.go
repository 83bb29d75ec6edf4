package api

import (
	"context"
	"delivery-eta-service/internal/adapters/repositories"
	"delivery-eta-service/internal/api/dto"
	"delivery-eta-service/internal/ports"
	"delivery-eta-service/internal/services"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

const testShop = "demo.myshopify.com"

func testRecords() ports.ShopRecords {
	return ports.ShopRecords{
		Shop: testShop,
		Rules: []ports.RuleRecord{
			{
				ID:              "us-standard",
				Name:            "US standard",
				Active:          true,
				Priority:        10,
				CreatedAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				Countries:       `["US"]`,
				Carrier:         "USPS",
				CutoffTime:      "14:00",
				MinDays:         2,
				MaxDays:         3,
				ProcessingDays:  1,
				ExcludeWeekends: true,
				ExcludeHolidays: true,
				MessageTemplate: "Arrives {date_range}",
			},
		},
		Settings: ports.SettingsRecord{
			Policy:          "latest",
			ProductEnabled:  true,
			CartEnabled:     true,
			CheckoutEnabled: false,
		},
	}
}

type fakeInvalidator struct {
	shops []string
	err   error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, shop string) error {
	f.shops = append(f.shops, shop)
	return f.err
}

func newTestRouter(t *testing.T, opts RouterOptions) http.Handler {
	t.Helper()

	if opts.Snapshots == nil {
		store := repositories.NewMemoryRuleStore(testRecords())
		opts.Snapshots = services.NewSnapshotLoader(store, nil, nil)
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	}
	return NewRouter(opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestRouter(t, RouterOptions{}), http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestAdminCalculate(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	rr := do(t, h, http.MethodPost, "/admin/shops/"+testShop+"/eta", `{"country_code":"us"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	env := decode[dto.ETAEnvelope](t, rr)
	if !env.Success || env.ETA == nil {
		t.Fatalf("envelope = %+v", env)
	}
	if env.ETA.MinDate != "2025-03-13" || env.ETA.MaxDate != "2025-03-14" {
		t.Fatalf("window = %s..%s", env.ETA.MinDate, env.ETA.MaxDate)
	}
	if env.ETA.Message != "Arrives Mar 13 - Mar 14" || env.ETA.RuleID != "us-standard" {
		t.Fatalf("eta = %+v", env.ETA)
	}
}

func TestAdminCalculateOrderDateOverride(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	rr := do(t, h, http.MethodPost, "/admin/shops/"+testShop+"/eta",
		`{"country_code":"US","order_date":"2025-03-10T15:00:00Z"}`)

	env := decode[dto.ETAEnvelope](t, rr)
	if env.ETA == nil || env.ETA.MinDate != "2025-03-14" || env.ETA.MaxDate != "2025-03-17" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestAdminCalculateNoRule(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	rr := do(t, h, http.MethodPost, "/admin/shops/"+testShop+"/eta", `{"country_code":"FR"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	env := decode[dto.ETAEnvelope](t, rr)
	if env.Success || env.Error != dto.ErrCodeNoRule || env.Message != "No delivery rule found for this location" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestStorefrontProductNoRuleIsQuiet(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	rr := do(t, h, http.MethodPost, "/storefront/shops/"+testShop+"/eta", `{"country_code":"FR"}`)
	env := decode[dto.ETAEnvelope](t, rr)
	if rr.Code != http.StatusOK || env.Success || env.Message != "" {
		t.Fatalf("status=%d envelope=%+v", rr.Code, env)
	}
}

func TestValidationErrors(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	tests := []struct {
		name string
		path string
		body string
	}{
		{"missing country", "/storefront/shops/" + testShop + "/eta", `{"region":"CA"}`},
		{"unknown field", "/storefront/shops/" + testShop + "/eta", `{"country_code":"US","bogus":1}`},
		{"trailing data", "/admin/shops/" + testShop + "/eta", `{"country_code":"US"}{}`},
		{"not json", "/admin/shops/" + testShop + "/eta", `country=US`},
		{"empty cart", "/storefront/shops/" + testShop + "/cart", `{"country_code":"US","items":[]}`},
		{"cart missing country", "/storefront/shops/" + testShop + "/cart", `{"items":[{"product_id":"p1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, tt.path, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if env := decode[dto.ETAEnvelope](t, rr); env.Error != dto.ErrCodeValidation {
				t.Fatalf("error = %q", env.Error)
			}
		})
	}
}

func TestUnknownShop(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	rr := do(t, h, http.MethodPost, "/storefront/shops/missing.myshopify.com/eta", `{"country_code":"US"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if env := decode[dto.ETAEnvelope](t, rr); env.Error != dto.ErrCodeShopNotFound {
		t.Fatalf("error = %q", env.Error)
	}
}

func TestCartAggregates(t *testing.T) {
	h := newTestRouter(t, RouterOptions{CartConcurrency: 3})

	body := `{"country_code":"US","items":[
		{"product_id":"p1","variant_id":"v1","quantity":1},
		{"product_id":"p2","quantity":2},
		{"product_id":"p3","quantity":1}
	]}`
	rr := do(t, h, http.MethodPost, "/storefront/shops/"+testShop+"/cart", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	env := decode[dto.CartEnvelope](t, rr)
	if !env.Success || env.Policy != "latest" || env.MatchedLines != 3 {
		t.Fatalf("envelope = %+v", env)
	}
	if env.ETA == nil || env.ETA.MaxDate != "2025-03-14" {
		t.Fatalf("aggregated = %+v", env.ETA)
	}
	if len(env.Lines) != 3 || env.Lines[0].ProductID != "p1" || env.Lines[2].ProductID != "p3" {
		t.Fatalf("lines = %+v", env.Lines)
	}
}

func TestCheckoutDisabled(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	rr := do(t, h, http.MethodPost, "/storefront/shops/"+testShop+"/checkout",
		`{"country_code":"US","items":[{"product_id":"p1"}]}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	if env := decode[dto.CartEnvelope](t, rr); env.Success || env.Error != dto.ErrCodeNotEnabled {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestProductDisabled(t *testing.T) {
	rec := testRecords()
	rec.Settings.ProductEnabled = false
	loader := services.NewSnapshotLoader(repositories.NewMemoryRuleStore(rec), nil, nil)
	h := newTestRouter(t, RouterOptions{Snapshots: loader})

	rr := do(t, h, http.MethodPost, "/storefront/shops/"+testShop+"/eta", `{"country_code":"US"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}

	// Admin previews ignore surface flags.
	rr = do(t, h, http.MethodPost, "/admin/shops/"+testShop+"/eta", `{"country_code":"US"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rr.Code)
	}
}

func TestCorruptedRuleIsInternalError(t *testing.T) {
	rec := testRecords()
	rec.Rules[0].MinDays, rec.Rules[0].MaxDays = 6, 2
	loader := services.NewSnapshotLoader(repositories.NewMemoryRuleStore(rec), nil, nil)
	h := newTestRouter(t, RouterOptions{Snapshots: loader})

	rr := do(t, h, http.MethodPost, "/admin/shops/"+testShop+"/eta", `{"country_code":"US"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestRouter(t, RouterOptions{StorefrontRPS: 0.001, StorefrontBurst: 1})

	first := do(t, h, http.MethodPost, "/storefront/shops/"+testShop+"/eta", `{"country_code":"US"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}

	second := do(t, h, http.MethodPost, "/storefront/shops/"+testShop+"/eta", `{"country_code":"US"}`)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	// One token per 1000s: the client must wait far longer than a second.
	if secs, err := strconv.Atoi(second.Header().Get("Retry-After")); err != nil || secs < 900 {
		t.Fatalf("Retry-After = %q", second.Header().Get("Retry-After"))
	}

	// Admin routes are not rate limited.
	admin := do(t, h, http.MethodPost, "/admin/shops/"+testShop+"/eta", `{"country_code":"US"}`)
	if admin.Code != http.StatusOK {
		t.Fatalf("admin status = %d", admin.Code)
	}
}

func TestInvalidateCache(t *testing.T) {
	inv := &fakeInvalidator{}
	h := newTestRouter(t, RouterOptions{Invalidator: inv})

	rr := do(t, h, http.MethodPost, "/admin/shops/"+testShop+"/cache/invalidate", "")
	if rr.Code != http.StatusOK || len(inv.shops) != 1 || inv.shops[0] != testShop {
		t.Fatalf("status=%d shops=%v", rr.Code, inv.shops)
	}

	inv.err = errors.New("redis down")
	rr = do(t, h, http.MethodPost, "/admin/shops/"+testShop+"/cache/invalidate", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := do(t, newTestRouter(t, RouterOptions{}), http.MethodGet, "/storefront/shops/"+testShop+"/eta", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}

func TestLimiterStoreSeparatesClients(t *testing.T) {
	s := newLimiterStore(0.001, 1)

	if !s.get("10.0.0.1").Allow() || !s.get("10.0.0.2").Allow() {
		t.Fatalf("each client should get its own burst")
	}
	if s.get("10.0.0.1").Allow() {
		t.Fatalf("second request from same client should be limited")
	}
}

func TestOrderDateFormats(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	tests := []struct {
		name    string
		body    string
		wantMin string
		wantMax string
	}{
		{"date only is start of day UTC", `{"country_code":"US","order_date":"2025-03-10"}`, "2025-03-13", "2025-03-14"},
		{"timestamp with offset", `{"country_code":"US","order_date":"2025-03-10T10:30:00-05:00"}`, "2025-03-14", "2025-03-17"},
		{"null falls back to clock", `{"country_code":"US","order_date":null}`, "2025-03-13", "2025-03-14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/admin/shops/"+testShop+"/eta", tt.body)
			env := decode[dto.ETAEnvelope](t, rr)
			if rr.Code != http.StatusOK || env.ETA == nil {
				t.Fatalf("status=%d envelope=%+v", rr.Code, env)
			}
			if env.ETA.MinDate != tt.wantMin || env.ETA.MaxDate != tt.wantMax {
				t.Fatalf("window = %s..%s, want %s..%s", env.ETA.MinDate, env.ETA.MaxDate, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestOrderDateRejectsOtherFormats(t *testing.T) {
	h := newTestRouter(t, RouterOptions{})

	for _, body := range []string{
		`{"country_code":"US","order_date":"2025/03/10"}`,
		`{"country_code":"US","order_date":20250310}`,
		`{"country_code":"US","items":[{"product_id":"p1"}],"order_date":"March 10"}`,
	} {
		path := "/admin/shops/" + testShop + "/eta"
		if strings.Contains(body, "items") {
			path = "/storefront/shops/" + testShop + "/cart"
		}

		rr := do(t, h, http.MethodPost, path, body)
		env := decode[dto.ETAEnvelope](t, rr)
		if rr.Code != http.StatusBadRequest || env.Message != dto.ErrInvalidOrderDate.Error() {
			t.Fatalf("body %s: status=%d envelope=%+v", body, rr.Code, env)
		}
	}
}

func TestMalformedHolidayIsInternalError(t *testing.T) {
	rec := testRecords()
	rec.Holidays = []ports.HolidayRecord{{Name: "Closure", Date: "2025/03/13"}}
	loader := services.NewSnapshotLoader(repositories.NewMemoryRuleStore(rec), nil, nil)
	h := newTestRouter(t, RouterOptions{Snapshots: loader})

	rr := do(t, h, http.MethodPost, "/storefront/shops/"+testShop+"/eta", `{"country_code":"US"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if env := decode[dto.ETAEnvelope](t, rr); env.Error != dto.ErrCodeInternal {
		t.Fatalf("error = %q", env.Error)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := newTestRouter(t, RouterOptions{StorefrontRPS: 0, StorefrontBurst: 1})

	for i := 0; i < 20; i++ {
		rr := do(t, h, http.MethodPost, "/storefront/shops/"+testShop+"/eta", `{"country_code":"US"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rr.Code)
		}
	}
}
