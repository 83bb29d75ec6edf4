package repositories

import (
	"context"
	"database/sql"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/db"
	"delivery-eta-service/internal/ports"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "rules.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return conn
}

func testShops() []ShopSeed {
	inactive := false
	return []ShopSeed{{
		Shop:           "demo.myshopify.com",
		Policy:         "earliest",
		ProductEnabled: true,
		CartEnabled:    true,
		Rules: []RuleSeed{
			{
				ID:          "rule-low",
				Name:        "Low",
				Priority:    1,
				CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				Countries:   []string{"US"},
				MinDays:     3,
				MaxDays:     5,
				CutoffTime:  "14:00",
				Timezone:    "America/New_York",
				PostalCodes: []string{"10001", "10002"},
			},
			{
				ID:        "rule-high",
				Name:      "High",
				Priority:  9,
				CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
				Countries: []string{"US", "CA"},
				Regions:   []string{"NY"},
				MinDays:   1,
				MaxDays:   2,
				Display:   map[string]string{"color": "#fff"},
			},
			{
				ID:        "rule-off",
				Name:      "Disabled",
				Active:    &inactive,
				Priority:  50,
				Countries: []string{"US"},
				MinDays:   1,
				MaxDays:   1,
			},
		},
		Holidays: []HolidaySeed{
			{Name: "Christmas", Date: "2025-12-25", Recurring: true},
			{Name: "Canada Day", Date: "2025-07-01", Country: "ca"},
		},
	}}
}

func TestSQLRuleStoreLoadShop(t *testing.T) {
	conn := newTestDB(t)
	if err := Seed(conn, DialectSQLite, testShops()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := NewSQLRuleStore(conn, DialectSQLite)
	rec, err := store.LoadShop(context.Background(), "demo.myshopify.com")
	if err != nil {
		t.Fatalf("load shop: %v", err)
	}

	if rec.Settings.Policy != "earliest" || !rec.Settings.ProductEnabled || rec.Settings.CheckoutEnabled {
		t.Fatalf("settings = %+v", rec.Settings)
	}

	if len(rec.Rules) != 2 {
		t.Fatalf("rules = %d, want 2 active rules", len(rec.Rules))
	}
	if rec.Rules[0].ID != "rule-high" || rec.Rules[1].ID != "rule-low" {
		t.Fatalf("rule order = %q, %q", rec.Rules[0].ID, rec.Rules[1].ID)
	}
	if rec.Rules[0].Countries != `["US","CA"]` || rec.Rules[0].Display != `{"color":"#fff"}` {
		t.Fatalf("encoded fields = %q / %q", rec.Rules[0].Countries, rec.Rules[0].Display)
	}
	if !rec.Rules[1].CreatedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_at = %s", rec.Rules[1].CreatedAt)
	}
	if rec.Rules[1].Timezone != "America/New_York" || rec.Rules[1].CutoffTime != "14:00" {
		t.Fatalf("rule-low = %+v", rec.Rules[1])
	}

	if len(rec.Holidays) != 2 {
		t.Fatalf("holidays = %+v", rec.Holidays)
	}
	if rec.Holidays[0].Country != "CA" || !rec.Holidays[1].Recurring {
		t.Fatalf("holidays = %+v", rec.Holidays)
	}
}

func TestSQLRuleStoreSeedIsIdempotent(t *testing.T) {
	conn := newTestDB(t)
	shops := testShops()

	if err := Seed(conn, DialectSQLite, shops); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	shops[0].Rules[0].MaxDays = 7
	if err := Seed(conn, DialectSQLite, shops); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	rec, err := NewSQLRuleStore(conn, DialectSQLite).LoadShop(context.Background(), "demo.myshopify.com")
	if err != nil {
		t.Fatalf("load shop: %v", err)
	}
	if len(rec.Rules) != 2 || rec.Rules[1].MaxDays != 7 {
		t.Fatalf("rules after reseed = %+v", rec.Rules)
	}
}

func TestSQLRuleStoreShopIsCaseInsensitive(t *testing.T) {
	conn := newTestDB(t)
	shops := testShops()
	shops[0].Shop = "Demo.MyShopify.com"
	if err := Seed(conn, DialectSQLite, shops); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec, err := NewSQLRuleStore(conn, DialectSQLite).LoadShop(context.Background(), "DEMO.myshopify.com")
	if err != nil {
		t.Fatalf("load shop: %v", err)
	}
	if rec.Shop != "demo.myshopify.com" || len(rec.Rules) != 2 {
		t.Fatalf("records = %+v", rec)
	}
}

func TestSQLRuleStoreUnknownShop(t *testing.T) {
	conn := newTestDB(t)

	_, err := NewSQLRuleStore(conn, DialectSQLite).LoadShop(context.Background(), "missing.myshopify.com")
	if !errors.Is(err, domain.ErrShopNotFound) {
		t.Fatalf("err = %v, want ErrShopNotFound", err)
	}
}

func TestSeedRejectsEmptyIDs(t *testing.T) {
	conn := newTestDB(t)

	err := Seed(conn, DialectSQLite, []ShopSeed{{Shop: "s", Rules: []RuleSeed{{Name: "no id"}}}})
	if err == nil {
		t.Fatalf("expected error for rule without id")
	}
}

func TestDialectRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"

	if got := DialectSQLite.rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
	if got, want := DialectPostgres.rebind(q), "SELECT a FROM t WHERE b = $1 AND c = $2"; got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
}

func TestMemoryRuleStoreReturnsCopies(t *testing.T) {
	store := NewMemoryRuleStore(ports.ShopRecords{
		Shop:  "demo.myshopify.com",
		Rules: []ports.RuleRecord{{ID: "r1", Countries: "US"}},
	})

	first, err := store.LoadShop(context.Background(), "demo.myshopify.com")
	if err != nil {
		t.Fatalf("load shop: %v", err)
	}
	first.Rules[0].ID = "mutated"

	second, _ := store.LoadShop(context.Background(), "demo.myshopify.com")
	if second.Rules[0].ID != "r1" {
		t.Fatalf("stored rule mutated through returned copy")
	}
	if store.Loads() != 2 {
		t.Fatalf("loads = %d, want 2", store.Loads())
	}

	if _, err := store.LoadShop(context.Background(), "nope"); !errors.Is(err, domain.ErrShopNotFound) {
		t.Fatalf("err = %v, want ErrShopNotFound", err)
	}
}
