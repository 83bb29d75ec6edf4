package repositories

import (
	"database/sql"
	"delivery-eta-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Initialize the rule store schema. The DDL is portable between SQLite and
// PostgreSQL; timestamps are stored as RFC 3339 text.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createSettingsQuery := `
	CREATE TABLE IF NOT EXISTS shop_settings (
		shop TEXT PRIMARY KEY,
		aggregation_policy TEXT NOT NULL DEFAULT 'latest',
		product_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		cart_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		checkout_enabled BOOLEAN NOT NULL DEFAULT TRUE
	);
	`

	createRulesQuery := `
	CREATE TABLE IF NOT EXISTS delivery_rules (
		id TEXT PRIMARY KEY,
		shop TEXT NOT NULL,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		priority INTEGER NOT NULL DEFAULT 0,
		countries TEXT NOT NULL,
		regions TEXT NOT NULL DEFAULT '',
		postal_codes TEXT NOT NULL DEFAULT '',
		carrier TEXT NOT NULL DEFAULT '',
		cutoff_time TEXT NOT NULL DEFAULT '',
		timezone TEXT NOT NULL DEFAULT '',
		min_days INTEGER NOT NULL,
		max_days INTEGER NOT NULL,
		processing_days INTEGER NOT NULL DEFAULT 0,
		exclude_weekends BOOLEAN NOT NULL DEFAULT TRUE,
		exclude_holidays BOOLEAN NOT NULL DEFAULT TRUE,
		message_template TEXT NOT NULL DEFAULT '',
		display TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`

	createHolidaysQuery := `
	CREATE TABLE IF NOT EXISTS holidays (
		shop TEXT NOT NULL,
		holiday_date TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (shop, holiday_date, country)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_delivery_rules_shop_active
	ON delivery_rules(shop, active);
	`

	statements := []string{
		createSettingsQuery,
		createRulesQuery,
		createHolidaysQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type RuleSeed struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Active          *bool             `json:"active"`
	Priority        int               `json:"priority"`
	CreatedAt       time.Time         `json:"created_at"`
	Countries       []string          `json:"countries"`
	Regions         []string          `json:"regions"`
	PostalCodes     []string          `json:"postal_codes"`
	Carrier         string            `json:"carrier"`
	CutoffTime      string            `json:"cutoff_time"`
	Timezone        string            `json:"timezone"`
	MinDays         int               `json:"min_days"`
	MaxDays         int               `json:"max_days"`
	ProcessingDays  int               `json:"processing_days"`
	ExcludeWeekends bool              `json:"exclude_weekends"`
	ExcludeHolidays bool              `json:"exclude_holidays"`
	MessageTemplate string            `json:"message_template"`
	Display         map[string]string `json:"display"`
}

type HolidaySeed struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
	Country   string `json:"country"`
}

type ShopSeed struct {
	Shop            string        `json:"shop"`
	Policy          string        `json:"aggregation_policy"`
	ProductEnabled  bool          `json:"product_enabled"`
	CartEnabled     bool          `json:"cart_enabled"`
	CheckoutEnabled bool          `json:"checkout_enabled"`
	Rules           []RuleSeed    `json:"rules"`
	Holidays        []HolidaySeed `json:"holidays"`
}

// Populate the database with shops, rules and holidays from a JSON file.
func SeedFromJSON(db *sql.DB, dialect Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed shops: read %q: %w", jsonPath, err)
	}

	var data []ShopSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed shops: parse json: %w", err)
	}

	return Seed(db, dialect, data)
}

// Seed upserts the given shops in a single transaction. Shop domains are
// stored normalized (see domain.NormalizeShop).
func Seed(db *sql.DB, dialect Dialect, shops []ShopSeed) error {
	if db == nil {
		return errors.New("seed shops: DB is nil")
	}

	for i, s := range shops {
		if strings.TrimSpace(s.Shop) == "" {
			return fmt.Errorf("seed shops: shop at index %d: shop cannot be empty", i+1)
		}
		for j, r := range s.Rules {
			if strings.TrimSpace(r.ID) == "" {
				return fmt.Errorf("seed shops: shop %q rule at index %d: id cannot be empty", s.Shop, j+1)
			}
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed shops: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	settingsStmt, err := tx.Prepare(dialect.rebind(`
	INSERT INTO shop_settings (
		shop, aggregation_policy, product_enabled, cart_enabled, checkout_enabled
	)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (shop) DO UPDATE SET
		aggregation_policy = excluded.aggregation_policy,
		product_enabled = excluded.product_enabled,
		cart_enabled = excluded.cart_enabled,
		checkout_enabled = excluded.checkout_enabled;
	`))
	if err != nil {
		return fmt.Errorf("seed shops: prepare settings insert: %w", err)
	}
	defer settingsStmt.Close()

	ruleStmt, err := tx.Prepare(dialect.rebind(`
	INSERT INTO delivery_rules (
		id, shop, name, active, priority, countries, regions, postal_codes,
		carrier, cutoff_time, timezone, min_days, max_days, processing_days,
		exclude_weekends, exclude_holidays, message_template, display, created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		shop = excluded.shop,
		name = excluded.name,
		active = excluded.active,
		priority = excluded.priority,
		countries = excluded.countries,
		regions = excluded.regions,
		postal_codes = excluded.postal_codes,
		carrier = excluded.carrier,
		cutoff_time = excluded.cutoff_time,
		timezone = excluded.timezone,
		min_days = excluded.min_days,
		max_days = excluded.max_days,
		processing_days = excluded.processing_days,
		exclude_weekends = excluded.exclude_weekends,
		exclude_holidays = excluded.exclude_holidays,
		message_template = excluded.message_template,
		display = excluded.display,
		created_at = excluded.created_at;
	`))
	if err != nil {
		return fmt.Errorf("seed shops: prepare rule insert: %w", err)
	}
	defer ruleStmt.Close()

	holidayStmt, err := tx.Prepare(dialect.rebind(`
	INSERT INTO holidays (shop, holiday_date, country, name, recurring)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (shop, holiday_date, country) DO UPDATE SET
		name = excluded.name,
		recurring = excluded.recurring;
	`))
	if err != nil {
		return fmt.Errorf("seed shops: prepare holiday insert: %w", err)
	}
	defer holidayStmt.Close()

	for _, s := range shops {
		s.Shop = domain.NormalizeShop(s.Shop)
		if _, err := settingsStmt.Exec(s.Shop, s.Policy, s.ProductEnabled, s.CartEnabled, s.CheckoutEnabled); err != nil {
			return fmt.Errorf("seed shops: insert settings shop=%q: %w", s.Shop, err)
		}

		for _, r := range s.Rules {
			active := true
			if r.Active != nil {
				active = *r.Active
			}
			createdAt := r.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now().UTC()
			}

			if _, err := ruleStmt.Exec(
				r.ID, s.Shop, r.Name, active, r.Priority,
				encodeList(r.Countries), encodeList(r.Regions), encodeList(r.PostalCodes),
				r.Carrier, r.CutoffTime, r.Timezone, r.MinDays, r.MaxDays, r.ProcessingDays,
				r.ExcludeWeekends, r.ExcludeHolidays, r.MessageTemplate, encodeDisplay(r.Display),
				createdAt.Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("seed shops: insert rule id=%q: %w", r.ID, err)
			}
		}

		for _, h := range s.Holidays {
			if _, err := holidayStmt.Exec(s.Shop, h.Date, strings.ToUpper(strings.TrimSpace(h.Country)), h.Name, h.Recurring); err != nil {
				return fmt.Errorf("seed shops: insert holiday shop=%q date=%q: %w", s.Shop, h.Date, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed shops: commit tx: %w", err)
	}

	return nil
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func encodeDisplay(d map[string]string) string {
	if len(d) == 0 {
		return ""
	}
	b, _ := json.Marshal(d)
	return string(b)
}
