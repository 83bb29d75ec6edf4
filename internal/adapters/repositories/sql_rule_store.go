package repositories

import (
	"context"
	"database/sql"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/ports"
	"errors"
	"fmt"
	"time"
)

// SQL-backed implementation of the RuleStore port.
// The same queries serve SQLite (modernc.org/sqlite) and PostgreSQL (pgx stdlib).
type SQLRuleStore struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLRuleStore(db *sql.DB, dialect Dialect) *SQLRuleStore {
	return &SQLRuleStore{DB: db, Dialect: dialect}
}

// Return the settings, rules and holidays stored for shop.
func (s *SQLRuleStore) LoadShop(ctx context.Context, shop string) (_ ports.ShopRecords, err error) {
	defer obs.Time(ctx, "rules.store.LoadShop")(&err)

	if s.DB == nil {
		return ports.ShopRecords{}, errors.New("sql rule store: DB is nil")
	}
	shop = domain.NormalizeShop(shop)

	settings, err := s.loadSettings(ctx, shop)
	if err != nil {
		return ports.ShopRecords{}, err
	}

	rules, err := s.loadRules(ctx, shop)
	if err != nil {
		return ports.ShopRecords{}, err
	}

	holidays, err := s.loadHolidays(ctx, shop)
	if err != nil {
		return ports.ShopRecords{}, err
	}

	return ports.ShopRecords{
		Shop:     shop,
		Rules:    rules,
		Holidays: holidays,
		Settings: settings,
	}, nil
}

func (s *SQLRuleStore) loadSettings(ctx context.Context, shop string) (ports.SettingsRecord, error) {
	q := s.Dialect.rebind(`
	SELECT
		aggregation_policy,
		product_enabled,
		cart_enabled,
		checkout_enabled
	FROM shop_settings
	WHERE shop = ?;
	`)

	var rec ports.SettingsRecord
	err := s.DB.QueryRowContext(ctx, q, shop).Scan(
		&rec.Policy,
		&rec.ProductEnabled,
		&rec.CartEnabled,
		&rec.CheckoutEnabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.SettingsRecord{}, fmt.Errorf("load settings: shop %q: %w", shop, domain.ErrShopNotFound)
	}
	if err != nil {
		return ports.SettingsRecord{}, fmt.Errorf("load settings: query shop_settings table: %w", err)
	}

	return rec, nil
}

func (s *SQLRuleStore) loadRules(ctx context.Context, shop string) ([]ports.RuleRecord, error) {
	q := s.Dialect.rebind(`
	SELECT
		id, name, active, priority, countries, regions, postal_codes,
		carrier, cutoff_time, timezone, min_days, max_days, processing_days,
		exclude_weekends, exclude_holidays, message_template, display, created_at
	FROM delivery_rules
	WHERE shop = ?
		AND active = ?
	ORDER BY priority DESC, created_at DESC, id;
	`)

	rows, err := s.DB.QueryContext(ctx, q, shop, true)
	if err != nil {
		return nil, fmt.Errorf("load rules: query delivery_rules table: %w", err)
	}
	defer rows.Close()

	rules := make([]ports.RuleRecord, 0, 16)
	for rows.Next() {
		var r ports.RuleRecord
		var createdAt string
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Active, &r.Priority, &r.Countries, &r.Regions, &r.PostalCodes,
			&r.Carrier, &r.CutoffTime, &r.Timezone, &r.MinDays, &r.MaxDays, &r.ProcessingDays,
			&r.ExcludeWeekends, &r.ExcludeHolidays, &r.MessageTemplate, &r.Display, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("load rules: scan row: %w", err)
		}

		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("load rules: rule id=%q: parse created_at %q: %w", r.ID, createdAt, err)
		}
		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rules: row iteration: %w", err)
	}

	return rules, nil
}

func (s *SQLRuleStore) loadHolidays(ctx context.Context, shop string) ([]ports.HolidayRecord, error) {
	q := s.Dialect.rebind(`
	SELECT
		name,
		holiday_date,
		recurring,
		country
	FROM holidays
	WHERE shop = ?
	ORDER BY holiday_date;
	`)

	rows, err := s.DB.QueryContext(ctx, q, shop)
	if err != nil {
		return nil, fmt.Errorf("load holidays: query holidays table: %w", err)
	}
	defer rows.Close()

	holidays := make([]ports.HolidayRecord, 0, 16)
	for rows.Next() {
		var h ports.HolidayRecord
		if err := rows.Scan(&h.Name, &h.Date, &h.Recurring, &h.Country); err != nil {
			return nil, fmt.Errorf("load holidays: scan row: %w", err)
		}
		holidays = append(holidays, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load holidays: row iteration: %w", err)
	}

	return holidays, nil
}
