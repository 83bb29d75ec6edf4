package services

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SnapshotLoader materializes a shop's immutable request snapshot.
//
// It checks the optional cache before reading the store, writes misses back
// to the cache, and decodes stored records once so malformed rule data is
// rejected here rather than inside the calculation path.
type SnapshotLoader struct {
	store  ports.RuleStore
	cache  ports.SnapshotCache
	logger *zap.Logger
}

// NewSnapshotLoader wires a loader. cache may be nil.
func NewSnapshotLoader(store ports.RuleStore, cache ports.SnapshotCache, logger *zap.Logger) *SnapshotLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotLoader{store: store, cache: cache, logger: logger}
}

func (l *SnapshotLoader) Load(ctx context.Context, shop string) (_ domain.Snapshot, err error) {
	defer obs.Time(ctx, "snapshot.Load")(&err)

	shop = domain.NormalizeShop(shop)
	if shop == "" {
		return domain.Snapshot{}, errors.New("load snapshot: shop must not be empty")
	}

	if l.cache != nil {
		rec, ok, err := l.cache.Get(ctx, shop)
		switch {
		case err != nil:
			// A broken cache degrades to store reads.
			obs.SnapshotCache.WithLabelValues(obs.CacheResultError).Inc()
			l.logger.Warn("snapshot cache read failed", zap.String("shop", shop), zap.Error(err))
		case ok:
			obs.SnapshotCache.WithLabelValues(obs.CacheResultHit).Inc()
			return DecodeSnapshot(rec, l.logger)
		default:
			obs.SnapshotCache.WithLabelValues(obs.CacheResultMiss).Inc()
		}
	}

	rec, err := l.store.LoadShop(ctx, shop)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: shop %q: %w", shop, err)
	}

	if l.cache != nil {
		if err := l.cache.Put(ctx, shop, rec); err != nil {
			l.logger.Warn("snapshot cache write failed", zap.String("shop", shop), zap.Error(err))
		}
	}

	return DecodeSnapshot(rec, l.logger)
}

// DecodeSnapshot converts stored records into a sorted, active-only snapshot.
// Rules that cannot be decoded are skipped with a warning. A holiday with an
// unparseable date fails the snapshot with domain.ErrMalformedHoliday.
func DecodeSnapshot(rec ports.ShopRecords, logger *zap.Logger) (domain.Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rules := make([]domain.DeliveryRule, 0, len(rec.Rules))
	for _, rr := range rec.Rules {
		if !rr.Active {
			continue
		}
		r, err := DecodeRule(rr)
		if err != nil {
			obs.SkippedRules.Inc()
			logger.Warn("skipping delivery rule",
				zap.String("shop", rec.Shop),
				zap.String("rule_id", rr.ID),
				zap.Error(err),
			)
			continue
		}
		rules = append(rules, r)
	}
	SortRules(rules)

	holidays := make([]domain.Holiday, 0, len(rec.Holidays))
	for _, hr := range rec.Holidays {
		d, err := domain.ParseDate(strings.TrimSpace(hr.Date))
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("decode snapshot: shop %q holiday %q: %w: %v",
				rec.Shop, hr.Name, domain.ErrMalformedHoliday, err)
		}
		holidays = append(holidays, domain.Holiday{
			Name:      hr.Name,
			Date:      d,
			Recurring: hr.Recurring,
			Country:   domain.NormalizeCode(hr.Country),
		})
	}

	return domain.Snapshot{
		Shop:     rec.Shop,
		Rules:    rules,
		Holidays: holidays,
		Settings: domain.ShopSettings{
			Shop:            rec.Shop,
			Policy:          domain.ParsePolicy(rec.Settings.Policy),
			ProductEnabled:  rec.Settings.ProductEnabled,
			CartEnabled:     rec.Settings.CartEnabled,
			CheckoutEnabled: rec.Settings.CheckoutEnabled,
		},
	}, nil
}

// DecodeRule decodes one stored rule. Errors wrap domain.ErrMalformedRule.
// Day-count consistency is not checked here: a rule with min_days > max_days
// decodes and fails loudly when projected.
func DecodeRule(rr ports.RuleRecord) (domain.DeliveryRule, error) {
	countries, err := decodeList(rr.Countries)
	if err != nil {
		return domain.DeliveryRule{}, fmt.Errorf("%w: countries: %v", domain.ErrMalformedRule, err)
	}
	if len(countries) == 0 {
		return domain.DeliveryRule{}, fmt.Errorf("%w: countries: empty", domain.ErrMalformedRule)
	}

	regions, err := decodeList(rr.Regions)
	if err != nil {
		return domain.DeliveryRule{}, fmt.Errorf("%w: regions: %v", domain.ErrMalformedRule, err)
	}

	postal, err := decodeList(rr.PostalCodes)
	if err != nil {
		return domain.DeliveryRule{}, fmt.Errorf("%w: postal codes: %v", domain.ErrMalformedRule, err)
	}

	loc := time.UTC
	if tz := strings.TrimSpace(rr.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return domain.DeliveryRule{}, fmt.Errorf("%w: timezone %q: %v", domain.ErrMalformedRule, tz, err)
		}
	}

	var cutoff *domain.Cutoff
	if ct := strings.TrimSpace(rr.CutoffTime); ct != "" {
		c, err := domain.ParseCutoff(ct)
		if err != nil {
			return domain.DeliveryRule{}, fmt.Errorf("%w: %v", domain.ErrMalformedRule, err)
		}
		cutoff = &c
	}

	var display map[string]string
	if d := strings.TrimSpace(rr.Display); d != "" {
		if err := json.Unmarshal([]byte(d), &display); err != nil {
			return domain.DeliveryRule{}, fmt.Errorf("%w: display: %v", domain.ErrMalformedRule, err)
		}
	}

	return domain.DeliveryRule{
		ID:              rr.ID,
		Name:            rr.Name,
		Active:          rr.Active,
		Priority:        rr.Priority,
		CreatedAt:       rr.CreatedAt,
		Countries:       domain.NewCountrySet(countries),
		Regions:         domain.NewStringSet(regions, domain.NormalizeCode),
		PostalCodes:     domain.NewStringSet(postal, domain.NormalizePostalCode),
		Carrier:         rr.Carrier,
		Cutoff:          cutoff,
		Location:        loc,
		MinDays:         rr.MinDays,
		MaxDays:         rr.MaxDays,
		ProcessingDays:  rr.ProcessingDays,
		ExcludeWeekends: rr.ExcludeWeekends,
		ExcludeHolidays: rr.ExcludeHolidays,
		MessageTemplate: rr.MessageTemplate,
		Display:         display,
	}, nil
}

// decodeList accepts a JSON string array or a comma-separated list.
// Blank input decodes to an empty list.
func decodeList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" || raw == "null" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	}

	if strings.ContainsAny(raw, "{}\"") {
		return nil, fmt.Errorf("decode list: unexpected characters in %q", raw)
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
