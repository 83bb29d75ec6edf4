package ports

import (
	"context"
	"time"
)

// Stored form of a delivery rule. List-valued fields (countries, regions,
// postal codes) and display styling are kept as the opaque text the store
// holds; they are decoded when a snapshot is built.
type RuleRecord struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Active          bool      `json:"active"`
	Priority        int       `json:"priority"`
	CreatedAt       time.Time `json:"created_at"`
	Countries       string    `json:"countries"`
	Regions         string    `json:"regions"`
	PostalCodes     string    `json:"postal_codes"`
	Carrier         string    `json:"carrier"`
	CutoffTime      string    `json:"cutoff_time"`
	Timezone        string    `json:"timezone"`
	MinDays         int       `json:"min_days"`
	MaxDays         int       `json:"max_days"`
	ProcessingDays  int       `json:"processing_days"`
	ExcludeWeekends bool      `json:"exclude_weekends"`
	ExcludeHolidays bool      `json:"exclude_holidays"`
	MessageTemplate string    `json:"message_template"`
	Display         string    `json:"display"`
}

type HolidayRecord struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
	Country   string `json:"country"`
}

type SettingsRecord struct {
	Policy          string `json:"aggregation_policy"`
	ProductEnabled  bool   `json:"product_enabled"`
	CartEnabled     bool   `json:"cart_enabled"`
	CheckoutEnabled bool   `json:"checkout_enabled"`
}

// Everything the ETA engine needs for one shop, as stored.
type ShopRecords struct {
	Shop     string          `json:"shop"`
	Rules    []RuleRecord    `json:"rules"`
	Holidays []HolidayRecord `json:"holidays"`
	Settings SettingsRecord  `json:"settings"`
}

// Port: read access to merchant-owned rules, holidays and settings.
type RuleStore interface {
	// Load all rules, holidays and settings of a shop.
	// Returns domain.ErrShopNotFound when the shop has no settings row.
	LoadShop(ctx context.Context, shop string) (ShopRecords, error)
}
