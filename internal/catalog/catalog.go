// Package catalog loads the auctionable player list from a CSV file and
// derives the display fields (set bucket, country flag) for each player.
package catalog

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Status is the sale status of a player.
type Status string

const (
	StatusUnsold Status = "Unsold"
	StatusSold   Status = "Sold"
)

// DefaultCountry is assumed for rows that carry no country column.
const DefaultCountry = "India"

// DefaultType is the classification tag for rows without a Status column.
const DefaultType = "Capped"

// Player is a single auctionable player. Everything except Status is fixed at
// load time.
type Player struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	Country   string          `json:"country"`
	FlagURL   string          `json:"flag_url,omitempty"`
	FlagEmoji string          `json:"flag_emoji,omitempty"`
	BasePrice decimal.Decimal `json:"base_price"`
	Set       string          `json:"set_name"`
	Status    Status          `json:"status"`
	Type      string          `json:"type"`
}

// isoCodes maps country names to flagcdn region codes.
var isoCodes = map[string]string{
	"India":        "in",
	"Australia":    "au",
	"England":      "gb-eng",
	"New Zealand":  "nz",
	"South Africa": "za",
	"West Indies":  "wi",
	"Afghanistan":  "af",
	"Sri Lanka":    "lk",
	"Bangladesh":   "bd",
	"Pakistan":     "pk",
	"Ireland":      "ie",
	"Zimbabwe":     "zw",
	"USA":          "us",
	"UAE":          "ae",
	"Unknown":      "un",
}

// fallbackCode is used for countries missing from isoCodes.
const fallbackCode = "in"

// West Indies has no ISO region, so it gets an emoji instead of an image.
const (
	westIndies      = "West Indies"
	westIndiesEmoji = "🌴"
)

// Flag returns the flag image URL or emoji for a country. Exactly one of the
// two results is non-empty.
func Flag(country string) (url, emoji string) {
	if country == westIndies {
		return "", westIndiesEmoji
	}
	code, ok := isoCodes[country]
	if !ok {
		code = fallbackCode
	}
	return fmt.Sprintf("https://flagcdn.com/w80/%s.png", code), ""
}

type tier struct {
	min  decimal.Decimal
	name string
}

// tiers is ordered by descending cutoff; the first match wins.
var tiers = []tier{
	{decimal.RequireFromString("2.0"), "Set 1 (Marquee)"},
	{decimal.RequireFromString("1.5"), "Set 2"},
	{decimal.RequireFromString("1.25"), "Set 3"},
	{decimal.RequireFromString("1.0"), "Set 4"},
	{decimal.RequireFromString("0.75"), "Set 5"},
	{decimal.RequireFromString("0.50"), "Set 6"},
	{decimal.RequireFromString("0.40"), "Set 7"},
}

const floorTier = "Set 8 (Uncapped)"

// SetFor returns the set bucket label for a base price.
func SetFor(price decimal.Decimal) string {
	for _, t := range tiers {
		if price.GreaterThanOrEqual(t.min) {
			return t.name
		}
	}
	return floorTier
}

// SortByPrice orders players by base price, highest first. Players with equal
// prices keep their relative order.
func SortByPrice(players []Player) {
	slices.SortStableFunc(players, func(a, b Player) int {
		return b.BasePrice.Cmp(a.BasePrice)
	})
}
