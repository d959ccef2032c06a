package plans

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPlanNotFound is returned for any (tier, interval) pair outside the catalog.
var ErrPlanNotFound = errors.New("plan not found")

type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

const yearlySuffix = "_yearly"

// Currency used for every catalog amount. Amounts are in minor units (JPY has none).
const Currency = "jpy"

// Entry is one priced row of the catalog.
type Entry struct {
	Tier        Tier     `json:"tier"`
	Interval    Interval `json:"interval"`
	PriceID     string   `json:"price_id"`
	DisplayName string   `json:"display_name"`
	Amount      int64    `json:"amount"`
	SeatLimit   int      `json:"seat_limit"`
	IsCorporate bool     `json:"is_corporate"`
}

// StorageKey is the plan string persisted on subscriptions ("business", "business_yearly").
func (e Entry) StorageKey() string {
	if e.Interval == IntervalYear {
		return string(e.Tier) + yearlySuffix
	}
	return string(e.Tier)
}

type catalogKey struct {
	tier     Tier
	interval Interval
}

var catalog = map[catalogKey]Entry{
	{TierPersonal, IntervalMonth}:   {TierPersonal, IntervalMonth, "price_personal_monthly", "Personal (Monthly)", 550, 1, false},
	{TierPersonal, IntervalYear}:    {TierPersonal, IntervalYear, "price_personal_yearly", "Personal (Yearly)", 5500, 1, false},
	{TierStarter, IntervalMonth}:    {TierStarter, IntervalMonth, "price_starter_monthly", "Starter (Monthly)", 3300, 10, true},
	{TierStarter, IntervalYear}:     {TierStarter, IntervalYear, "price_starter_yearly", "Starter (Yearly)", 33000, 10, true},
	{TierBusiness, IntervalMonth}:   {TierBusiness, IntervalMonth, "price_business_monthly", "Business (Monthly)", 6600, 30, true},
	{TierBusiness, IntervalYear}:    {TierBusiness, IntervalYear, "price_business_yearly", "Business (Yearly)", 66000, 30, true},
	{TierEnterprise, IntervalMonth}: {TierEnterprise, IntervalMonth, "price_enterprise_monthly", "Enterprise (Monthly)", 9900, 50, true},
	{TierEnterprise, IntervalYear}:  {TierEnterprise, IntervalYear, "price_enterprise_yearly", "Enterprise (Yearly)", 99000, 50, true},
}

// Resolve looks up the catalog entry for a tier and billing interval.
func Resolve(tier Tier, interval Interval) (Entry, error) {
	e, ok := catalog[catalogKey{tier, interval}]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q/%q", ErrPlanNotFound, tier, interval)
	}
	return e, nil
}

// ResolveKey accepts the raw strings a client sends. The key may carry the
// yearly suffix, in which case interval may be empty.
func ResolveKey(key, interval string) (Entry, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	iv := Interval(strings.ToLower(strings.TrimSpace(interval)))

	if strings.HasSuffix(key, yearlySuffix) {
		key = strings.TrimSuffix(key, yearlySuffix)
		if iv == "" {
			iv = IntervalYear
		}
	}
	if iv == "" {
		iv = IntervalMonth
	}
	return Resolve(Tier(key), iv)
}

// ParseStorageKey is the inverse of Entry.StorageKey.
func ParseStorageKey(s string) (Entry, error) {
	return ResolveKey(s, "")
}

// ByPriceID is the reverse lookup used when a webhook carries a price but no plan metadata.
func ByPriceID(priceID string) (Entry, bool) {
	for _, e := range catalog {
		if e.PriceID == priceID {
			return e, true
		}
	}
	return Entry{}, false
}

// All returns every entry, ordered by tier then interval.
func All() []Entry {
	out := make([]Entry, 0, len(catalog))
	for _, t := range []Tier{TierPersonal, TierStarter, TierBusiness, TierEnterprise} {
		for _, iv := range []Interval{IntervalMonth, IntervalYear} {
			if e, ok := catalog[catalogKey{t, iv}]; ok {
				out = append(out, e)
			}
		}
	}
	return out
}
