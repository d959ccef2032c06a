package plans

import "strings"

type Tier string

// Tier constants (single source of truth)
const (
	TierPersonal   Tier = "personal"
	TierStarter    Tier = "starter"
	TierBusiness   Tier = "business"
	TierEnterprise Tier = "enterprise"
)

func (t Tier) IsCorporate() bool {
	return t == TierStarter || t == TierBusiness || t == TierEnterprise
}

// classifyOrder is evaluated top to bottom; the first matching needle wins.
// "enterprise" must be checked before "business" and "business" before "starter"
// because legacy plan strings such as "business_plus_starter_migrated" exist.
var classifyOrder = []struct {
	needle string
	tier   Tier
}{
	{"enterprise", TierEnterprise},
	{"business", TierBusiness}, // also covers business_plus
	{"starter", TierStarter},
	{"personal", TierPersonal},
}

// Classify maps a free-form plan string onto a tier.
func Classify(plan string) (Tier, bool) {
	p := strings.ToLower(strings.TrimSpace(plan))
	if p == "" {
		return "", false
	}
	for _, c := range classifyOrder {
		if strings.Contains(p, c.needle) {
			return c.tier, true
		}
	}
	return "", false
}

// IsYearly reports whether a stored plan string denotes yearly billing.
func IsYearly(plan string) bool {
	p := strings.ToLower(plan)
	return strings.HasSuffix(p, yearlySuffix) || strings.Contains(p, "year")
}

// TierFromSeats infers a corporate tier from a tenant's seat cap.
func TierFromSeats(maxUsers int) Tier {
	switch {
	case maxUsers >= 50:
		return TierEnterprise
	case maxUsers >= 30:
		return TierBusiness
	default:
		return TierStarter
	}
}

// DisplayName renders a plan string for menus, e.g. "Business (Yearly)".
// Returns "" when the string cannot be classified.
func DisplayName(plan string) string {
	tier, ok := Classify(plan)
	if !ok {
		return ""
	}
	iv := IntervalMonth
	if IsYearly(plan) {
		iv = IntervalYear
	}
	e, err := Resolve(tier, iv)
	if err != nil {
		return ""
	}
	return e.DisplayName
}
