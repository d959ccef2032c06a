package access

import (
	"path"
	"strings"
)

const (
	PathPersonalHome  = "/dashboard"
	PathCorporateHome = "/dashboard/corporate"
	PathMemberHome    = "/dashboard/corporate-member"
	PathOperatorHome  = "/admin"
)

type area int

const (
	areaUnknown area = iota
	areaShared
	areaPersonal
	areaCorporate
	areaMember
	areaOperator
)

// Checked in order; more specific prefixes come first.
var areaPrefixes = []struct {
	prefix string
	area   area
	exact  bool
}{
	{"/dashboard/subscription", areaShared, false},
	{"/dashboard/account", areaShared, false},
	{"/dashboard/notifications", areaShared, false},
	{PathMemberHome, areaMember, false},
	{PathCorporateHome, areaCorporate, false},
	{PathOperatorHome, areaOperator, false},
	{"/dashboard/profile", areaPersonal, false},
	{"/dashboard/sns", areaPersonal, false},
	{"/dashboard/qrcode", areaPersonal, false},
	{"/dashboard/design", areaPersonal, false},
	{PathPersonalHome, areaPersonal, true},
}

func classifyPath(p string) area {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if strings.TrimSpace(p) == "" {
		return areaUnknown
	}
	p = path.Clean("/" + strings.TrimSpace(p))
	for _, ap := range areaPrefixes {
		if p == ap.prefix {
			return ap.area
		}
		if !ap.exact && strings.HasPrefix(p, ap.prefix+"/") {
			return ap.area
		}
	}
	return areaUnknown
}

var (
	personalMenu = []MenuItem{
		{"Dashboard", PathPersonalHome},
		{"Profile", "/dashboard/profile"},
		{"SNS Links", "/dashboard/sns"},
		{"QR Code", "/dashboard/qrcode"},
		{"Subscription", "/dashboard/subscription"},
		{"Account", "/dashboard/account"},
	}
	corporateMenu = []MenuItem{
		{"Dashboard", PathCorporateHome},
		{"Members", "/dashboard/corporate/users"},
		{"Departments", "/dashboard/corporate/departments"},
		{"SNS Links", "/dashboard/corporate/sns"},
		{"Settings", "/dashboard/corporate/settings"},
		{"Subscription", "/dashboard/subscription"},
		{"Account", "/dashboard/account"},
	}
	memberMenu = []MenuItem{
		{"Dashboard", PathMemberHome},
		{"Profile", "/dashboard/corporate-member/profile"},
		{"SNS Links", "/dashboard/corporate-member/sns"},
		{"QR Code", "/dashboard/corporate-member/qrcode"},
		{"Account", "/dashboard/account"},
	}
	operatorMenu = []MenuItem{
		{"Operator", PathOperatorHome},
		{"Users", "/admin/users"},
		{"Payments", "/admin/payments"},
		{"Webhook Events", "/admin/webhook-events"},
		{"Corporate Dashboard", PathCorporateHome},
		{"Personal Dashboard", PathPersonalHome},
	}
)

type navProfile struct {
	menu    []MenuItem
	landing string
	allowed []area
	// Areas outside the allowed set that still never redirect because the
	// user type has no alternate landing page for them.
	stay []area
}

func profileFor(d Decision) navProfile {
	switch d.UserType {
	case UserAdmin:
		return navProfile{
			menu:    operatorMenu,
			landing: PathOperatorHome,
			allowed: []area{areaOperator, areaCorporate, areaMember, areaPersonal},
		}
	case UserCorporate:
		return corporateProfile()
	case UserPermanent:
		if d.HasCorpAccess {
			return corporateProfile()
		}
		return personalProfile()
	case UserInvitedMember:
		return navProfile{
			menu:    memberMenu,
			landing: PathMemberHome,
			allowed: []area{areaMember},
			stay:    []area{areaPersonal},
		}
	default:
		return personalProfile()
	}
}

func corporateProfile() navProfile {
	return navProfile{menu: corporateMenu, landing: PathCorporateHome, allowed: []area{areaCorporate}}
}

func personalProfile() navProfile {
	return navProfile{menu: personalMenu, landing: PathPersonalHome, allowed: []area{areaPersonal}}
}

// Navigation builds the menu and redirect decision for currentPath.
// Shared and unrecognised paths never redirect.
func Navigation(d Decision, currentPath string) NavigationPolicy {
	p := profileFor(d)

	menu := make([]MenuItem, len(p.menu))
	copy(menu, p.menu)

	policy := NavigationPolicy{MenuItems: menu, DefaultPath: p.landing}

	a := classifyPath(currentPath)
	if a == areaUnknown || a == areaShared || containsArea(p.allowed, a) || containsArea(p.stay, a) {
		return policy
	}

	policy.ShouldRedirect = true
	policy.RedirectPath = p.landing
	return policy
}

// Allows reports whether currentPath lies inside the decision's feature areas.
// Shared and unrecognised paths are allowed for everyone, matching Navigation,
// which never redirects away from them.
func Allows(d Decision, currentPath string) bool {
	a := classifyPath(currentPath)
	if a == areaShared || a == areaUnknown {
		return true
	}
	return containsArea(profileFor(d).allowed, a)
}

func containsArea(list []area, a area) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}
