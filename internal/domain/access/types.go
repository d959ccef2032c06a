package access

import "profile-app/internal/domain/plans"

type UserType string

const (
	UserAdmin         UserType = "admin"
	UserCorporate     UserType = "corporate"
	UserPersonal      UserType = "personal"
	UserPermanent     UserType = "permanent"
	UserInvitedMember UserType = "invited-member"
)

// PlanType is the plan classification shown to the user. It extends plans.Tier
// with "free" for users without an active plan.
type PlanType string

const (
	PlanFree       PlanType = "free"
	PlanPersonal   PlanType = PlanType(plans.TierPersonal)
	PlanStarter    PlanType = PlanType(plans.TierStarter)
	PlanBusiness   PlanType = PlanType(plans.TierBusiness)
	PlanEnterprise PlanType = PlanType(plans.TierEnterprise)
)

// Anomaly codes attached to a decision when the input violates a data invariant.
const (
	AnomalyAdminAndMember = "admin_and_member"
)

// Decision is the derived authorization state for one user at one instant.
type Decision struct {
	UserType          UserType   `json:"user_type"`
	IsAdmin           bool       `json:"is_admin"`
	HasCorpAccess     bool       `json:"has_corp_access"`
	IsCorpAdmin       bool       `json:"is_corp_admin"`
	IsPermanentUser   bool       `json:"is_permanent_user"`
	HasActivePlan     bool       `json:"has_active_plan"`
	PlanType          PlanType   `json:"plan_type"`
	PermanentPlanType plans.Tier `json:"permanent_plan_type,omitempty"`
	PlanDisplayName   string     `json:"plan_display_name,omitempty"`
	TenantID          *uint      `json:"tenant_id,omitempty"`
	Anomalies         []string   `json:"anomalies,omitempty"`
}

type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type NavigationPolicy struct {
	MenuItems      []MenuItem `json:"menu_items"`
	DefaultPath    string     `json:"default_path"`
	ShouldRedirect bool       `json:"should_redirect"`
	RedirectPath   string     `json:"redirect_path,omitempty"`
}
