package access

import (
	"strings"
	"time"

	"profile-app/internal/domain/plans"
	"profile-app/internal/domain/subscriptions"
	"profile-app/internal/domain/tenants"
	"profile-app/internal/domain/users"
)

// Resolver derives a Decision from a user's persisted billing and tenant attributes.
// The user must be loaded with Subscription, Tenant and AdminOfTenant preloaded.
type Resolver struct {
	operators map[string]struct{}
}

func NewResolver(operatorEmails []string) Resolver {
	ops := make(map[string]struct{}, len(operatorEmails))
	for _, e := range operatorEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			ops[e] = struct{}{}
		}
	}
	return Resolver{operators: ops}
}

func (r Resolver) IsOperator(email string) bool {
	_, ok := r.operators[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Resolve evaluates the priority chain. The first matching rule wins:
//
//  1. operator allow-list
//  2. permanent license
//  3. corporate admin of a non-suspended tenant
//  4. invited member of a non-suspended tenant
//  5. personal fallback
//
// now is the only time input; trial expiry is compared against it.
func (r Resolver) Resolve(now time.Time, u users.User) Decision {
	d := Decision{Anomalies: detectAnomalies(u)}

	switch {
	case r.IsOperator(u.Email):
		return resolveOperator(d)
	case u.SubscriptionStatus == users.StatusPermanent:
		return resolvePermanent(d, u)
	case u.AdminOfTenant != nil && !u.AdminOfTenant.IsSuspended():
		return resolveCorporateAdmin(d, u)
	case u.Tenant != nil && u.CorporateRole == users.RoleMember && !u.Tenant.IsSuspended():
		return resolveInvitedMember(d, u)
	default:
		return resolvePersonal(now, d, u)
	}
}

func detectAnomalies(u users.User) []string {
	var out []string
	if u.AdminOfTenant != nil && u.Tenant != nil && u.Tenant.ID != u.AdminOfTenant.ID {
		out = append(out, AnomalyAdminAndMember)
	}
	return out
}

func resolveOperator(d Decision) Decision {
	d.UserType = UserAdmin
	d.IsAdmin = true
	d.HasCorpAccess = true
	d.IsCorpAdmin = true
	d.HasActivePlan = true
	d.PlanType = PlanEnterprise
	d.PlanDisplayName = "Operator"
	return d
}

func resolvePermanent(d Decision, u users.User) Decision {
	tier := PermanentPlanType(u)

	d.UserType = UserPermanent
	d.IsPermanentUser = true
	d.HasActivePlan = true
	d.PermanentPlanType = tier
	d.PlanType = PlanType(tier)
	d.PlanDisplayName = "Permanent " + titleTier(tier)

	// A personal permanent license never grants corporate access,
	// whatever stale tenant data or role the row still carries.
	if tier == plans.TierPersonal {
		return d
	}

	d.HasCorpAccess = true
	if t := tenantOf(u); t != nil {
		d.TenantID = &t.ID
	}
	d.IsCorpAdmin = u.AdminOfTenant != nil || u.CorporateRole == users.RoleAdmin
	return d
}

// PermanentPlanType infers the tier of a permanent license: subscription plan string
// first, then the tenant's seat cap, then personal.
func PermanentPlanType(u users.User) plans.Tier {
	if u.Subscription != nil {
		if tier, ok := plans.Classify(u.Subscription.Plan); ok {
			return tier
		}
	}
	if t := tenantOf(u); t != nil {
		return plans.TierFromSeats(t.MaxUsers)
	}
	return plans.TierPersonal
}

func resolveCorporateAdmin(d Decision, u users.User) Decision {
	t := u.AdminOfTenant

	d.UserType = UserCorporate
	d.HasCorpAccess = true
	d.IsCorpAdmin = true
	d.HasActivePlan = true
	d.TenantID = &t.ID

	planStr := ""
	if u.Subscription != nil {
		planStr = u.Subscription.Plan
	}
	if tier, ok := plans.Classify(planStr); ok && tier.IsCorporate() {
		d.PlanType = PlanType(tier)
	} else {
		d.PlanType = PlanType(plans.TierFromSeats(t.MaxUsers))
	}

	d.PlanDisplayName = plans.DisplayName(planStr)
	if d.PlanDisplayName == "" {
		d.PlanDisplayName = "Corporate"
	}
	return d
}

func resolveInvitedMember(d Decision, u users.User) Decision {
	t := u.Tenant

	d.UserType = UserInvitedMember
	d.HasCorpAccess = true
	d.HasActivePlan = true
	d.TenantID = &t.ID
	d.PlanType = PlanType(plans.TierFromSeats(t.MaxUsers))
	d.PlanDisplayName = "Corporate Member"
	return d
}

func resolvePersonal(now time.Time, d Decision, u users.User) Decision {
	d.UserType = UserPersonal

	sub := u.Subscription
	subscribed := u.SubscriptionStatus == users.StatusActive ||
		(sub != nil && sub.Status == subscriptions.StatusActive)
	trialing := InTrial(now, u)

	d.HasActivePlan = subscribed || trialing

	switch {
	case subscribed:
		d.PlanType = PlanPersonal
		if sub != nil {
			d.PlanDisplayName = plans.DisplayName(sub.Plan)
		}
		if d.PlanDisplayName == "" {
			d.PlanDisplayName = "Personal"
		}
	case trialing:
		d.PlanType = PlanPersonal
		d.PlanDisplayName = "Trial"
	default:
		d.PlanType = PlanFree
		d.PlanDisplayName = "Free"
	}
	return d
}

// InTrial reports an active trial window. Either the user row or the subscription row
// saying "trialing" is enough; the window itself always comes from TrialEndsAt.
func InTrial(now time.Time, u users.User) bool {
	if u.TrialEndsAt == nil || !now.Before(*u.TrialEndsAt) {
		return false
	}
	if u.SubscriptionStatus == users.StatusTrialing {
		return true
	}
	return u.Subscription != nil && u.Subscription.Status == subscriptions.StatusTrialing
}

// tenantOf prefers the admin relation over membership.
func tenantOf(u users.User) *tenants.CorporateTenant {
	if u.AdminOfTenant != nil {
		return u.AdminOfTenant
	}
	return u.Tenant
}

func titleTier(t plans.Tier) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
