package access

import (
	"testing"
	"time"

	"profile-app/internal/domain/plans"
	"profile-app/internal/domain/subscriptions"
	"profile-app/internal/domain/tenants"
	"profile-app/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func tenant(id uint, maxUsers int, status tenants.AccountStatus) *tenants.CorporateTenant {
	return &tenants.CorporateTenant{ID: id, MaxUsers: maxUsers, AccountStatus: status, AdminID: 1}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := NewResolver(nil)
	u := users.User{
		ID:                 7,
		SubscriptionStatus: users.StatusTrialing,
		TrialEndsAt:        ptr(now.Add(48 * time.Hour)),
	}

	first := r.Resolve(now, u)
	second := r.Resolve(now, u)
	assert.Equal(t, first, second)
	assert.Equal(t, "Trial", first.PlanDisplayName)

	// Only the injected clock moves the trial boundary.
	expired := r.Resolve(now.Add(72*time.Hour), u)
	assert.Equal(t, PlanFree, expired.PlanType)
	assert.False(t, expired.HasActivePlan)
}

func TestTrialFromEitherRow(t *testing.T) {
	trialEnd := now.Add(48 * time.Hour)
	trialingSub := &subscriptions.Subscription{UserID: 7, Status: subscriptions.StatusTrialing}

	cases := []struct {
		name       string
		userStatus users.SubscriptionStatus
		sub        *subscriptions.Subscription
		trialEnds  *time.Time
		at         time.Time
		wantActive bool
	}{
		{"user row trialing", users.StatusTrialing, nil, &trialEnd, now, true},
		{"free user with trialing subscription", users.StatusFree, trialingSub, &trialEnd, now, true},
		{"grace expired user with trialing subscription", users.StatusGracePeriodExpired, trialingSub, &trialEnd, now, true},
		{"trialing subscription after trial end", users.StatusFree, trialingSub, &trialEnd, trialEnd.Add(time.Second), false},
		{"trial ends exactly now", users.StatusTrialing, trialingSub, &trialEnd, trialEnd, false},
		{"trialing without trial end", users.StatusTrialing, trialingSub, nil, now, false},
		{"no trial on either row", users.StatusFree, nil, &trialEnd, now, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := users.User{
				ID:                 7,
				SubscriptionStatus: tc.userStatus,
				Subscription:       tc.sub,
				TrialEndsAt:        tc.trialEnds,
			}
			d := NewResolver(nil).Resolve(tc.at, u)
			assert.Equal(t, UserPersonal, d.UserType)
			assert.Equal(t, tc.wantActive, d.HasActivePlan)
			if tc.wantActive {
				assert.Equal(t, "Trial", d.PlanDisplayName)
				assert.Equal(t, PlanPersonal, d.PlanType)
			} else {
				assert.Equal(t, PlanFree, d.PlanType)
			}
		})
	}
}

func TestPermanentWithStarterSizedTenant(t *testing.T) {
	u := users.User{
		ID:                 1,
		SubscriptionStatus: users.StatusPermanent,
		CorporateRole:      users.RoleMember,
		TenantID:           ptr(uint(4)),
		Tenant:             tenant(4, 10, tenants.AccountActive),
	}

	d := NewResolver(nil).Resolve(now, u)
	assert.Equal(t, UserPermanent, d.UserType)
	assert.True(t, d.IsPermanentUser)
	assert.Equal(t, plans.TierStarter, d.PermanentPlanType)
	assert.True(t, d.HasCorpAccess)
	require.NotNil(t, d.TenantID)
	assert.Equal(t, uint(4), *d.TenantID)
}

func TestPermanentWithoutTenantIsPersonalEvenWithAdminRole(t *testing.T) {
	u := users.User{
		ID:                 1,
		SubscriptionStatus: users.StatusPermanent,
		CorporateRole:      users.RoleAdmin,
	}

	d := NewResolver(nil).Resolve(now, u)
	assert.Equal(t, plans.TierPersonal, d.PermanentPlanType)
	assert.False(t, d.HasCorpAccess)
	assert.False(t, d.IsCorpAdmin)
	assert.True(t, d.HasActivePlan)
}

func TestPermanentPlanFromSubscriptionWins(t *testing.T) {
	u := users.User{
		ID:                 1,
		SubscriptionStatus: users.StatusPermanent,
		Subscription:       &subscriptions.Subscription{Plan: "enterprise_yearly"},
		AdminOfTenant:      tenant(2, 10, tenants.AccountSuspended),
	}

	d := NewResolver(nil).Resolve(now, u)
	assert.Equal(t, plans.TierEnterprise, d.PermanentPlanType)
	assert.True(t, d.HasCorpAccess, "permanent holders bypass tenant suspension")
	assert.True(t, d.IsCorpAdmin)
}

func TestSuspendedAdminFallsBackToPersonal(t *testing.T) {
	u := users.User{
		ID:                 1,
		SubscriptionStatus: users.StatusActive,
		CorporateRole:      users.RoleAdmin,
		Subscription:       &subscriptions.Subscription{Status: subscriptions.StatusActive, Plan: "business"},
		AdminOfTenant:      tenant(3, 30, tenants.AccountSuspended),
	}

	d := NewResolver(nil).Resolve(now, u)
	assert.Equal(t, UserPersonal, d.UserType)
	assert.False(t, d.HasCorpAccess)
	assert.Nil(t, d.TenantID)
}

func TestCorporateAdmin(t *testing.T) {
	u := users.User{
		ID:            1,
		Subscription:  &subscriptions.Subscription{Status: subscriptions.StatusActive, Plan: "business_yearly"},
		AdminOfTenant: tenant(3, 30, tenants.AccountActive),
	}

	d := NewResolver(nil).Resolve(now, u)
	assert.Equal(t, UserCorporate, d.UserType)
	assert.Equal(t, PlanBusiness, d.PlanType)
	assert.Equal(t, "Business (Yearly)", d.PlanDisplayName)
	assert.True(t, d.IsCorpAdmin)

	// Seat cap decides when the plan string is not corporate.
	u.Subscription.Plan = "personal"
	u.AdminOfTenant.MaxUsers = 50
	d = NewResolver(nil).Resolve(now, u)
	assert.Equal(t, PlanEnterprise, d.PlanType)
}

func TestInvitedMember(t *testing.T) {
	u := users.User{
		ID:            9,
		CorporateRole: users.RoleMember,
		TenantID:      ptr(uint(3)),
		Tenant:        tenant(3, 10, tenants.AccountActive),
	}

	d := NewResolver(nil).Resolve(now, u)
	assert.Equal(t, UserInvitedMember, d.UserType)
	assert.True(t, d.HasCorpAccess)
	assert.False(t, d.IsCorpAdmin)
	assert.Equal(t, PlanStarter, d.PlanType)

	u.Tenant.AccountStatus = tenants.AccountSuspended
	d = NewResolver(nil).Resolve(now, u)
	assert.Equal(t, UserPersonal, d.UserType)
}

func TestOperatorOverridesEverything(t *testing.T) {
	u := users.User{ID: 1, Email: "Ops@Example.com", SubscriptionStatus: users.StatusPermanent}

	d := NewResolver([]string{" ops@example.com "}).Resolve(now, u)
	assert.Equal(t, UserAdmin, d.UserType)
	assert.True(t, d.IsAdmin)
	assert.True(t, d.HasCorpAccess)
}

func TestAdminAndMemberAnomalyPrefersAdmin(t *testing.T) {
	u := users.User{
		ID:            1,
		CorporateRole: users.RoleMember,
		Tenant:        tenant(8, 10, tenants.AccountActive),
		AdminOfTenant: tenant(3, 30, tenants.AccountActive),
	}

	d := NewResolver(nil).Resolve(now, u)
	assert.Equal(t, UserCorporate, d.UserType)
	assert.Equal(t, uint(3), *d.TenantID)
	assert.Equal(t, []string{AnomalyAdminAndMember}, d.Anomalies)
}

func TestPersonalSubscriber(t *testing.T) {
	u := users.User{
		ID:           1,
		Subscription: &subscriptions.Subscription{Status: subscriptions.StatusActive, Plan: "personal_yearly"},
	}

	d := NewResolver(nil).Resolve(now, u)
	assert.Equal(t, UserPersonal, d.UserType)
	assert.True(t, d.HasActivePlan)
	assert.Equal(t, PlanPersonal, d.PlanType)
	assert.Equal(t, "Personal (Yearly)", d.PlanDisplayName)
}
