package users

import (
	"time"

	"profile-app/internal/domain/access"
	"profile-app/internal/domain/plans"
	"profile-app/internal/domain/subscriptions"
	"profile-app/internal/domain/users"
)

func BuildSubscriptionDTO(s *subscriptions.Subscription) *SubscriptionDTO {
	if s == nil {
		return nil
	}
	return &SubscriptionDTO{
		Status:            string(s.Status),
		Plan:              s.Plan,
		PlanDisplayName:   plans.DisplayName(s.Plan),
		Yearly:            plans.IsYearly(s.Plan),
		CurrentPeriodEnd:  s.CurrentPeriodEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
}

func BuildTrialDTO(now time.Time, u users.User) *TrialDTO {
	if u.TrialStartAt == nil || u.TrialEndsAt == nil {
		return nil
	}

	daysLeft := 0
	if now.Before(*u.TrialEndsAt) {
		daysLeft = int(u.TrialEndsAt.Sub(now).Hours() / 24)
	}

	return &TrialDTO{
		StartsAt: u.TrialStartAt,
		EndsAt:   u.TrialEndsAt,
		DaysLeft: daysLeft,
		Active:   access.InTrial(now, u),
	}
}

// BuildTenantDTO prefers the tenant the user administers over the one they belong to.
func BuildTenantDTO(u users.User) *TenantDTO {
	t, isAdmin := u.AdminOfTenant, true
	if t == nil {
		t, isAdmin = u.Tenant, false
	}
	if t == nil {
		return nil
	}
	return &TenantDTO{
		ID:            t.ID,
		Name:          t.Name,
		AccountStatus: string(t.AccountStatus),
		MaxUsers:      t.MaxUsers,
		IsAdmin:       isAdmin,
	}
}

func BuildMeResponse(now time.Time, u users.User, d access.Decision, currentPath string) MeResponse {
	return MeResponse{
		User: UserDTO{
			ID:            u.ID,
			Email:         u.Email,
			Name:          u.Name,
			Lastname:      u.Lastname,
			Role:          u.Role,
			AuthProvider:  u.AuthProvider,
			CorporateRole: string(u.CorporateRole),
			TenantID:      u.TenantID,
		},
		Billing: BillingDTO{
			Status:       string(u.SubscriptionStatus),
			Subscription: BuildSubscriptionDTO(u.Subscription),
			Trial:        BuildTrialDTO(now, u),
			Tenant:       BuildTenantDTO(u),
		},
		Access:     d,
		Navigation: access.Navigation(d, currentPath),
	}
}
