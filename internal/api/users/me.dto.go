package users

import (
	"time"

	"profile-app/internal/domain/access"
)

type MeResponse struct {
	User       UserDTO                 `json:"user"`
	Billing    BillingDTO              `json:"billing"`
	Access     access.Decision         `json:"access"`
	Navigation access.NavigationPolicy `json:"navigation"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Lastname      string `json:"lastname"`
	Role          string `json:"role"`
	AuthProvider  string `json:"auth_provider"`
	CorporateRole string `json:"corporate_role,omitempty"`
	TenantID      *uint  `json:"tenant_id,omitempty"`
}

/* ---------- BILLING ---------- */

type BillingDTO struct {
	Status       string           `json:"status"`
	Subscription *SubscriptionDTO `json:"subscription"`
	Trial        *TrialDTO        `json:"trial"`
	Tenant       *TenantDTO       `json:"tenant"`
}

type SubscriptionDTO struct {
	Status            string     `json:"status"`
	Plan              string     `json:"plan"`
	PlanDisplayName   string     `json:"plan_display_name"`
	Yearly            bool       `json:"yearly"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}

type TrialDTO struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	DaysLeft int        `json:"days_left"`
	Active   bool       `json:"active"`
}

type TenantDTO struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	AccountStatus string `json:"account_status"`
	MaxUsers      int    `json:"max_users"`
	IsAdmin       bool   `json:"is_admin"`
}
