package admin

import (
	"net/http"
	"strconv"
	"time"

	"profile-app/database"
	"profile-app/internal/domain/billing"
	"profile-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type AdminUser struct {
	ID                 uint       `json:"id"`
	Name               string     `json:"name"`
	Lastname           string     `json:"lastname"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	SubscriptionStatus string     `json:"subscription_status"`
	CorporateRole      string     `json:"corporate_role,omitempty"`
	TenantID           *uint      `json:"tenant_id,omitempty"`
	Plan               *string    `json:"plan,omitempty"`
	PlanStatus         *string    `json:"plan_status,omitempty"`
	StripeCustomerID   *string    `json:"stripe_customer_id,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
}

type AdminPayment struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Plan        string `json:"plan"`
	Corporate   bool   `json:"corporate"`
	AmountTotal int64  `json:"amount_total"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	SessionID   string `json:"session_id"`
	CreatedAt   string `json:"created_at"`
}

func ListAllUsers(c *gin.Context) {
	var all []users.User
	if err := database.DB.Preload("Subscription").Order("id").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	adminUsers := make([]AdminUser, 0, len(all))
	for _, u := range all {
		au := AdminUser{
			ID:                 u.ID,
			Name:               u.Name,
			Lastname:           u.Lastname,
			Email:              u.Email,
			Role:               u.Role,
			SubscriptionStatus: string(u.SubscriptionStatus),
			CorporateRole:      string(u.CorporateRole),
			TenantID:           u.TenantID,
			StripeCustomerID:   u.StripeCustomerID,
		}
		if s := u.Subscription; s != nil {
			plan, status := s.Plan, string(s.Status)
			au.Plan = &plan
			au.PlanStatus = &status
			au.CurrentPeriodEnd = s.CurrentPeriodEnd
		}
		adminUsers = append(adminUsers, au)
	}

	c.JSON(http.StatusOK, adminUsers)
}

func ListAllPayments(c *gin.Context) {
	var orders []billing.Order
	err := database.DB.Preload("User").Order("created_at DESC").Find(&orders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	result := make([]AdminPayment, 0, len(orders))
	for _, o := range orders {
		result = append(result, AdminPayment{
			ID:          o.ID,
			Email:       o.User.Email,
			Plan:        o.Plan,
			Corporate:   o.Corporate,
			AmountTotal: o.AmountTotal,
			Currency:    o.Currency,
			Status:      string(o.Status),
			SessionID:   o.StripeSessionID,
			CreatedAt:   o.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	c.JSON(http.StatusOK, result)
}

// GET /admin/webhook-events?status=failed&limit=50
func ListWebhookEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}

	q := database.DB.Order("updated_at DESC").Limit(limit)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var events []billing.WebhookEvent
	if err := q.Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load webhook events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

func GetUserDetails(c *gin.Context) {
	userID := c.Param("id")

	var user users.User
	if err := database.DB.
		Preload("Subscription").
		Preload("Tenant").
		Preload("AdminOfTenant").
		First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var orders []billing.Order
	if err := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"payments": orders,
	})
}
