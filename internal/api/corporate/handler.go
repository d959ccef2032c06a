package corporate

import (
	"net/http"

	"profile-app/database"
	"profile-app/internal/app/http/middleware"
	"profile-app/internal/domain/tenants"
	"profile-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type TenantSummary struct {
	ID            uint                 `json:"id"`
	Name          string               `json:"name"`
	AccountStatus string               `json:"account_status"`
	MaxUsers      int                  `json:"max_users"`
	Members       int64                `json:"members"`
	SeatsLeft     int64                `json:"seats_left"`
	Departments   []tenants.Department `json:"departments"`
	IsAdmin       bool                 `json:"is_admin"`
}

// GET /corporate/tenant
// Runs behind RequireCorporateAccess, so the decision carries a tenant unless the
// caller is an operator or a permanent holder without tenant data.
func GetTenant(c *gin.Context) {
	d, _ := middleware.Decision(c)
	if d.TenantID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No corporate tenant"})
		return
	}

	var t tenants.CorporateTenant
	if err := database.DB.Preload("Departments").First(&t, *d.TenantID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	}

	var members int64
	if err := database.DB.Model(&users.User{}).Where("tenant_id = ?", t.ID).Count(&members).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count members"})
		return
	}

	left := int64(t.MaxUsers) - members
	if left < 0 {
		left = 0
	}
	departments := t.Departments
	if departments == nil {
		departments = []tenants.Department{}
	}

	c.JSON(http.StatusOK, TenantSummary{
		ID:            t.ID,
		Name:          t.Name,
		AccountStatus: string(t.AccountStatus),
		MaxUsers:      t.MaxUsers,
		Members:       members,
		SeatsLeft:     left,
		Departments:   departments,
		IsAdmin:       d.IsCorpAdmin,
	})
}
