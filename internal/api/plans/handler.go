package plans

import (
	"net/http"

	"profile-app/internal/domain/billing"
	"profile-app/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

// GET /plans
func ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"currency": plans.Currency,
		"plans":    plans.All(),
		"items":    plans.AllItems(),
	})
}

// POST /admin/plans/verify
func VerifyPlans(svc *billing.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		mismatches, err := svc.VerifyCatalog(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch Stripe prices"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":         len(mismatches) == 0,
			"mismatches": mismatches,
		})
	}
}
