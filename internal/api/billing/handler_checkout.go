package billing

import (
	"net/http"

	"profile-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

type checkoutBody struct {
	Plan         string                `json:"plan" binding:"required"`
	Interval     string                `json:"interval"`
	IsCorporate  bool                  `json:"is_corporate"`
	BundledItems []billing.BundledItem `json:"bundled_items"`
	Shipping     *billing.ShippingInfo `json:"shipping"`
}

// POST /billing/checkout
func CreateCheckoutSession(svc *billing.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
			return
		}

		var body checkoutBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid plan", "code": billing.CodePlanNotFound})
			return
		}

		res, err := svc.Start(c.Request.Context(), billing.CheckoutRequest{
			UserID:       userID,
			Plan:         body.Plan,
			Interval:     body.Interval,
			Corporate:    body.IsCorporate,
			BundledItems: body.BundledItems,
			Shipping:     body.Shipping,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /billing-portal
func CreateBillingPortal(svc *billing.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, err := svc.PortalURL(c.Request.Context(), c.GetUint("user_id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}
