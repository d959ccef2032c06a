package routes

import (
	adminapi "profile-app/internal/api/admin"
	authapi "profile-app/internal/api/auth"
	"profile-app/internal/api/billing"
	"profile-app/internal/api/corporate"
	"profile-app/internal/api/plans"
	stripewebhooks "profile-app/internal/api/stripewebhook"
	"profile-app/internal/api/users"
	"profile-app/internal/app/http/middleware"
	"profile-app/internal/domain/access"
	billingdomain "profile-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// Deps are the long-lived services handlers need beyond database.DB.
type Deps struct {
	Checkout *billingdomain.CheckoutService
	Webhooks *stripewebhooks.Handler
	Resolver access.Resolver
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	// Raw body is needed for signature verification, so no sanitizer here.
	r.POST("/webhook", deps.Webhooks.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)
	public.GET("/plans", plans.ListPlans)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(), middleware.SanitizeAndCleanInputMiddleware())
	auth.GET("/payments", billing.GetPaymentHistory)
	auth.GET("/billing/subscription", billing.GetSubscription)
	auth.POST("/billing/checkout", billing.CreateCheckoutSession(deps.Checkout))
	auth.POST("/billing-portal", billing.CreateBillingPortal(deps.Checkout))
	auth.POST("/change-password", authapi.ChangePassword)

	// Access decision recomputed per request
	decided := auth.Group("/")
	decided.Use(middleware.LoadDecision(deps.Resolver))
	decided.GET("/me", users.GetCurrentUser)
	decided.GET("/access", users.GetAccess)

	corp := decided.Group("/corporate")
	corp.Use(middleware.RequireCorporateAccess())
	corp.GET("/tenant", corporate.GetTenant)

	// Operator routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireOperator(deps.Resolver))
	admin.GET("/users", adminapi.ListAllUsers)
	admin.GET("/user/:id", adminapi.GetUserDetails)
	admin.GET("/payments", adminapi.ListAllPayments)
	admin.GET("/webhook-events", adminapi.ListWebhookEvents)
	admin.POST("/plans/verify", plans.VerifyPlans(deps.Checkout))
}
