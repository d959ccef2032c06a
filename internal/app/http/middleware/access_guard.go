package middleware

import (
	"errors"
	"net/http"
	"time"

	"profile-app/database"
	"profile-app/internal/domain/access"
	"profile-app/internal/domain/billing"
	"profile-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	decisionKey   = "access_decision"
	accessUserKey = "access_user"
)

// LoadDecision recomputes the caller's access decision for this request and stores it
// on the context. Decisions are never cached across requests.
func LoadDecision(resolver access.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		u, err := users.LoadForAccess(c.Request.Context(), database.DB, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found", "code": billing.CodeUserNotFound})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user", "code": billing.CodeInternal})
			return
		}

		d := resolver.Resolve(time.Now(), u)
		for _, a := range d.Anomalies {
			log.Warn().Uint("user_id", u.ID).Str("anomaly", a).Msg("access data anomaly")
		}
		c.Set(decisionKey, d)
		c.Set(accessUserKey, u)
		c.Next()
	}
}

// Decision returns the decision stored by LoadDecision.
func Decision(c *gin.Context) (access.Decision, bool) {
	v, ok := c.Get(decisionKey)
	if !ok {
		return access.Decision{}, false
	}
	d, ok := v.(access.Decision)
	return d, ok
}

// AccessUser returns the user loaded by LoadDecision, with its billing relations.
func AccessUser(c *gin.Context) (users.User, bool) {
	v, ok := c.Get(accessUserKey)
	if !ok {
		return users.User{}, false
	}
	u, ok := v.(users.User)
	return u, ok
}

// RequireCorporateAccess must run after LoadDecision.
func RequireCorporateAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		d, ok := Decision(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Access decision missing", "code": billing.CodeInternal})
			return
		}
		if d.HasCorpAccess {
			c.Next()
			return
		}

		u, _ := AccessUser(c)
		if (u.AdminOfTenant != nil && u.AdminOfTenant.IsSuspended()) ||
			(u.AdminOfTenant == nil && u.Tenant != nil && u.Tenant.IsSuspended()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Corporate account is suspended", "code": billing.CodeTenantSuspended})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Corporate access required", "code": billing.CodeCorporateAccess})
	}
}
