package users

import (
	"net/http"
	"time"

	"profile-app/internal/app/http/middleware"
	"profile-app/internal/domain/access"

	"github.com/gin-gonic/gin"
)

// GET /me?path=
func GetCurrentUser(c *gin.Context) {
	d, ok := middleware.Decision(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Access decision missing"})
		return
	}
	u, ok := middleware.AccessUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, BuildMeResponse(time.Now(), u, d, c.Query("path")))
}

// GET /access?path=
// Clients may cache the answer briefly; protected routes recompute it per request.
func GetAccess(c *gin.Context) {
	d, ok := middleware.Decision(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Access decision missing"})
		return
	}

	c.Header("Cache-Control", "private, max-age=120")
	c.JSON(http.StatusOK, gin.H{
		"decision":   d,
		"navigation": access.Navigation(d, c.Query("path")),
		"allowed":    access.Allows(d, c.Query("path")),
	})
}
