package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"profile-app/database"
	"profile-app/internal/domain/access"
	"profile-app/internal/domain/billing"
	"profile-app/internal/domain/tenants"
	"profile-app/internal/domain/users"
	"profile-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corporateRouter(t *testing.T, userID uint) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	r.Use(LoadDecision(access.NewResolver(nil)))
	r.GET("/corporate", RequireCorporateAccess(), func(c *gin.Context) {
		d, _ := Decision(c)
		c.JSON(http.StatusOK, gin.H{"user_type": d.UserType})
	})
	return r
}

func call(r *gin.Engine) (int, map[string]string) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/corporate", nil))
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func withDB(t *testing.T) {
	t.Helper()
	prev := database.DB
	database.DB = testutil.NewDB(t)
	t.Cleanup(func() { database.DB = prev })
}

func TestRequireCorporateAccess(t *testing.T) {
	withDB(t)
	db := database.DB

	admin := testutil.CreateUser(t, db, "admin@example.com", func(u *users.User) {
		u.SubscriptionStatus = users.StatusActive
		u.CorporateRole = users.RoleAdmin
	})
	require.NoError(t, db.Create(&tenants.CorporateTenant{Name: "Acme", AccountStatus: tenants.AccountActive, MaxUsers: 30, AdminID: admin.ID}).Error)

	unpaid := testutil.CreateUser(t, db, "unpaid@example.com", func(u *users.User) {
		u.CorporateRole = users.RoleAdmin
	})
	require.NoError(t, db.Create(&tenants.CorporateTenant{
		Name:             "Pending",
		AccountStatus:    tenants.AccountSuspended,
		SuspensionReason: tenants.SuspensionPendingPayment,
		MaxUsers:         10,
		AdminID:          unpaid.ID,
	}).Error)

	personal := testutil.CreateUser(t, db, "solo@example.com", nil)

	code, body := call(corporateRouter(t, admin.ID))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(access.UserCorporate), body["user_type"])

	code, body = call(corporateRouter(t, unpaid.ID))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, billing.CodeTenantSuspended, body["code"])

	code, body = call(corporateRouter(t, personal.ID))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, billing.CodeCorporateAccess, body["code"])
}

func TestLoadDecisionUnknownUser(t *testing.T) {
	withDB(t)

	code, body := call(corporateRouter(t, 999))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, billing.CodeUserNotFound, body["code"])
}

func TestLoadDecisionSeesFreshState(t *testing.T) {
	withDB(t)
	db := database.DB

	admin := testutil.CreateUser(t, db, "admin@example.com", func(u *users.User) {
		u.CorporateRole = users.RoleAdmin
	})
	tn := tenants.CorporateTenant{Name: "Acme", AccountStatus: tenants.AccountActive, MaxUsers: 10, AdminID: admin.ID}
	require.NoError(t, db.Create(&tn).Error)

	r := corporateRouter(t, admin.ID)
	code, _ := call(r)
	require.Equal(t, http.StatusOK, code)

	require.NoError(t, db.Model(&tn).Updates(map[string]interface{}{
		"account_status":    tenants.AccountSuspended,
		"suspension_reason": tenants.SuspensionOperator,
	}).Error)
	code, body := call(r)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, billing.CodeTenantSuspended, body["code"])
}
