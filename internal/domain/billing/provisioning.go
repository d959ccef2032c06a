package billing

import (
	"errors"
	"fmt"
	"strings"

	"profile-app/internal/domain/plans"
	"profile-app/internal/domain/tenants"
	"profile-app/internal/domain/users"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ensureAdminTenant returns the tenant administered by admin, creating it when absent.
// Must run inside a transaction: the existence check and the insert are one unit, and
// the unique admin_id index turns a lost race into a re-read instead of a duplicate.
func ensureAdminTenant(tx *gorm.DB, admin users.User, entry plans.Entry, subRowID uint, status tenants.AccountStatus, reason string) (tenants.CorporateTenant, bool, error) {
	var t tenants.CorporateTenant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("admin_id = ?", admin.ID).
		First(&t).Error
	if err == nil {
		return t, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return t, false, fmt.Errorf("lookup tenant for admin %d: %w", admin.ID, err)
	}

	t = tenants.CorporateTenant{
		Name:             tenantName(admin),
		AccountStatus:    status,
		SuspensionReason: reason,
		MaxUsers:         entry.SeatLimit,
		SubscriptionID:   &subRowID,
		AdminID:          admin.ID,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "admin_id"}},
		DoNothing: true,
	}).Create(&t)
	if res.Error != nil {
		return t, false, fmt.Errorf("create tenant for admin %d: %w", admin.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Another delivery created it between our check and insert.
		var existing tenants.CorporateTenant
		if err := tx.Where("admin_id = ?", admin.ID).First(&existing).Error; err != nil {
			return existing, false, fmt.Errorf("reload tenant for admin %d: %w", admin.ID, err)
		}
		return existing, false, nil
	}
	return t, true, nil
}

func tenantName(u users.User) string {
	name := strings.TrimSpace(u.Name + " " + u.Lastname)
	if name == "" {
		name = u.Email
	}
	return name
}

// provisionTenant brings the admin's tenant in line with a paid corporate plan:
// creates it if needed, syncs the seat cap and subscription link, lifts a
// pending-payment suspension and marks the user as corporate admin.
func provisionTenant(tx *gorm.DB, userID uint, entry plans.Entry, subRowID uint) (tenants.CorporateTenant, error) {
	var admin users.User
	if err := tx.First(&admin, userID).Error; err != nil {
		return tenants.CorporateTenant{}, fmt.Errorf("load admin %d: %w", userID, err)
	}

	t, created, err := ensureAdminTenant(tx, admin, entry, subRowID, tenants.AccountActive, "")
	if err != nil {
		return t, err
	}

	if !created {
		updates := map[string]interface{}{
			"max_users":       entry.SeatLimit,
			"subscription_id": subRowID,
		}
		if t.IsSuspended() && t.SuspensionReason == tenants.SuspensionPendingPayment {
			updates["account_status"] = tenants.AccountActive
			updates["suspension_reason"] = ""
		}
		if err := tx.Model(&tenants.CorporateTenant{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
			return t, fmt.Errorf("update tenant %d: %w", t.ID, err)
		}
		if err := tx.First(&t, t.ID).Error; err != nil {
			return t, fmt.Errorf("reload tenant %d: %w", t.ID, err)
		}

		var members int64
		if err := tx.Model(&users.User{}).Where("tenant_id = ?", t.ID).Count(&members).Error; err != nil {
			return t, fmt.Errorf("count members of tenant %d: %w", t.ID, err)
		}
		if int(members) > t.MaxUsers {
			log.Warn().
				Uint("tenant_id", t.ID).
				Int64("members", members).
				Int("max_users", t.MaxUsers).
				Msg("tenant exceeds seat limit after plan change")
		}
	}

	if admin.CorporateRole != users.RoleAdmin {
		if err := tx.Model(&users.User{}).Where("id = ?", admin.ID).
			Update("corporate_role", users.RoleAdmin).Error; err != nil {
			return t, fmt.Errorf("mark user %d as corporate admin: %w", admin.ID, err)
		}
	}
	return t, nil
}

// suspendForNonPayment suspends the admin's tenant after its subscription ends.
// Operator suspensions are left untouched.
func suspendForNonPayment(tx *gorm.DB, userID uint) error {
	return tx.Model(&tenants.CorporateTenant{}).
		Where("admin_id = ? AND account_status = ?", userID, tenants.AccountActive).
		Updates(map[string]interface{}{
			"account_status":    tenants.AccountSuspended,
			"suspension_reason": tenants.SuspensionPendingPayment,
		}).Error
}
