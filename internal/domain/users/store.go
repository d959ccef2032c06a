package users

import (
	"context"

	"gorm.io/gorm"
)

// LoadForAccess reads a user with every relation the access resolver inspects.
func LoadForAccess(ctx context.Context, db *gorm.DB, id uint) (User, error) {
	var u User
	err := db.WithContext(ctx).
		Preload("Subscription").
		Preload("Tenant").
		Preload("AdminOfTenant").
		First(&u, id).Error
	return u, err
}
