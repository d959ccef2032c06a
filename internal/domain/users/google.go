package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject    string
	Email      string
	Name       string
	GivenName  string
	FamilyName string
}

// FindOrCreateByGoogle resolves a Google sign-in to a local user: by subject first,
// then by email (linking the subject to the existing account), otherwise it inserts
// newUser filled with the identity. created reports the insert.
func FindOrCreateByGoogle(ctx context.Context, db *gorm.DB, id GoogleIdentity, newUser User) (u User, created bool, err error) {
	if id.Subject == "" || id.Email == "" {
		return User{}, false, errors.New("google identity without subject or email")
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_sub = ?", id.Subject).First(&u).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup google subject: %w", err)
		}

		err = tx.Where("email = ?", email).First(&u).Error
		switch {
		case err == nil:
			// Password accounts keep their provider; they just gain a Google login.
			updates := map[string]interface{}{"google_sub": id.Subject}
			if u.Password == nil || *u.Password == "" {
				updates["auth_provider"] = "google"
			}
			if err := tx.Model(&User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("link google subject to user %d: %w", u.ID, err)
			}
			return tx.First(&u, u.ID).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("lookup email: %w", err)
		}

		sub := id.Subject
		u = newUser
		u.Email = email
		u.Name = id.GivenName
		if u.Name == "" {
			u.Name = id.Name
		}
		u.Lastname = id.FamilyName
		u.AuthProvider = "google"
		u.GoogleSub = &sub
		if err := tx.Create(&u).Error; err != nil {
			return fmt.Errorf("create google user: %w", err)
		}
		created = true
		return nil
	})
	return u, created, err
}
