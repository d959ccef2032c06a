// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"profile-app/database"
	"profile-app/internal/domain/users"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database in a temp dir. A single connection keeps
// transactions serialised the way row locks would on Postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := database.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a free user with the given email; mutate may adjust fields first.
func CreateUser(t testing.TB, db *gorm.DB, email string, mutate func(u *users.User)) users.User {
	t.Helper()

	u := users.User{
		Name:               "Test",
		Lastname:           "User",
		Email:              email,
		AuthProvider:       "local",
		Role:               "user",
		SubscriptionStatus: users.StatusFree,
	}
	if mutate != nil {
		mutate(&u)
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Date is a UTC midnight for fixed-clock tests.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
